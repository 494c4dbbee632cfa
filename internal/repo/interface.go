package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/task-sync/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами.
// Все операции ограничены задачами одного пользователя.
type TaskRepository interface {
	Create(ctx context.Context, userID int64, t model.Task) (model.Task, error)
	Get(ctx context.Context, userID, id int64) (model.Task, error)
	List(ctx context.Context, userID int64) ([]model.Task, error)
	Update(ctx context.Context, userID int64, t model.Task) (model.Task, error)
	MarkDone(ctx context.Context, userID, id int64) error
	Delete(ctx context.Context, userID, id int64) error
	// Upcoming returns pending tasks due within [from, to].
	Upcoming(ctx context.Context, userID int64, from, to time.Time) ([]model.Task, error)
	SaveIdempotencyKey(ctx context.Context, userID int64, key string, resourceID int64) error
	GetIdempotencyKey(ctx context.Context, userID int64, key string) (int64, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

type Repository interface {
	TaskRepository
	UserRepository
	Ping(ctx context.Context) error
}
