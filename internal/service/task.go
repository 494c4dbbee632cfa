package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BuzzLyutic/task-sync/internal/model"
	"github.com/BuzzLyutic/task-sync/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

const (
	DefaultLookahead    = 2 * time.Hour
	DefaultOverdueGrace = time.Hour
)

// CreateRequest is the body of an add call.
type CreateRequest struct {
	Todo    string
	DueDate model.Timestamp
	Label   model.Label
}

// UpdateRequest carries a task id and the fields to replace. Nil fields
// keep their stored value.
type UpdateRequest struct {
	ID       int64
	WhatToDo *string
	DueDate  *model.Timestamp
	Label    *model.Label
	Status   *model.Status
}

type TaskService struct {
	repo      repo.TaskRepository
	now       func() time.Time
	lookahead time.Duration
	grace     time.Duration
}

type Option func(*TaskService)

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

// WithUpcomingWindow sets how far ahead and how far overdue a pending
// task is still reported by Upcoming.
func WithUpcomingWindow(lookahead, grace time.Duration) Option {
	return func(s *TaskService) {
		s.lookahead = lookahead
		s.grace = grace
	}
}

func NewTaskService(repo repo.TaskRepository, opts ...Option) *TaskService {
	s := &TaskService{
		repo:      repo,
		now:       time.Now,
		lookahead: DefaultLookahead,
		grace:     DefaultOverdueGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) Create(ctx context.Context, userID int64, req CreateRequest, idempKey string) (model.Task, error) {
	t := model.Task{
		WhatToDo: strings.TrimSpace(req.Todo),
		DueDate:  req.DueDate,
		Label:    req.Label.Normalize(),
		Status:   model.StatusPending,
	}
	if t.DueDate.IsZero() {
		t.DueDate = model.At(s.now().Truncate(time.Second))
	}
	if err := s.validate(t); err != nil { // Валидация модели на корректность введенных данных
		return t, err
	}

	if idempKey != "" { // Повторный запрос с тем же ключом возвращает уже созданную задачу
		if existingID, err := s.repo.GetIdempotencyKey(ctx, userID, idempKey); err == nil {
			return s.repo.Get(ctx, userID, existingID)
		}
	}

	resource, err := s.repo.Create(ctx, userID, t)
	if err != nil {
		return resource, err
	}

	if idempKey != "" {
		// Потеря ключа не ломает создание, только повторный запрос создаст дубликат.
		_ = s.repo.SaveIdempotencyKey(ctx, userID, idempKey, resource.ID)
	}

	return resource, nil
}

func (s *TaskService) List(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.repo.List(ctx, userID)
}

// Update merges the request into the stored task and saves the result.
func (s *TaskService) Update(ctx context.Context, userID int64, req UpdateRequest) (model.Task, error) {
	if req.ID <= 0 {
		return model.Task{}, fmt.Errorf("%w: task id is required", ErrValidation)
	}
	t, err := s.repo.Get(ctx, userID, req.ID)
	if err != nil {
		return t, err
	}

	if req.WhatToDo != nil {
		t.WhatToDo = strings.TrimSpace(*req.WhatToDo)
	}
	if req.DueDate != nil && !req.DueDate.IsZero() {
		t.DueDate = *req.DueDate
	}
	if req.Label != nil {
		t.Label = req.Label.Normalize()
	}
	if req.Status != nil {
		t.Status = *req.Status
	}

	if err := s.validate(t); err != nil {
		return t, err
	}
	return s.repo.Update(ctx, userID, t)
}

func (s *TaskService) MarkDone(ctx context.Context, userID, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: task id is required", ErrValidation)
	}
	return s.repo.MarkDone(ctx, userID, id)
}

func (s *TaskService) Delete(ctx context.Context, userID, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: task id is required", ErrValidation)
	}
	return s.repo.Delete(ctx, userID, id)
}

// Upcoming lists pending tasks that are nearly due or recently overdue,
// with the whole minutes left until each due date.
func (s *TaskService) Upcoming(ctx context.Context, userID int64) ([]model.Reminder, error) {
	now := s.now()
	tasks, err := s.repo.Upcoming(ctx, userID, now.Add(-s.grace), now.Add(s.lookahead))
	if err != nil {
		return nil, err
	}

	out := make([]model.Reminder, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, model.Reminder{
			ID:          t.ID,
			Task:        t.WhatToDo,
			DueDate:     t.DueDate,
			MinutesLeft: MinutesLeft(now, t.DueDate.Time),
		})
	}
	return out, nil
}

// MinutesLeft truncates toward zero, so 90 seconds overdue is -1.
func MinutesLeft(now, due time.Time) int {
	return int(due.Sub(now).Minutes())
}

func (s *TaskService) validate(t model.Task) error {
	if t.WhatToDo == "" {
		return fmt.Errorf("%w: task description is required", ErrValidation)
	}
	if !t.Label.Valid() {
		return fmt.Errorf("%w: unknown label %q", ErrValidation, t.Label)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, t.Status)
	}
	return nil
}
