package repo

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/BuzzLyutic/task-sync/internal/model"
)

//go:embed migrations/sqlite.sql
var sqliteSchema string

// SQLiteRepo is the single-file backend, handy for local runs and tests.
type SQLiteRepo struct {
	db *sqlx.DB
}

type taskRow struct {
	ID       int64     `db:"id"`
	WhatToDo string    `db:"what_to_do"`
	DueDate  time.Time `db:"due_date"`
	Label    string    `db:"label"`
	Status   string    `db:"status"`
}

func (r taskRow) task() model.Task {
	return model.Task{
		ID:       r.ID,
		WhatToDo: r.WhatToDo,
		DueDate:  model.At(r.DueDate),
		Label:    model.Label(r.Label).Normalize(),
		Status:   model.Status(r.Status),
	}
}

// OpenSQLite connects and applies the schema. The pool is capped at one
// connection so that in-memory databases are shared across queries.
func OpenSQLite(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := MigrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func MigrateSQLite(db *sqlx.DB) error {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

func NewSQLiteRepo(db *sqlx.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepo) Create(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (what_to_do, due_date, label, status, user_id)
		VALUES (?, ?, ?, 'pending', ?)
	`, t.WhatToDo, t.DueDate.UTC(), string(t.Label), userID)
	if err != nil {
		return t, r.mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return t, fmt.Errorf("last insert id: %w", err)
	}
	return r.Get(ctx, userID, id)
}

func (r *SQLiteRepo) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row, `
		SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?
	`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrorNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("get task: %w", err)
	}
	return row.task(), nil
}

func (r *SQLiteRepo) List(ctx context.Context, userID int64) ([]model.Task, error) {
	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY due_date, id
	`, userID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return toTasks(rows), nil
}

func (r *SQLiteRepo) Update(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET what_to_do = ?, due_date = ?, label = ?, status = ?
		WHERE id = ? AND user_id = ?
	`, t.WhatToDo, t.DueDate.UTC(), string(t.Label), string(t.Status), t.ID, userID)
	if err != nil {
		return t, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return t, ErrorNotFound
	}
	return r.Get(ctx, userID, t.ID)
}

func (r *SQLiteRepo) MarkDone(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET status = 'done' WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepo) Upcoming(ctx context.Context, userID int64, from, to time.Time) ([]model.Task, error) {
	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = ? AND status = 'pending' AND due_date BETWEEN ? AND ?
		ORDER BY due_date, id
	`, userID, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("upcoming tasks: %w", err)
	}
	return toTasks(rows), nil
}

func (r *SQLiteRepo) SaveIdempotencyKey(ctx context.Context, userID int64, key string, resourceID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO idempotency_keys (user_id, key, resource_id) VALUES (?, ?, ?)
	`, userID, key, resourceID)
	return err
}

func (r *SQLiteRepo) GetIdempotencyKey(ctx context.Context, userID int64, key string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		SELECT resource_id FROM idempotency_keys WHERE user_id = ? AND key = ?
	`, userID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrorNotFound
	}
	return id, err
}

func (r *SQLiteRepo) CreateUser(ctx context.Context, username, passwordHash string) (model.User, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO users (username, password) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		return model.User{}, r.mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("last insert id: %w", err)
	}
	return model.User{ID: id, Username: username, PasswordHash: passwordHash}, nil
}

func (r *SQLiteRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT id, username, password FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrorNotFound
	}
	return u, err
}

func (r *SQLiteRepo) mapError(err error) error {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrorConflict
	}
	return err
}

func toTasks(rows []taskRow) []model.Task {
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.task())
	}
	return tasks
}
