// Package store keeps the client-side copy of the task collection. The
// copy is only ever replaced by a successful Refresh; mutations go to the
// item store first and are followed by a Refresh.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync/internal/client"
	"github.com/BuzzLyutic/task-sync/internal/model"
)

var (
	ErrValidation     = errors.New("task description cannot be empty")
	ErrSessionExpired = errors.New("session expired")
)

const msgEmptyDescription = "Task description cannot be empty"

// API is the part of the item store client the store depends on.
type API interface {
	List(ctx context.Context) ([]model.Task, error)
	Create(ctx context.Context, in model.NewTask) error
	Update(ctx context.Context, d model.Draft) error
	SetDone(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// State is a point-in-time copy of the store.
type State struct {
	Tasks   []model.Task
	Loading bool
	Message string
}

type Store struct {
	api       API
	now       func() time.Time
	logger    *zap.Logger
	onExpired func()

	mu    sync.Mutex
	state State
}

type Option func(*Store)

// WithSessionExpired registers the callback fired when the item store
// rejects the session.
func WithSessionExpired(fn func()) Option {
	return func(s *Store) { s.onExpired = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(api API, opts ...Option) *Store {
	s := &Store{
		api:       api,
		now:       time.Now,
		logger:    zap.NewNop(),
		onExpired: func() {},
		state:     State{Tasks: []model.Task{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh replaces the cached collection with the item store's.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()

	tasks, err := s.api.List(ctx)

	s.mu.Lock()
	s.state.Loading = false
	s.mu.Unlock()

	if err != nil {
		return s.fail(err, "Error fetching tasks")
	}

	s.mu.Lock()
	s.state.Tasks = tasks
	s.state.Message = ""
	s.mu.Unlock()

	s.logger.Debug("tasks refreshed", zap.Int("count", len(tasks)))
	return nil
}

// Add validates and creates a task. An empty description is rejected
// without contacting the item store.
func (s *Store) Add(ctx context.Context, in model.NewTask) error {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		s.setMessage(msgEmptyDescription)
		return ErrValidation
	}
	if in.DueDate.IsZero() {
		in.DueDate = model.At(s.now()).Minute()
	}
	in.Label = in.Label.Normalize()

	if err := s.api.Create(ctx, in); err != nil {
		return s.fail(err, "Error adding task")
	}
	return s.Refresh(ctx)
}

// Remove deletes a task. A task that is already gone counts as removed.
func (s *Store) Remove(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, id); err != nil && !errors.Is(err, client.ErrNotFound) {
		return s.fail(err, "Error deleting task")
	}
	return s.Refresh(ctx)
}

func (s *Store) MarkDone(ctx context.Context, id int64) error {
	if err := s.api.SetDone(ctx, id); err != nil {
		return s.fail(err, "Error marking task")
	}
	return s.Refresh(ctx)
}

// ApplyEdit sends a confirmed draft to the item store.
func (s *Store) ApplyEdit(ctx context.Context, d model.Draft) error {
	d.WhatToDo = strings.TrimSpace(d.WhatToDo)
	if d.WhatToDo == "" {
		s.setMessage(msgEmptyDescription)
		return ErrValidation
	}

	if err := s.api.Update(ctx, d); err != nil {
		return s.fail(err, "Error updating task")
	}
	return s.Refresh(ctx)
}

// Tasks returns a copy of the cached collection.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.state.Tasks...)
}

// Find looks a task up in the cached collection.
func (s *Store) Find(id int64) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.state.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Loading
}

// Message is the last user-visible error, or "".
func (s *Store) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Message
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Tasks = append([]model.Task(nil), s.state.Tasks...)
	return st
}

func (s *Store) setMessage(msg string) {
	s.mu.Lock()
	s.state.Message = msg
	s.mu.Unlock()
}

// fail records err for the user, except for a rejected session which is
// reported once through the expiry callback instead.
func (s *Store) fail(err error, prefix string) error {
	if errors.Is(err, client.ErrUnauthorized) {
		s.logger.Info("session rejected by item store")
		s.onExpired()
		return ErrSessionExpired
	}

	s.logger.Warn(strings.ToLower(prefix), zap.Error(err))
	s.setMessage(prefix + ": " + client.Detail(err))
	return err
}
