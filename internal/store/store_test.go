package store

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/task-sync/internal/client"
	"github.com/BuzzLyutic/task-sync/internal/model"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) List(ctx context.Context) ([]model.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockAPI) Create(ctx context.Context, in model.NewTask) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockAPI) Update(ctx context.Context, d model.Draft) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockAPI) SetDone(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPI) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var (
	unauthorized = &client.RequestError{Op: "test", StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}
	notFound     = &client.RequestError{Op: "test", StatusCode: http.StatusNotFound, Message: "Task not found"}
	serverError  = &client.RequestError{Op: "test", StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}
)

func seeded(t *testing.T, api *MockAPI, tasks []model.Task, opts ...Option) *Store {
	t.Helper()

	api.On("List", mock.Anything).Return(tasks, nil).Once()
	s := New(api, opts...)
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func TestStore_Refresh(t *testing.T) {
	api := new(MockAPI)
	tasks := []model.Task{{ID: 1, WhatToDo: "Buy milk", Status: model.StatusPending}}
	s := seeded(t, api, tasks)

	assert.Equal(t, tasks, s.Tasks())
	assert.False(t, s.Loading())
	assert.Empty(t, s.Message())

	t.Run("failure keeps the cache", func(t *testing.T) {
		api.On("List", mock.Anything).Return(nil, serverError).Once()

		err := s.Refresh(context.Background())
		assert.Error(t, err)
		assert.Equal(t, tasks, s.Tasks())
		assert.Equal(t, "Error fetching tasks: Internal Server Error", s.Message())
		assert.False(t, s.Loading())
	})

	t.Run("network failure message", func(t *testing.T) {
		api.On("List", mock.Anything).Return(nil, &client.NetworkError{Op: "list", Err: errors.New("connection refused")}).Once()

		require.Error(t, s.Refresh(context.Background()))
		assert.Equal(t, "Error fetching tasks: connection refused", s.Message())
	})

	api.AssertExpectations(t)
}

func TestStore_SessionExpiry(t *testing.T) {
	api := new(MockAPI)
	tasks := []model.Task{{ID: 1, WhatToDo: "Buy milk"}}
	expired := 0
	s := seeded(t, api, tasks, WithSessionExpired(func() { expired++ }))

	api.On("List", mock.Anything).Return(nil, unauthorized).Once()

	err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, expired)
	assert.Equal(t, tasks, s.Tasks())
	assert.Empty(t, s.Message())

	t.Run("mutation rejected", func(t *testing.T) {
		api.On("SetDone", mock.Anything, int64(1)).Return(unauthorized).Once()

		err := s.MarkDone(context.Background(), 1)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.Equal(t, 2, expired)
		assert.Empty(t, s.Message())
	})

	api.AssertExpectations(t)
}

func TestStore_Add(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 45, 0, time.UTC)
	due := model.At(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		in   model.NewTask
		want model.NewTask
	}{
		{
			name: "trims and keeps given fields",
			in:   model.NewTask{Description: "  Buy milk ", DueDate: due, Label: model.LabelWork},
			want: model.NewTask{Description: "Buy milk", DueDate: due, Label: model.LabelWork},
		},
		{
			name: "defaults due date and label",
			in:   model.NewTask{Description: "Buy milk"},
			want: model.NewTask{Description: "Buy milk", DueDate: model.At(now.Truncate(time.Minute)), Label: model.LabelPersonal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			created := []model.Task{{ID: 7, WhatToDo: tt.want.Description, Label: tt.want.Label, Status: model.StatusPending}}

			api.On("Create", mock.Anything, tt.want).Return(nil).Once()
			api.On("List", mock.Anything).Return(created, nil).Once()

			s := New(api, WithClock(func() time.Time { return now }))
			require.NoError(t, s.Add(context.Background(), tt.in))
			assert.Equal(t, created, s.Tasks())

			api.AssertExpectations(t)
		})
	}
}

func TestStore_AddValidation(t *testing.T) {
	for _, desc := range []string{"", "   ", "\t\n"} {
		api := new(MockAPI)
		s := New(api)

		err := s.Add(context.Background(), model.NewTask{Description: desc})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "Task description cannot be empty", s.Message())
		assert.Empty(t, s.Tasks())

		api.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		api.AssertNotCalled(t, "List", mock.Anything)
	}
}

func TestStore_MutationFailureKeepsCache(t *testing.T) {
	tasks := []model.Task{{ID: 1, WhatToDo: "Buy milk", Status: model.StatusPending}}

	tests := []struct {
		name    string
		setup   func(api *MockAPI)
		call    func(s *Store) error
		message string
	}{
		{
			name:    "add",
			setup:   func(api *MockAPI) { api.On("Create", mock.Anything, mock.Anything).Return(serverError) },
			call:    func(s *Store) error { return s.Add(context.Background(), model.NewTask{Description: "x"}) },
			message: "Error adding task: Internal Server Error",
		},
		{
			name:    "mark",
			setup:   func(api *MockAPI) { api.On("SetDone", mock.Anything, int64(1)).Return(notFound) },
			call:    func(s *Store) error { return s.MarkDone(context.Background(), 1) },
			message: "Error marking task: Task not found",
		},
		{
			name:    "update",
			setup:   func(api *MockAPI) { api.On("Update", mock.Anything, mock.Anything).Return(notFound) },
			call:    func(s *Store) error { return s.ApplyEdit(context.Background(), model.DraftOf(tasks[0])) },
			message: "Error updating task: Task not found",
		},
		{
			name:    "delete",
			setup:   func(api *MockAPI) { api.On("Delete", mock.Anything, int64(1)).Return(serverError) },
			call:    func(s *Store) error { return s.Remove(context.Background(), 1) },
			message: "Error deleting task: Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			s := seeded(t, api, tasks)
			tt.setup(api)

			assert.Error(t, tt.call(s))
			assert.Equal(t, tasks, s.Tasks())
			assert.Equal(t, tt.message, s.Message())

			api.AssertExpectations(t)
		})
	}
}

func TestStore_RemoveMissingRefreshes(t *testing.T) {
	api := new(MockAPI)
	s := seeded(t, api, []model.Task{{ID: 1}})

	api.On("Delete", mock.Anything, int64(1)).Return(notFound).Once()
	api.On("List", mock.Anything).Return([]model.Task{}, nil).Once()

	require.NoError(t, s.Remove(context.Background(), 1))
	assert.Empty(t, s.Tasks())
	assert.Empty(t, s.Message())

	api.AssertExpectations(t)
}

func TestStore_ApplyEditValidation(t *testing.T) {
	api := new(MockAPI)
	s := New(api)

	err := s.ApplyEdit(context.Background(), model.Draft{ID: 1, WhatToDo: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	api.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	api := new(MockAPI)
	s := seeded(t, api, []model.Task{{ID: 1, WhatToDo: "a"}})

	snap := s.Snapshot()
	snap.Tasks[0].WhatToDo = "changed"

	got, ok := s.Find(1)
	require.True(t, ok)
	assert.Equal(t, "a", got.WhatToDo)

	_, ok = s.Find(2)
	assert.False(t, ok)
}
