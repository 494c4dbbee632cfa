package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/task-sync/internal/model"
	"github.com/BuzzLyutic/task-sync/internal/repo"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	args := m.Called(ctx, userID, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, userID, id int64) (model.Task, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, userID int64) ([]model.Task, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, userID int64, t model.Task) (model.Task, error) {
	args := m.Called(ctx, userID, t)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *MockTaskRepository) MarkDone(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockTaskRepository) Upcoming(ctx context.Context, userID int64, from, to time.Time) ([]model.Task, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *MockTaskRepository) SaveIdempotencyKey(ctx context.Context, userID int64, key string, resourceID int64) error {
	return m.Called(ctx, userID, key, resourceID).Error(0)
}

func (m *MockTaskRepository) GetIdempotencyKey(ctx context.Context, userID int64, key string) (int64, error) {
	args := m.Called(ctx, userID, key)
	return args.Get(0).(int64), args.Error(1)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateRequest
		idempKey  string
		setupMock func(*MockTaskRepository)
		wantErr   error
	}{
		{
			name: "trims description and defaults label and due date",
			req:  CreateRequest{Todo: "  Buy milk  "},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, int64(1), mock.MatchedBy(func(t model.Task) bool {
					return t.WhatToDo == "Buy milk" &&
						t.Label == model.LabelPersonal &&
						t.Status == model.StatusPending &&
						t.DueDate.Equal(fixedNow)
				})).Return(model.Task{ID: 1, WhatToDo: "Buy milk", Status: model.StatusPending}, nil)
			},
		},
		{
			name:      "validation error - empty description",
			req:       CreateRequest{Todo: "   "},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - unknown label",
			req:       CreateRequest{Todo: "Test", Label: "hobby"},
			setupMock: func(m *MockTaskRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:     "idempotency - key exists",
			req:      CreateRequest{Todo: "Test Task"},
			idempKey: "key-123",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetIdempotencyKey", mock.Anything, int64(1), "key-123").Return(int64(42), nil)
				m.On("Get", mock.Anything, int64(1), int64(42)).Return(model.Task{ID: 42, WhatToDo: "Test Task"}, nil)
			},
		},
		{
			name:     "idempotency - new key",
			req:      CreateRequest{Todo: "Test Task", Label: model.LabelWork},
			idempKey: "key-456",
			setupMock: func(m *MockTaskRepository) {
				m.On("GetIdempotencyKey", mock.Anything, int64(1), "key-456").Return(int64(0), repo.ErrorNotFound)
				m.On("Create", mock.Anything, int64(1), mock.Anything).Return(model.Task{ID: 7, WhatToDo: "Test Task"}, nil)
				m.On("SaveIdempotencyKey", mock.Anything, int64(1), "key-456", int64(7)).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			service := NewTaskService(mockRepo, WithClock(fixedClock))
			result, err := service.Create(context.Background(), 1, tt.req, tt.idempKey)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotZero(t, result.ID)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	stored := model.Task{
		ID:       5,
		WhatToDo: "Original",
		DueDate:  model.At(fixedNow),
		Label:    model.LabelPersonal,
		Status:   model.StatusPending,
	}

	t.Run("omitted fields keep stored values", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, int64(1), int64(5)).Return(stored, nil)
		mockRepo.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(t model.Task) bool {
			return t.ID == 5 && t.WhatToDo == "Updated" && t.Label == model.LabelPersonal &&
				t.Status == model.StatusPending && t.DueDate.Equal(fixedNow)
		})).Return(model.Task{ID: 5, WhatToDo: "Updated"}, nil)

		text := "Updated"
		service := NewTaskService(mockRepo)
		result, err := service.Update(context.Background(), 1, UpdateRequest{ID: 5, WhatToDo: &text})

		require.NoError(t, err)
		assert.Equal(t, "Updated", result.WhatToDo)
		mockRepo.AssertExpectations(t)
	})

	t.Run("status may be set back to pending", func(t *testing.T) {
		done := stored
		done.Status = model.StatusDone
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, int64(1), int64(5)).Return(done, nil)
		mockRepo.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(t model.Task) bool {
			return t.Status == model.StatusPending
		})).Return(stored, nil)

		pending := model.StatusPending
		service := NewTaskService(mockRepo)
		_, err := service.Update(context.Background(), 1, UpdateRequest{ID: 5, Status: &pending})

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing task", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, int64(1), int64(9)).Return(model.Task{}, repo.ErrorNotFound)

		service := NewTaskService(mockRepo)
		_, err := service.Update(context.Background(), 1, UpdateRequest{ID: 9})

		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})

	t.Run("empty description rejected", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Get", mock.Anything, int64(1), int64(5)).Return(stored, nil)

		blank := "  "
		service := NewTaskService(mockRepo)
		_, err := service.Update(context.Background(), 1, UpdateRequest{ID: 5, WhatToDo: &blank})

		assert.ErrorIs(t, err, ErrValidation)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing id", func(t *testing.T) {
		service := NewTaskService(new(MockTaskRepository))
		_, err := service.Update(context.Background(), 1, UpdateRequest{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestTaskService_Upcoming(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("Upcoming", mock.Anything, int64(1), fixedNow.Add(-time.Hour), fixedNow.Add(2*time.Hour)).
		Return([]model.Task{
			{ID: 1, WhatToDo: "late", DueDate: model.At(fixedNow.Add(-90 * time.Second))},
			{ID: 2, WhatToDo: "soon", DueDate: model.At(fixedNow.Add(10*time.Minute + 59*time.Second))},
		}, nil)

	service := NewTaskService(mockRepo, WithClock(fixedClock))
	got, err := service.Upcoming(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "late", got[0].Task)
	assert.Equal(t, -1, got[0].MinutesLeft)
	assert.Equal(t, 10, got[1].MinutesLeft)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_MarkDoneAndDelete(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("MarkDone", mock.Anything, int64(1), int64(3)).Return(nil)
	mockRepo.On("Delete", mock.Anything, int64(1), int64(3)).Return(repo.ErrorNotFound)

	service := NewTaskService(mockRepo)
	require.NoError(t, service.MarkDone(context.Background(), 1, 3))
	assert.ErrorIs(t, service.Delete(context.Background(), 1, 3), repo.ErrorNotFound)
	assert.ErrorIs(t, service.MarkDone(context.Background(), 1, 0), ErrValidation)
	mockRepo.AssertExpectations(t)
}
