package edit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/task-sync/internal/model"
)

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) ApplyEdit(ctx context.Context, d model.Draft) error {
	return m.Called(ctx, d).Error(0)
}

var stored = model.Task{
	ID:       3,
	WhatToDo: "Write report",
	DueDate:  model.At(time.Date(2024, 5, 1, 17, 0, 42, 0, time.UTC)),
	Label:    model.LabelWork,
	Status:   model.StatusPending,
}

func TestSession_StartSeedsDraft(t *testing.T) {
	s := New(new(MockSaver))
	assert.Equal(t, Idle, s.State())

	_, ok := s.Draft()
	assert.False(t, ok)

	d := s.Start(stored)
	assert.Equal(t, Editing, s.State())
	assert.Equal(t, stored.ID, d.ID)
	assert.Equal(t, "Write report", d.WhatToDo)
	assert.Equal(t, 0, d.DueDate.Second())
}

func TestSession_CancelIsNoOp(t *testing.T) {
	saver := new(MockSaver)
	s := New(saver)

	s.Start(stored)
	require.NoError(t, s.Change(func(d *model.Draft) { d.WhatToDo = "changed" }))
	s.Cancel()

	assert.Equal(t, Idle, s.State())
	_, ok := s.Draft()
	assert.False(t, ok)
	saver.AssertNotCalled(t, "ApplyEdit", mock.Anything, mock.Anything)
}

func TestSession_ChangeOutsideEditing(t *testing.T) {
	s := New(new(MockSaver))

	err := s.Change(func(d *model.Draft) { d.WhatToDo = "x" })
	assert.ErrorIs(t, err, ErrNotEditing)
	assert.ErrorIs(t, s.Save(context.Background()), ErrNotEditing)
}

func TestSession_Save(t *testing.T) {
	tests := []struct {
		name      string
		saveErr   error
		wantState State
		wantDraft bool
	}{
		{name: "success returns to idle", wantState: Idle},
		{name: "failure keeps the draft", saveErr: errors.New("update failed"), wantState: Editing, wantDraft: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := new(MockSaver)
			s := New(saver)

			s.Start(stored)
			require.NoError(t, s.Change(func(d *model.Draft) {
				d.WhatToDo = "Write final report"
				d.Status = model.StatusDone
			}))

			want := model.DraftOf(stored)
			want.WhatToDo = "Write final report"
			want.Status = model.StatusDone
			saver.On("ApplyEdit", mock.Anything, want).Return(tt.saveErr).Once()

			err := s.Save(context.Background())
			if tt.saveErr != nil {
				assert.ErrorIs(t, err, tt.saveErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, s.State())

			d, ok := s.Draft()
			assert.Equal(t, tt.wantDraft, ok)
			if ok {
				assert.Equal(t, "Write final report", d.WhatToDo)
			}
			saver.AssertExpectations(t)
		})
	}
}

func TestSession_StartDuringSaveWins(t *testing.T) {
	saver := new(MockSaver)
	s := New(saver)

	other := model.Task{ID: 9, WhatToDo: "Other", Status: model.StatusPending}
	s.Start(stored)

	saving := make(chan struct{})
	release := make(chan struct{})
	saver.On("ApplyEdit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(saving)
			<-release
		}).
		Return(nil).Once()

	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background()) }()

	<-saving
	assert.Equal(t, Saving, s.State())
	s.Start(other)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, Editing, s.State())
	d, ok := s.Draft()
	require.True(t, ok)
	assert.Equal(t, int64(9), d.ID)
}
