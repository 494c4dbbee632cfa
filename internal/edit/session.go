// Package edit holds the draft of the task currently being edited.
//
// A session moves Idle -> Editing on Start, back to Idle on Cancel, and
// through Saving on Save. A failed save returns to Editing with the draft
// intact so the user can retry.
package edit

import (
	"context"
	"errors"
	"sync"

	"github.com/BuzzLyutic/task-sync/internal/model"
)

var ErrNotEditing = errors.New("no task is being edited")

type State int

const (
	Idle State = iota
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "idle"
	}
}

// Saver persists a confirmed draft. *store.Store satisfies it.
type Saver interface {
	ApplyEdit(ctx context.Context, d model.Draft) error
}

type Session struct {
	saver Saver

	mu    sync.Mutex
	state State
	draft model.Draft
	gen   uint64
}

func New(saver Saver) *Session {
	return &Session{saver: saver}
}

// Start seeds a fresh draft from t. Any previous draft is dropped, even
// one that is being saved.
func (s *Session) Start(t model.Task) model.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.state = Editing
	s.draft = model.DraftOf(t)
	return s.draft
}

// Change applies fn to the draft.
func (s *Session) Change(fn func(d *model.Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editing {
		return ErrNotEditing
	}
	fn(&s.draft)
	return nil
}

func (s *Session) Draft() (model.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return model.Draft{}, false
	}
	return s.draft, true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cancel discards the draft without contacting the item store.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Editing {
		return
	}
	s.state = Idle
	s.draft = model.Draft{}
}

func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Editing {
		s.mu.Unlock()
		return ErrNotEditing
	}
	s.state = Saving
	d := s.draft
	gen := s.gen
	s.mu.Unlock()

	err := s.saver.ApplyEdit(ctx, d)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer Start owns the session now.
	if gen != s.gen {
		return err
	}
	if err != nil {
		s.state = Editing
		return err
	}
	s.state = Idle
	s.draft = model.Draft{}
	return nil
}
