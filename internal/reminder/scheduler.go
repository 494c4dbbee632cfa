// Package reminder polls the item store for tasks that are due soon and
// turns them into notifications.
package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync/internal/client"
	"github.com/BuzzLyutic/task-sync/internal/model"
)

const DefaultInterval = 60 * time.Second

// Source lists the reminders of the current session.
type Source interface {
	Upcoming(ctx context.Context) ([]model.Reminder, error)
}

type Scheduler struct {
	src      Source
	gw       Gateway
	interval time.Duration
	logger   *zap.Logger

	mu         sync.Mutex
	reminders  []model.Reminder
	permission Permission
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

func New(src Source, gw Gateway, opts ...Option) *Scheduler {
	s := &Scheduler{
		src:      src,
		gw:       gw,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle stops a running scheduler.
type Handle struct {
	cancel context.CancelFunc
	stop   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger *zap.Logger
}

// Stop cancels the timer and any poll in flight, then waits for the poll
// goroutine to exit. It is safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.logger.Info("Stopping reminder scheduler...")
		close(h.stop)
		h.cancel()
		h.wg.Wait()
		h.logger.Info("Reminder scheduler stopped")
	})
}

// Start asks the gateway for permission once, polls immediately and then
// every interval until the handle is stopped or ctx is done.
func (s *Scheduler) Start(ctx context.Context) *Handle {
	perm, err := s.gw.RequestPermission(ctx)
	if err != nil {
		s.logger.Warn("notification permission request failed", zap.Error(err))
		perm = PermissionDenied
	}
	s.mu.Lock()
	s.permission = perm
	s.mu.Unlock()

	s.logger.Info("Starting reminder scheduler",
		zap.Duration("interval", s.interval),
		zap.Stringer("permission", perm),
	)

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, stop: make(chan struct{}), logger: s.logger}
	h.wg.Add(1)
	go s.run(ctx, h)
	return h
}

func (s *Scheduler) run(ctx context.Context, h *Handle) {
	defer h.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll(ctx)
	for {
		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	reminders, err := s.src.Upcoming(ctx)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrUnauthorized):
			s.logger.Debug("reminder poll rejected, session not valid")
		case ctx.Err() != nil:
			// stopped mid-request
		default:
			s.logger.Warn("reminder poll failed", zap.Error(err))
		}
		return
	}

	s.mu.Lock()
	s.reminders = reminders
	granted := s.permission == PermissionGranted
	s.mu.Unlock()

	if !granted {
		return
	}
	for _, r := range reminders {
		b := BucketOf(r.MinutesLeft)
		if b == None {
			continue
		}
		n := Notification{Title: "Task Reminder", Body: Message(r), TaskID: r.ID, Bucket: b}
		if err := s.gw.Notify(ctx, n); err != nil {
			s.logger.Warn("notification failed", zap.Int64("task_id", r.ID), zap.Error(err))
		}
	}
}

// Reminders returns the result of the last successful poll.
func (s *Scheduler) Reminders() []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Reminder(nil), s.reminders...)
}

func (s *Scheduler) Permission() Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permission
}
