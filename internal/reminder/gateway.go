package reminder

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "default"
	}
}

type Notification struct {
	Title  string
	Body   string
	TaskID int64
	Bucket Bucket
}

// Gateway delivers notifications to the user.
type Gateway interface {
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(ctx context.Context, n Notification) error
}

// TerminalGateway prints notifications as lines on w.
type TerminalGateway struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	now     func() time.Time
}

func NewTerminalGateway(w io.Writer, enabled bool) *TerminalGateway {
	return &TerminalGateway{w: w, enabled: enabled, now: time.Now}
}

func (g *TerminalGateway) RequestPermission(context.Context) (Permission, error) {
	if !g.enabled {
		return PermissionDenied, nil
	}
	return PermissionGranted, nil
}

func (g *TerminalGateway) Notify(_ context.Context, n Notification) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, err := fmt.Fprintf(g.w, "[%s] %s: %s\n", g.now().Format("15:04"), n.Title, n.Body)
	return err
}
