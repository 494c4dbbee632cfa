package reminder

import (
	"fmt"

	"github.com/BuzzLyutic/task-sync/internal/model"
)

// Threshold is the largest minutes_left that still produces a notification.
const Threshold = 60

type Bucket int

const (
	None Bucket = iota
	Overdue
	Within15
	Within30
	Within45
	Within60
)

func (b Bucket) String() string {
	switch b {
	case Overdue:
		return "overdue"
	case Within15:
		return "<=15"
	case Within30:
		return "<=30"
	case Within45:
		return "<=45"
	case Within60:
		return "<=60"
	default:
		return "none"
	}
}

// BucketOf picks the tightest bucket whose upper bound holds minutesLeft.
func BucketOf(minutesLeft int) Bucket {
	switch {
	case minutesLeft <= 0:
		return Overdue
	case minutesLeft <= 15:
		return Within15
	case minutesLeft <= 30:
		return Within30
	case minutesLeft <= 45:
		return Within45
	case minutesLeft <= Threshold:
		return Within60
	default:
		return None
	}
}

// Message renders the notification text for r, or "" when r is outside
// the threshold.
func Message(r model.Reminder) string {
	switch BucketOf(r.MinutesLeft) {
	case Overdue:
		return fmt.Sprintf("Task %q is overdue!", r.Task)
	case Within15:
		return fmt.Sprintf("Task %q is due in less than 15 minutes!", r.Task)
	case Within30:
		return fmt.Sprintf("Task %q is due in less than 30 minutes.", r.Task)
	case Within45:
		return fmt.Sprintf("Task %q is due in less than 45 minutes.", r.Task)
	case Within60:
		return fmt.Sprintf("Task %q is due within the hour.", r.Task)
	}
	return ""
}
