package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// InputLayout is the minute-precision layout used by date inputs.
const InputLayout = "2006-01-02T15:04"

const displayLayout = "2006-01-02 15:04"

var parseLayouts = []string{
	InputLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Timestamp is a due date. The zero value means "no due date" and is
// encoded as null.
type Timestamp struct {
	time.Time
}

func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Minute truncates the timestamp to minute precision.
func (ts Timestamp) Minute() Timestamp {
	if ts.IsZero() {
		return ts
	}
	return Timestamp{Time: ts.Truncate(time.Minute)}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(time.RFC3339))
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	t, err := ParseDue(s, time.Local)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// ParseDue parses a due date in any of the accepted layouts. Layouts
// without a zone are read in loc. An empty string yields the zero time.
func ParseDue(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due date %q", s)
}

// FormatDue renders a due date for display.
func FormatDue(ts Timestamp) string {
	if ts.IsZero() {
		return "No due date"
	}
	return ts.Local().Format(displayLayout)
}
