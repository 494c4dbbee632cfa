package model

import "strings"

type Label string

const (
	LabelPersonal Label = "personal"
	LabelWork     Label = "work"
)

// Normalize maps an absent label to personal.
func (l Label) Normalize() Label {
	if strings.TrimSpace(string(l)) == "" {
		return LabelPersonal
	}
	return Label(strings.ToLower(strings.TrimSpace(string(l))))
}

func (l Label) Valid() bool {
	switch l {
	case LabelPersonal, LabelWork:
		return true
	}
	return false
}

// Title renders the label for display, e.g. "Work".
func (l Label) Title() string {
	n := string(l.Normalize())
	return strings.ToUpper(n[:1]) + n[1:]
}

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDone
}

type Task struct {
	ID       int64     `json:"id"`
	WhatToDo string    `json:"what_to_do"`
	DueDate  Timestamp `json:"due_date"`
	Label    Label     `json:"label"`
	Status   Status    `json:"status"`
}

func (t Task) Done() bool {
	return t.Status == StatusDone
}

// NewTask is the input of an add operation.
type NewTask struct {
	Description string
	DueDate     Timestamp
	Label       Label
}

// Draft is the editable copy of a task held while it is being edited.
type Draft struct {
	ID       int64
	WhatToDo string
	DueDate  Timestamp
	Label    Label
	Status   Status
}

// DraftOf seeds a draft from the stored task. The due date is cut to
// minute precision to match the edit input.
func DraftOf(t Task) Draft {
	return Draft{
		ID:       t.ID,
		WhatToDo: t.WhatToDo,
		DueDate:  t.DueDate.Minute(),
		Label:    t.Label.Normalize(),
		Status:   t.Status,
	}
}

type Reminder struct {
	ID          int64     `json:"id"`
	Task        string    `json:"task"`
	DueDate     Timestamp `json:"due_date"`
	MinutesLeft int       `json:"minutes_left"`
}

type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password"`
}
