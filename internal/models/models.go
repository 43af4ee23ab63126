package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Status is the lifecycle state of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in display order
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Label returns the human readable name of the status
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// Next returns the status that follows s in the pending → in-progress → completed cycle
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	}
	return StatusPending
}

// TimestampLayout is the fixed-width layout used for stored timestamps.
// Lexical order of values written in UTC matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Task represents a single task. Field order is the wire order.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	DueDate     time.Time `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Fields holds validated, normalized task content from a create or replace request.
// An empty Status means the caller did not supply one.
type Fields struct {
	Title       string
	Description string
	Status      Status
	DueDate     time.Time
}

// NewTask builds a task that has not been persisted yet
func NewTask(f Fields, id string, now time.Time) Task {
	status := f.Status
	if status == "" {
		status = StatusPending
	}
	now = now.UTC()
	return Task{
		ID:          id,
		Title:       f.Title,
		Description: f.Description,
		Status:      status,
		DueDate:     f.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Touch refreshes UpdatedAt, keeping it strictly increasing even if the clock did not advance
func (t *Task) Touch(now time.Time) {
	now = now.UTC()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = now
}

// Overdue reports whether the task is past due and not completed
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate.Before(now) && t.Status != StatusCompleted
}

// Row is the storage-facing shape of a task
type Row struct {
	ID          string
	Title       string
	Description sql.NullString
	Status      string
	DueDate     string
	CreatedAt   string
	UpdatedAt   string
}

// Row converts the task to its storage shape
func (t Task) Row() Row {
	return Row{
		ID:          t.ID,
		Title:       t.Title,
		Description: sql.NullString{String: t.Description, Valid: true},
		Status:      string(t.Status),
		DueDate:     t.DueDate.Format(TimestampLayout),
		CreatedAt:   t.CreatedAt.UTC().Format(TimestampLayout),
		UpdatedAt:   t.UpdatedAt.UTC().Format(TimestampLayout),
	}
}

// FromRow converts a stored row into a task. A NULL description becomes "".
func FromRow(r Row) (Task, error) {
	status := Status(r.Status)
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return Task{}, fmt.Errorf("task %s: unknown status %q", r.ID, r.Status)
	}

	due, err := ParseTime(r.DueDate)
	if err != nil {
		return Task{}, fmt.Errorf("task %s: due_date: %w", r.ID, err)
	}
	created, err := ParseTime(r.CreatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("task %s: created_at: %w", r.ID, err)
	}
	updated, err := ParseTime(r.UpdatedAt)
	if err != nil {
		return Task{}, fmt.Errorf("task %s: updated_at: %w", r.ID, err)
	}

	return Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		Status:      status,
		DueDate:     due,
		CreatedAt:   created.UTC(),
		UpdatedAt:   updated.UTC(),
	}, nil
}

// dateLayouts are the ISO-8601 forms accepted for due dates, most specific first.
// Layouts without an offset are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"20060102",
}

// ParseTime parses an ISO-8601 date or date-time
func ParseTime(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 date %q", s)
}
