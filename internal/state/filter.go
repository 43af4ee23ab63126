package state

import (
	"slices"
	"strings"
	"time"

	"github.com/tgienger/taskboard/internal/models"
)

// Status filter value that matches every task
const StatusAll = "all"

// Sort keys
const (
	SortDueDate   = "dueDate"
	SortCreatedAt = "createdAt"
	SortTitle     = "title"
	SortStatus    = "status"
)

// Sort orders
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortKeys lists the sort keys in the order the TUI cycles through them
var SortKeys = []string{SortDueDate, SortCreatedAt, SortTitle, SortStatus}

// Filters selects and orders the visible tasks
type Filters struct {
	Status    string // all, pending, in-progress or completed
	SortBy    string
	SortOrder string
}

// DefaultFilters shows every task by due date, soonest first
func DefaultFilters() Filters {
	return Filters{Status: StatusAll, SortBy: SortDueDate, SortOrder: OrderAsc}
}

// Apply filters tasks by status and sorts the result into a new slice.
// Ties on the sort key are ordered by id so the result is deterministic
// in both directions.
func Apply(tasks []models.Task, f Filters) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Status == "" || f.Status == StatusAll || string(t.Status) == f.Status {
			out = append(out, t)
		}
	}

	primary := comparator(f.SortBy)
	desc := f.SortOrder == OrderDesc

	slices.SortStableFunc(out, func(a, b models.Task) int {
		c := primary(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func comparator(sortBy string) func(a, b models.Task) int {
	switch sortBy {
	case SortTitle:
		return func(a, b models.Task) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortStatus:
		return func(a, b models.Task) int {
			return strings.Compare(string(a.Status), string(b.Status))
		}
	case SortCreatedAt:
		return func(a, b models.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	default:
		return func(a, b models.Task) int {
			return a.DueDate.Compare(b.DueDate)
		}
	}
}

// Count summarizes tasks. A task is overdue when its due date is before now
// and it is not completed.
func Count(tasks []models.Task, now time.Time) models.Stats {
	st := models.Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusInProgress:
			st.InProgress++
		case models.StatusCompleted:
			st.Completed++
		}
		if t.Overdue(now) {
			st.Overdue++
		}
	}
	return st
}

// next returns the element after cur in values, wrapping around
func next[T comparable](values []T, cur T) T {
	i := slices.Index(values, cur)
	return values[(i+1)%len(values)]
}

// NextSortKey cycles through SortKeys
func NextSortKey(cur string) string {
	return next(SortKeys, cur)
}

// NextStatusFilter cycles all → pending → in-progress → completed → all
func NextStatusFilter(cur string) string {
	values := []string{StatusAll}
	for _, s := range models.Statuses {
		values = append(values, string(s))
	}
	return next(values, cur)
}

// ToggleOrder flips between ascending and descending
func ToggleOrder(cur string) string {
	if cur == OrderAsc {
		return OrderDesc
	}
	return OrderAsc
}
