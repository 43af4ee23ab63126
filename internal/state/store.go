// Package state is the client-side cache of tasks shared by the TUI views.
//
// Every mutating call performs the remote call first and only then updates
// the cache: creates are prepended, updates replace the matching entry in
// place and deletes filter it out. The list is never re-fetched after a
// write. Calls are not queued, so racing writes resolve in the order their
// responses arrive.
package state

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/tgienger/taskboard/internal/client"
	"github.com/tgienger/taskboard/internal/models"
	"go.uber.org/zap"
)

// API is the remote task service. *client.Client implements it.
type API interface {
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id string) (models.Task, error)
	Create(ctx context.Context, in models.TaskInput) (models.Task, error)
	Update(ctx context.Context, id string, in models.TaskInput) (models.Task, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (models.Task, error)
	Delete(ctx context.Context, id string) (string, error)
}

// NoticeLevel classifies a user-facing notice
type NoticeLevel int

const (
	NoticeSuccess NoticeLevel = iota
	NoticeError
)

// Notice is a short message for the status bar
type Notice struct {
	Level   NoticeLevel
	Message string
}

// State is a point-in-time copy of the store
type State struct {
	Tasks       []models.Task
	CurrentTask *models.Task
	Loading     bool
	Error       string
	Filters     Filters
}

// Store caches tasks fetched from the API
type Store struct {
	api    API
	logger *zap.Logger
	notify func(Notice)
	now    func() time.Time

	mu      sync.RWMutex
	tasks   []models.Task
	current *models.Task
	loading bool
	err     string
	filters Filters
}

// Option configures a Store
type Option func(*Store)

// WithNotifier receives a notice for every remote call outcome
func WithNotifier(fn func(Notice)) Option {
	return func(s *Store) { s.notify = fn }
}

// WithLogger sets the debug logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time used for overdue checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store over api
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:     api,
		logger:  zap.NewNop(),
		notify:  func(Notice) {},
		now:     time.Now,
		tasks:   []models.Task{},
		filters: DefaultFilters(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchTasks replaces the cache with the server's list
func (s *Store) FetchTasks(ctx context.Context) error {
	s.begin()

	list, err := s.api.List(ctx)
	if err != nil {
		s.failed("Failed to fetch tasks", err)
		return err
	}

	s.mu.Lock()
	s.tasks = list
	s.loading = false
	s.mu.Unlock()

	s.logger.Debug("fetched tasks", zap.Int("count", len(list)))
	return nil
}

// FetchTask loads one task into CurrentTask
func (s *Store) FetchTask(ctx context.Context, id string) (models.Task, error) {
	s.begin()

	t, err := s.api.Get(ctx, id)
	if err != nil {
		s.failed("Failed to fetch task", err)
		return models.Task{}, err
	}

	s.mu.Lock()
	s.current = &t
	s.loading = false
	s.mu.Unlock()
	return t, nil
}

// CreateTask submits f and prepends the created task
func (s *Store) CreateTask(ctx context.Context, f Form) (models.Task, error) {
	s.begin()

	t, err := s.api.Create(ctx, f.Input())
	if err != nil {
		s.failed("Failed to create task", err)
		return models.Task{}, err
	}

	s.mu.Lock()
	s.tasks = append([]models.Task{t}, s.tasks...)
	s.loading = false
	s.mu.Unlock()

	s.succeeded("Task created successfully")
	return t, nil
}

// UpdateTask replaces a task's fields and the cached copy
func (s *Store) UpdateTask(ctx context.Context, id string, f Form) (models.Task, error) {
	s.begin()

	t, err := s.api.Update(ctx, id, f.Input())
	if err != nil {
		s.failed("Failed to update task", err)
		return models.Task{}, err
	}

	s.replace(t)
	s.succeeded("Task updated successfully")
	return t, nil
}

// UpdateTaskStatus changes a task's status and the cached copy
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status models.Status) (models.Task, error) {
	t, err := s.api.UpdateStatus(ctx, id, status)
	if err != nil {
		s.failed("Failed to update task status", err)
		return models.Task{}, err
	}

	s.replace(t)
	s.succeeded("Task marked as " + string(status))
	return t, nil
}

// DeleteTask removes a task remotely and from the cache
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if _, err := s.api.Delete(ctx, id); err != nil {
		s.failed("Failed to delete task", err)
		return err
	}

	s.mu.Lock()
	s.tasks = slices.DeleteFunc(slices.Clone(s.tasks), func(t models.Task) bool { return t.ID == id })
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.mu.Unlock()

	s.succeeded("Task deleted successfully")
	return nil
}

// SetFilters merges the non-empty fields of f into the filters
func (s *Store) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.Status != "" {
		s.filters.Status = f.Status
	}
	if f.SortBy != "" {
		s.filters.SortBy = f.SortBy
	}
	if f.SortOrder != "" {
		s.filters.SortOrder = f.SortOrder
	}
}

// Filters returns the current filter settings
func (s *Store) Filters() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// FilteredTasks returns the cached tasks filtered and sorted by the current filters
func (s *Store) FilteredTasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Apply(s.tasks, s.filters)
}

// Stats counts the cached tasks
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Count(s.tasks, s.now())
}

// Task returns the cached task with id
func (s *Store) Task(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.tasks, func(t models.Task) bool { return t.ID == id })
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

// ClearError drops the recorded error
func (s *Store) ClearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

// ClearCurrentTask drops the current task
func (s *Store) ClearCurrentTask() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Reset returns the store to its initial state
func (s *Store) Reset() {
	s.mu.Lock()
	s.tasks = []models.Task{}
	s.current = nil
	s.loading = false
	s.err = ""
	s.filters = DefaultFilters()
	s.mu.Unlock()
}

// Snapshot copies the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Tasks:   slices.Clone(s.tasks),
		Loading: s.loading,
		Error:   s.err,
		Filters: s.filters,
	}
	if s.current != nil {
		cur := *s.current
		st.CurrentTask = &cur
	}
	return st
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

// replace swaps the cached entry with the same id, and CurrentTask if it matches
func (s *Store) replace(t models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := slices.Clone(s.tasks)
	for i := range tasks {
		if tasks[i].ID == t.ID {
			tasks[i] = t
		}
	}
	s.tasks = tasks
	if s.current != nil && s.current.ID == t.ID {
		s.current = &t
	}
	s.loading = false
}

// failed records err and emits fallback as the notice
func (s *Store) failed(fallback string, err error) {
	msg := err.Error()
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}
	if msg == "" {
		msg = fallback
	}

	s.mu.Lock()
	s.err = msg
	s.loading = false
	s.mu.Unlock()

	s.logger.Debug("request failed", zap.String("notice", fallback), zap.Error(err))
	s.notify(Notice{Level: NoticeError, Message: fallback})
}

func (s *Store) succeeded(msg string) {
	s.notify(Notice{Level: NoticeSuccess, Message: msg})
}
