package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tgienger/taskboard/internal/models"
)

// Store persists task rows. Implemented by db.DB and db.Postgres.
type Store interface {
	InsertOrReplace(ctx context.Context, t models.Task) error
	FindByID(ctx context.Context, id string) (models.Task, bool, error)
	FindAll(ctx context.Context) ([]models.Task, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// Service applies task lifecycle rules on top of a Store.
// Concurrent replaces of the same task are last-write-wins.
type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides task id generation
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a task service
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all tasks in store order (newest first)
func (s *Service) List(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Get returns the task with id; ok is false when it does not exist
func (s *Service) Get(ctx context.Context, id string) (models.Task, bool, error) {
	t, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Task{}, false, fmt.Errorf("find task %s: %w", id, err)
	}
	return t, ok, nil
}

// Create builds and inserts a new task from validated fields
func (s *Service) Create(ctx context.Context, f models.Fields) (models.Task, error) {
	t := models.NewTask(f, s.newID(), s.now())
	if err := s.store.InsertOrReplace(ctx, t); err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// Replace overwrites title, description, status and due date of an existing task.
// An empty status keeps the current one.
func (s *Service) Replace(ctx context.Context, id string, f models.Fields) (models.Task, bool, error) {
	return s.mutate(ctx, id, func(t *models.Task) {
		t.Title = f.Title
		t.Description = f.Description
		if f.Status != "" {
			t.Status = f.Status
		}
		t.DueDate = f.DueDate
	})
}

// SetStatus changes only the status of an existing task
func (s *Service) SetStatus(ctx context.Context, id string, status models.Status) (models.Task, bool, error) {
	return s.mutate(ctx, id, func(t *models.Task) {
		t.Status = status
	})
}

// Delete removes a task; ok is false when nothing was removed
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}
	return ok, nil
}

// mutate loads, changes, touches and rewrites the full row
func (s *Service) mutate(ctx context.Context, id string, change func(*models.Task)) (models.Task, bool, error) {
	t, ok, err := s.Get(ctx, id)
	if err != nil || !ok {
		return models.Task{}, ok, err
	}

	change(&t)
	t.Touch(s.now())

	if err := s.store.InsertOrReplace(ctx, t); err != nil {
		return models.Task{}, false, fmt.Errorf("save task %s: %w", id, err)
	}
	return t, true, nil
}
