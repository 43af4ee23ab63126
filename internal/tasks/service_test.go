package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/models"
)

// stepClock returns a clock that advances by step on every call
func stepClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func setupService(t *testing.T, opts ...Option) (*Service, *db.DB) {
	t.Helper()

	database, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewService(database, opts...), database
}

func fields(title string) models.Fields {
	return models.Fields{
		Title:       title,
		Description: "about " + title,
		DueDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestService_Create(t *testing.T) {
	svc, database := setupService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, fields("Plan sprint"))
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	stored, ok, err := database.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task.Title, stored.Title)
}

func TestService_Create_UniqueIDs(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		task, err := svc.Create(ctx, fields(fmt.Sprintf("task %d", i)))
		require.NoError(t, err)
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestService_Replace(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, WithClock(stepClock(start, time.Second)))
	ctx := context.Background()

	created, err := svc.Create(ctx, models.Fields{
		Title:       "Old",
		Description: "old",
		Status:      models.StatusInProgress,
		DueDate:     start,
	})
	require.NoError(t, err)

	t.Run("keeps status when omitted", func(t *testing.T) {
		updated, ok, err := svc.Replace(ctx, created.ID, models.Fields{Title: "New", DueDate: start.Add(time.Hour)})
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, "", updated.Description)
		assert.Equal(t, models.StatusInProgress, updated.Status)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("replaying is idempotent apart from updatedAt", func(t *testing.T) {
		f := models.Fields{Title: "Same", Description: "d", Status: models.StatusCompleted, DueDate: start}

		first, _, err := svc.Replace(ctx, created.ID, f)
		require.NoError(t, err)
		second, _, err := svc.Replace(ctx, created.ID, f)
		require.NoError(t, err)

		assert.Equal(t, first.Title, second.Title)
		assert.Equal(t, first.Description, second.Description)
		assert.Equal(t, first.Status, second.Status)
		assert.True(t, first.DueDate.Equal(second.DueDate))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	})

	t.Run("missing task", func(t *testing.T) {
		_, ok, err := svc.Replace(ctx, "123e4567-e89b-12d3-a456-426614174000", fields("x"))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestService_SetStatus(t *testing.T) {
	frozen := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	created, err := svc.Create(ctx, fields("Review PR"))
	require.NoError(t, err)

	updated, ok, err := svc.SetStatus(ctx, created.ID, models.StatusCompleted)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, models.StatusCompleted, updated.Status)
	assert.Equal(t, created.Title, updated.Title)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "frozen clock must still advance updatedAt")

	got, ok, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt))
}

func TestService_Delete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, fields("Temp"))
	require.NoError(t, err)

	ok, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_List(t *testing.T) {
	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc, _ := setupService(t, WithClock(stepClock(start, time.Millisecond)))
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, fields(title))
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].Title)
	assert.Equal(t, "a", list[2].Title)
}

type failingStore struct{ err error }

func (f failingStore) InsertOrReplace(context.Context, models.Task) error {
	return f.err
}

func (f failingStore) FindByID(context.Context, string) (models.Task, bool, error) {
	return models.Task{}, false, f.err
}

func (f failingStore) FindAll(context.Context) ([]models.Task, error) {
	return nil, f.err
}

func (f failingStore) DeleteByID(context.Context, string) (bool, error) {
	return false, f.err
}

func TestService_PropagatesStoreErrors(t *testing.T) {
	svc := NewService(failingStore{err: db.ErrConstraint})
	ctx := context.Background()

	_, err := svc.Create(ctx, fields("x"))
	assert.True(t, errors.Is(err, db.ErrConstraint))

	_, err = svc.List(ctx)
	assert.True(t, errors.Is(err, db.ErrConstraint))

	_, _, err = svc.SetStatus(ctx, "id", models.StatusCompleted)
	assert.True(t, errors.Is(err, db.ErrConstraint))

	_, err = svc.Delete(ctx, "id")
	assert.True(t, errors.Is(err, db.ErrConstraint))
}

func TestService_WithIDGenerator(t *testing.T) {
	svc, _ := setupService(t, WithIDGenerator(func() string { return "fixed-id" }))

	task, err := svc.Create(context.Background(), fields("x"))
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", task.ID)
}
