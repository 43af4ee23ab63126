package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskboard/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTask(title string, created time.Time) models.Task {
	return models.NewTask(models.Fields{
		Title:       title,
		Description: "desc " + title,
		DueDate:     created.Add(24 * time.Hour),
	}, uuid.NewString(), created)
}

func TestDB_InsertAndFind(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	task := newTask("Write report", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, database.InsertOrReplace(ctx, task))

	found, ok, err := database.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, task.ID, found.ID)
	assert.Equal(t, task.Title, found.Title)
	assert.Equal(t, task.Description, found.Description)
	assert.Equal(t, models.StatusPending, found.Status)
	assert.True(t, task.DueDate.Equal(found.DueDate))
	assert.True(t, task.CreatedAt.Equal(found.CreatedAt))
	assert.True(t, task.UpdatedAt.Equal(found.UpdatedAt))
}

func TestDB_FindByID_Missing(t *testing.T) {
	database := setupTestDB(t)

	_, ok, err := database.FindByID(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDB_InsertOrReplace_Replaces(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	task := newTask("Draft", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, database.InsertOrReplace(ctx, task))

	task.Title = "Final"
	task.Status = models.StatusCompleted
	task.Touch(task.UpdatedAt.Add(time.Minute))
	require.NoError(t, database.InsertOrReplace(ctx, task))

	all, err := database.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Final", all[0].Title)
	assert.Equal(t, models.StatusCompleted, all[0].Status)
}

func TestDB_FindAll_NewestFirst(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		tasks, err := database.FindAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	// Sub-second offsets exercise the fixed-width timestamp layout
	first := newTask("first", base.Add(100*time.Millisecond))
	second := newTask("second", base.Add(120*time.Millisecond))
	third := newTask("third", base.Add(time.Second))
	for _, task := range []models.Task{second, third, first} {
		require.NoError(t, database.InsertOrReplace(ctx, task))
	}

	tasks, err := database.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "second", tasks[1].Title)
	assert.Equal(t, "first", tasks[2].Title)
}

func TestDB_DeleteByID(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	task := newTask("Delete me", time.Now())
	require.NoError(t, database.InsertOrReplace(ctx, task))

	deleted, err := database.DeleteByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = database.DeleteByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete should find nothing")

	_, ok, err := database.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDB_NullDescription(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	id := uuid.NewString()
	ts := "2025-03-01T09:00:00.000000000Z"
	_, err := database.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, due_date, created_at, updated_at)
		VALUES (?, 'Legacy', NULL, ?, ?, ?)
	`, id, ts, ts, ts)
	require.NoError(t, err)

	task, ok, err := database.FindByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", task.Description)
	assert.Equal(t, models.StatusPending, task.Status, "column default applies")
}

func TestClassify_Constraint(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx, `
		INSERT INTO tasks (id, title, due_date, created_at, updated_at)
		VALUES ('x', NULL, 'd', 'c', 'u')
	`)
	require.Error(t, err)

	err = classify(err)
	assert.True(t, errors.Is(err, ErrConstraint))
}

func TestClassify_PassesThroughOtherErrors(t *testing.T) {
	other := errors.New("disk on fire")
	assert.Equal(t, other, classify(other))
	assert.Nil(t, classify(nil))
	assert.Nil(t, classifyPg(nil))
}

func TestDefaultPath_UsesXDGDataHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "taskboard", "tasks.db"), path)
	assert.DirExists(t, filepath.Join(dir, "taskboard"))
}
