package state

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskboard/internal/client"
	"github.com/tgienger/taskboard/internal/models"
)

var base = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func mockTasks() []models.Task {
	return []models.Task{
		{
			ID:          "1",
			Title:       "Task 1",
			Description: "Description 1",
			Status:      models.StatusPending,
			DueDate:     time.Date(2024, 12, 31, 10, 0, 0, 0, time.UTC),
			CreatedAt:   base,
			UpdatedAt:   base,
		},
		{
			ID:          "2",
			Title:       "Task 2",
			Description: "Description 2",
			Status:      models.StatusCompleted,
			DueDate:     time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC),
			CreatedAt:   base.Add(24 * time.Hour),
			UpdatedAt:   base.Add(24 * time.Hour),
		},
	}
}

// fakeAPI returns canned results and counts calls
type fakeAPI struct {
	mu    sync.Mutex
	list  []models.Task
	task  models.Task
	err   error
	calls map[string]int
}

func (f *fakeAPI) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	return f.err
}

func (f *fakeAPI) List(context.Context) ([]models.Task, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	return f.list, nil
}

func (f *fakeAPI) Get(context.Context, string) (models.Task, error) {
	return f.task, f.record("get")
}

func (f *fakeAPI) Create(context.Context, models.TaskInput) (models.Task, error) {
	return f.task, f.record("create")
}

func (f *fakeAPI) Update(context.Context, string, models.TaskInput) (models.Task, error) {
	return f.task, f.record("update")
}

func (f *fakeAPI) UpdateStatus(context.Context, string, models.Status) (models.Task, error) {
	return f.task, f.record("status")
}

func (f *fakeAPI) Delete(context.Context, string) (string, error) {
	return "Task deleted successfully", f.record("delete")
}

// notices collects every notice emitted by a store
type notices struct {
	mu   sync.Mutex
	list []Notice
}

func (n *notices) add(x Notice) {
	n.mu.Lock()
	n.list = append(n.list, x)
	n.mu.Unlock()
}

func (n *notices) last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.list) == 0 {
		return Notice{}
	}
	return n.list[len(n.list)-1]
}

func setupStore(api *fakeAPI) (*Store, *notices) {
	n := &notices{}
	return New(api, WithNotifier(n.add)), n
}

func seeded(t *testing.T, api *fakeAPI) (*Store, *notices) {
	t.Helper()
	api.list = mockTasks()
	s, n := setupStore(api)
	require.NoError(t, s.FetchTasks(context.Background()))
	return s, n
}

func TestStore_InitialState(t *testing.T) {
	s, _ := setupStore(&fakeAPI{})

	st := s.Snapshot()
	assert.Empty(t, st.Tasks)
	assert.NotNil(t, st.Tasks)
	assert.Nil(t, st.CurrentTask)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, Filters{Status: "all", SortBy: "dueDate", SortOrder: "asc"}, st.Filters)
}

func TestStore_FetchTasks(t *testing.T) {
	api := &fakeAPI{list: mockTasks()}
	s, _ := setupStore(api)

	require.NoError(t, s.FetchTasks(context.Background()))

	st := s.Snapshot()
	assert.Equal(t, mockTasks(), st.Tasks)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestStore_FetchTasks_Error(t *testing.T) {
	api := &fakeAPI{err: errors.New("Failed to fetch tasks")}
	s, n := setupStore(api)

	err := s.FetchTasks(context.Background())
	require.Error(t, err)

	st := s.Snapshot()
	assert.Empty(t, st.Tasks)
	assert.False(t, st.Loading)
	assert.Equal(t, "Failed to fetch tasks", st.Error)
	assert.Equal(t, Notice{Level: NoticeError, Message: "Failed to fetch tasks"}, n.last())
}

func TestStore_ErrorUsesAPIMessage(t *testing.T) {
	api := &fakeAPI{err: &client.APIError{Status: http.StatusNotFound, Message: "Task not found"}}
	s, n := setupStore(api)

	_, err := s.FetchTask(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, client.StatusOf(err))
	assert.Equal(t, "Task not found", s.Snapshot().Error)
	assert.Equal(t, "Failed to fetch task", n.last().Message)
}

func TestStore_FetchTask(t *testing.T) {
	api := &fakeAPI{task: mockTasks()[0]}
	s, _ := setupStore(api)

	got, err := s.FetchTask(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	st := s.Snapshot()
	require.NotNil(t, st.CurrentTask)
	assert.Equal(t, "Task 1", st.CurrentTask.Title)

	s.ClearCurrentTask()
	assert.Nil(t, s.Snapshot().CurrentTask)
}

func TestStore_CreateTask_Prepends(t *testing.T) {
	api := &fakeAPI{}
	s, n := seeded(t, api)

	created := models.Task{ID: "3", Title: "Task 3", Status: models.StatusPending, DueDate: base, CreatedAt: base, UpdatedAt: base}
	api.task = created

	got, err := s.CreateTask(context.Background(), Form{Title: "Task 3", DueDate: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, created, got)

	st := s.Snapshot()
	require.Len(t, st.Tasks, 3)
	assert.Equal(t, "3", st.Tasks[0].ID)
	assert.Equal(t, 1, api.calls["list"], "writes never refetch the list")
	assert.Equal(t, Notice{Level: NoticeSuccess, Message: "Task created successfully"}, n.last())
}

func TestStore_UpdateTask_ReplacesInPlace(t *testing.T) {
	api := &fakeAPI{}
	s, n := seeded(t, api)

	api.task = mockTasks()[1]
	_, err := s.FetchTask(context.Background(), "2")
	require.NoError(t, err)

	updated := mockTasks()[1]
	updated.Title = "Task 2 edited"
	api.task = updated

	_, err = s.UpdateTask(context.Background(), "2", Form{Title: "Task 2 edited", DueDate: "2024-12-30"})
	require.NoError(t, err)

	st := s.Snapshot()
	require.Len(t, st.Tasks, 2)
	assert.Equal(t, "Task 1", st.Tasks[0].Title)
	assert.Equal(t, "Task 2 edited", st.Tasks[1].Title)
	require.NotNil(t, st.CurrentTask)
	assert.Equal(t, "Task 2 edited", st.CurrentTask.Title)
	assert.Equal(t, "Task updated successfully", n.last().Message)
}

func TestStore_UpdateTaskStatus(t *testing.T) {
	api := &fakeAPI{}
	s, n := seeded(t, api)

	done := mockTasks()[0]
	done.Status = models.StatusCompleted
	api.task = done

	_, err := s.UpdateTaskStatus(context.Background(), "1", models.StatusCompleted)
	require.NoError(t, err)

	got, ok := s.Task("1")
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "Task marked as completed", n.last().Message)
}

func TestStore_DeleteTask(t *testing.T) {
	api := &fakeAPI{}
	s, n := seeded(t, api)

	api.task = mockTasks()[0]
	_, err := s.FetchTask(context.Background(), "1")
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(context.Background(), "1"))

	st := s.Snapshot()
	require.Len(t, st.Tasks, 1)
	assert.Equal(t, "2", st.Tasks[0].ID)
	assert.Nil(t, st.CurrentTask)
	assert.Equal(t, "Task deleted successfully", n.last().Message)
}

func TestStore_FailedWritesLeaveCacheUnchanged(t *testing.T) {
	ops := []struct {
		name   string
		notice string
		run    func(s *Store) error
	}{
		{"create", "Failed to create task", func(s *Store) error {
			_, err := s.CreateTask(context.Background(), Form{Title: "x", DueDate: "2024-01-01"})
			return err
		}},
		{"update", "Failed to update task", func(s *Store) error {
			_, err := s.UpdateTask(context.Background(), "1", Form{Title: "x", DueDate: "2024-01-01"})
			return err
		}},
		{"status", "Failed to update task status", func(s *Store) error {
			_, err := s.UpdateTaskStatus(context.Background(), "1", models.StatusCompleted)
			return err
		}},
		{"delete", "Failed to delete task", func(s *Store) error {
			return s.DeleteTask(context.Background(), "1")
		}},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			api := &fakeAPI{}
			s, n := seeded(t, api)
			before := s.Snapshot().Tasks

			api.err = &client.APIError{Message: client.NetworkErrorMessage}
			require.Error(t, op.run(s))

			st := s.Snapshot()
			assert.Equal(t, before, st.Tasks)
			assert.Equal(t, client.NetworkErrorMessage, st.Error)
			assert.False(t, st.Loading)
			assert.Equal(t, Notice{Level: NoticeError, Message: op.notice}, n.last())
		})
	}
}

func TestStore_ClearErrorAndReset(t *testing.T) {
	api := &fakeAPI{err: errors.New("boom")}
	s, _ := setupStore(api)

	_ = s.FetchTasks(context.Background())
	assert.Equal(t, "boom", s.Snapshot().Error)

	s.ClearError()
	assert.Empty(t, s.Snapshot().Error)

	api.err = nil
	api.list = mockTasks()
	require.NoError(t, s.FetchTasks(context.Background()))
	s.SetFilters(Filters{Status: "completed", SortOrder: "desc"})

	s.Reset()
	st := s.Snapshot()
	assert.Empty(t, st.Tasks)
	assert.Equal(t, DefaultFilters(), st.Filters)
}

func TestStore_SetFiltersMerges(t *testing.T) {
	s, _ := setupStore(&fakeAPI{})

	s.SetFilters(Filters{SortBy: SortTitle})
	assert.Equal(t, Filters{Status: StatusAll, SortBy: SortTitle, SortOrder: OrderAsc}, s.Filters())

	s.SetFilters(Filters{Status: "pending", SortOrder: OrderDesc})
	assert.Equal(t, Filters{Status: "pending", SortBy: SortTitle, SortOrder: OrderDesc}, s.Filters())
}

func TestStore_FilteredTasks(t *testing.T) {
	s, _ := seeded(t, &fakeAPI{})

	// default dueDate ascending puts Task 2 (Dec 30) first
	list := s.FilteredTasks()
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].ID)

	s.SetFilters(Filters{Status: "completed"})
	list = s.FilteredTasks()
	require.Len(t, list, 1)
	assert.Equal(t, "Task 2", list[0].Title)
}

func TestStore_Stats(t *testing.T) {
	api := &fakeAPI{}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	api.list = []models.Task{
		{ID: "a", Status: models.StatusPending, DueDate: now.Add(-24 * time.Hour)},
		{ID: "b", Status: models.StatusInProgress, DueDate: now.Add(24 * time.Hour)},
		{ID: "c", Status: models.StatusCompleted, DueDate: now.Add(-24 * time.Hour)},
	}
	s := New(api, WithClock(func() time.Time { return now }))
	require.NoError(t, s.FetchTasks(context.Background()))

	assert.Equal(t, models.Stats{Total: 3, Pending: 1, InProgress: 1, Completed: 1, Overdue: 1}, s.Stats())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s, _ := seeded(t, &fakeAPI{})

	st := s.Snapshot()
	st.Tasks[0].Title = "mutated"

	got, ok := s.Task("1")
	require.True(t, ok)
	assert.Equal(t, "Task 1", got.Title)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	api := &fakeAPI{}
	s, _ := seeded(t, api)
	api.task = mockTasks()[0]

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.UpdateTaskStatus(context.Background(), "1", models.StatusPending)
			_ = s.FilteredTasks()
			_ = s.Stats()
		}()
	}
	wg.Wait()

	assert.Len(t, s.Snapshot().Tasks, 2)
}
