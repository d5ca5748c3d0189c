package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/ultralist/internal/models"
)

var testStart = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestCreateTask_ListedWithEmptyCollections(t *testing.T) {
	clock, _ := fixedClock(testStart)
	db := newTestDB(t, WithClock(clock))
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{Title: "Water plants"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.Task.ID)
	assert.Equal(t, models.PriorityMedium, created.Task.Priority)

	tasks, err := db.ListTasksWithDetails(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	got := tasks[0]
	assert.Equal(t, created.Task.ID, got.Task.ID)
	assert.NotNil(t, got.Subtasks)
	assert.Empty(t, got.Subtasks)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
	assert.True(t, got.Task.CreatedAt.Equal(got.Task.UpdatedAt))
	assert.True(t, got.Task.CreatedAt.Equal(testStart))
	assert.Nil(t, got.Task.DueDate)
	assert.Nil(t, got.Task.ProjectID)
}

func TestCreateTask_PersistsSubtasksAndTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{
		Title:       "Plan trip",
		Description: "Summer",
		DueDate:     ptr("2026-07-01"),
		Priority:    models.PriorityHigh,
		ProjectID:   ptr(int64(2)),
		Subtasks:    []string{"Book flights", "Book hotel", "Pack"},
		Tags:        []string{"travel", "family", "travel"},
	})
	require.NoError(t, err)

	require.Len(t, created.Subtasks, 3)
	assert.Equal(t, "Book flights", created.Subtasks[0].Text)
	assert.Equal(t, "Pack", created.Subtasks[2].Text)
	for _, s := range created.Subtasks {
		assert.False(t, s.Completed)
		assert.Equal(t, created.Task.ID, s.TaskID)
	}
	assert.Equal(t, []string{"travel", "family"}, created.Tags)
	require.NotNil(t, created.Task.DueDate)
	assert.Equal(t, "2026-07-01", *created.Task.DueDate)
	require.NotNil(t, created.Task.ProjectID)
	assert.Equal(t, int64(2), *created.Task.ProjectID)
}

func TestListTasksWithDetails_NewestFirst(t *testing.T) {
	clock, advance := fixedClock(testStart)
	db := newTestDB(t, WithClock(clock))
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		created, err := db.CreateTask(ctx, TaskInput{Title: title})
		require.NoError(t, err)
		ids = append(ids, created.Task.ID)
		advance(time.Minute)
	}

	tasks, err := db.ListTasksWithDetails(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, ids[2], tasks[0].Task.ID)
	assert.Equal(t, ids[1], tasks[1].Task.ID)
	assert.Equal(t, ids[0], tasks[2].Task.ID)
}

func TestSaveTask_WritesFieldsAsGiven(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	task := models.Task{
		ID:        "task-1",
		Title:     "Anything goes",
		DueDate:   ptr("2026-02-31"),
		Priority:  "whenever",
		CreatedAt: testStart.Add(-48 * time.Hour),
		UpdatedAt: testStart,
	}
	require.NoError(t, db.SaveTask(ctx, task))

	got, err := db.GetTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.Priority("whenever"), got.Task.Priority)
	assert.Equal(t, "2026-02-31", *got.Task.DueDate)
	assert.True(t, got.Task.CreatedAt.Equal(task.CreatedAt))
	assert.True(t, got.Task.UpdatedAt.Equal(task.UpdatedAt))
}

func TestSaveTask_UpsertKeepsSubtasksAndTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{Title: "Draft", Subtasks: []string{"outline"}, Tags: []string{"writing"}})
	require.NoError(t, err)

	task := created.Task
	task.Title = "Final"
	require.NoError(t, db.SaveTask(ctx, task))

	got, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Task.Title)
	assert.Len(t, got.Subtasks, 1)
	assert.Equal(t, []string{"writing"}, got.Tags)

	tasks, err := db.ListTasksWithDetails(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSaveTask_RejectsUnknownProject(t *testing.T) {
	db := newTestDB(t)

	err := db.SaveTask(context.Background(), models.Task{
		ID:        "orphan",
		Title:     "Orphan",
		Priority:  models.PriorityLow,
		ProjectID: ptr(int64(999)),
		CreatedAt: testStart,
		UpdatedAt: testStart,
	})
	assert.Error(t, err)
}

func TestSetTaskCompleted_OnlyChangesCompletedAndUpdatedAt(t *testing.T) {
	clock, advance := fixedClock(testStart)
	db := newTestDB(t, WithClock(clock))
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{
		Title:     "Call bank",
		DueDate:   ptr("2026-10-20"),
		Priority:  models.PriorityHigh,
		ProjectID: ptr(int64(1)),
		Tags:      []string{"money"},
	})
	require.NoError(t, err)

	advance(time.Hour)
	require.NoError(t, db.SetTaskCompleted(ctx, created.Task.ID, true))

	got, err := db.GetTask(ctx, created.Task.ID)
	require.NoError(t, err)
	assert.True(t, got.Task.Completed)
	assert.True(t, got.Task.UpdatedAt.Equal(testStart.Add(time.Hour)))

	want := created.Task
	assert.Equal(t, want.Title, got.Task.Title)
	assert.Equal(t, want.Description, got.Task.Description)
	assert.Equal(t, want.DueDate, got.Task.DueDate)
	assert.Equal(t, want.Priority, got.Task.Priority)
	assert.Equal(t, want.ProjectID, got.Task.ProjectID)
	assert.True(t, want.CreatedAt.Equal(got.Task.CreatedAt))
	assert.Equal(t, created.Tags, got.Tags)
}

func TestSetTaskCompleted_MissingTask(t *testing.T) {
	db := newTestDB(t)
	err := db.SetTaskCompleted(context.Background(), "nope", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask_CascadesToSubtasksAndTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{Title: "Temp", Subtasks: []string{"a", "b"}, Tags: []string{"x", "y"}})
	require.NoError(t, err)
	keep, err := db.CreateTask(ctx, TaskInput{Title: "Keep", Tags: []string{"y"}})
	require.NoError(t, err)

	require.NoError(t, db.DeleteTask(ctx, created.Task.ID))

	subtasks, err := db.ListSubtasks(ctx, created.Task.ID)
	require.NoError(t, err)
	assert.Empty(t, subtasks)

	tags, err := db.ListTaskTags(ctx, created.Task.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	all, err := db.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, all)

	tasks, err := db.ListTasksWithDetails(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, keep.Task.ID, tasks[0].Task.ID)

	assert.NoError(t, db.DeleteTask(ctx, created.Task.ID), "deleting twice is a no-op")
}

func TestReplaceTaskTags_FullReplaceAndIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{Title: "Tagged", Tags: []string{"old"}})
	require.NoError(t, err)
	id := created.Task.ID

	input := []string{"beta", "alpha", "beta"}
	require.NoError(t, db.ReplaceTaskTags(ctx, id, input))
	first, err := db.ListTaskTags(ctx, id)
	require.NoError(t, err)

	require.NoError(t, db.ReplaceTaskTags(ctx, id, input))
	second, err := db.ListTaskTags(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, []string{"beta", "alpha"}, first)
	assert.Equal(t, first, second)

	require.NoError(t, db.ReplaceTaskTags(ctx, id, nil))
	empty, err := db.ListTaskTags(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReplaceTaskTags_UnknownTask(t *testing.T) {
	db := newTestDB(t)
	assert.Error(t, db.ReplaceTaskTags(context.Background(), "missing", []string{"x"}))
}

func TestListTags_DistinctAndSorted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTask(ctx, TaskInput{Title: "one", Tags: []string{"work", "home"}})
	require.NoError(t, err)
	_, err = db.CreateTask(ctx, TaskInput{Title: "two", Tags: []string{"errands", "work"}})
	require.NoError(t, err)

	tags, err := db.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"errands", "home", "work"}, tags)
}

func TestUpdateTask_MergesGivenFields(t *testing.T) {
	clock, advance := fixedClock(testStart)
	db := newTestDB(t, WithClock(clock))
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{
		Title:       "Write report",
		Description: "Q3 numbers",
		DueDate:     ptr("2026-10-30"),
		Subtasks:    []string{"collect data"},
		Tags:        []string{"work"},
	})
	require.NoError(t, err)

	advance(time.Minute)
	high := models.PriorityHigh
	updated, err := db.UpdateTask(ctx, created.Task.ID, TaskUpdate{
		Title:    ptr("Write Q3 report"),
		Priority: &high,
	})
	require.NoError(t, err)

	assert.Equal(t, "Write Q3 report", updated.Task.Title)
	assert.Equal(t, "Q3 numbers", updated.Task.Description)
	assert.Equal(t, models.PriorityHigh, updated.Task.Priority)
	assert.Equal(t, "2026-10-30", *updated.Task.DueDate)
	assert.Equal(t, []string{"work"}, updated.Tags)
	require.Len(t, updated.Subtasks, 1)
	assert.Equal(t, created.Subtasks[0].ID, updated.Subtasks[0].ID)
	assert.True(t, updated.Task.UpdatedAt.Equal(testStart.Add(time.Minute)))
	assert.True(t, updated.Task.CreatedAt.Equal(testStart))
}

func TestUpdateTask_ReplacesCollectionsAndClears(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{
		Title:     "Move",
		DueDate:   ptr("2026-12-01"),
		ProjectID: ptr(int64(2)),
		Subtasks:  []string{"boxes"},
		Tags:      []string{"home"},
	})
	require.NoError(t, err)

	updated, err := db.UpdateTask(ctx, created.Task.ID, TaskUpdate{
		ClearDueDate: true,
		ClearProject: true,
		Completed:    ptr(true),
		Subtasks:     []string{"van", "keys"},
		Tags:         []string{},
	})
	require.NoError(t, err)

	assert.Nil(t, updated.Task.DueDate)
	assert.Nil(t, updated.Task.ProjectID)
	assert.True(t, updated.Task.Completed)
	require.Len(t, updated.Subtasks, 2)
	assert.Equal(t, "van", updated.Subtasks[0].Text)
	assert.NotEqual(t, created.Subtasks[0].ID, updated.Subtasks[0].ID)
	assert.Empty(t, updated.Tags)
}

func TestUpdateTask_MissingTask(t *testing.T) {
	db := newTestDB(t)
	_, err := db.UpdateTask(context.Background(), "ghost", TaskUpdate{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTask_Missing(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetTask(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubtasks_SaveToggleDelete(t *testing.T) {
	clock, advance := fixedClock(testStart)
	db := newTestDB(t, WithClock(clock))
	ctx := context.Background()

	created, err := db.CreateTask(ctx, TaskInput{Title: "Groceries"})
	require.NoError(t, err)
	taskID := created.Task.ID

	require.NoError(t, db.SaveSubtask(ctx, models.Subtask{ID: "s1", TaskID: taskID, Text: "milk"}))
	require.NoError(t, db.SaveSubtask(ctx, models.Subtask{ID: "s2", TaskID: taskID, Text: "eggs"}))
	require.NoError(t, db.SaveSubtask(ctx, models.Subtask{ID: "s1", TaskID: taskID, Text: "oat milk"}))

	advance(time.Hour)
	require.NoError(t, db.SetSubtaskCompleted(ctx, "s2", true))
	assert.ErrorIs(t, db.SetSubtaskCompleted(ctx, "s9", true), ErrNotFound)

	subtasks, err := db.ListSubtasks(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, subtasks, 2)
	assert.Equal(t, "oat milk", subtasks[0].Text)
	assert.True(t, subtasks[1].Completed)

	got, err := db.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.True(t, got.Task.UpdatedAt.Equal(testStart), "subtask changes leave the task timestamp alone")

	require.NoError(t, db.DeleteSubtask(ctx, "s1"))
	require.NoError(t, db.DeleteSubtask(ctx, "s1"))
	subtasks, err = db.ListSubtasks(ctx, taskID)
	require.NoError(t, err)
	assert.Len(t, subtasks, 1)
}

func TestSaveSubtask_UnknownTask(t *testing.T) {
	db := newTestDB(t)
	err := db.SaveSubtask(context.Background(), models.Subtask{ID: "s1", TaskID: "missing", Text: "x"})
	assert.Error(t, err)
}
