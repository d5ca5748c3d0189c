package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/ultralist/internal/config"
	"github.com/tgienger/ultralist/internal/db"
	"github.com/tgienger/ultralist/internal/models"
	"github.com/tgienger/ultralist/internal/parser"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	dir    string
	dbPath string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{dir: dir, dbPath: filepath.Join(dir, "test.db")}
}

// run executes one CLI invocation against the env's config dir and database
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{now: func() time.Time { return testNow }}
	full := append([]string{"--config-dir", e.dir, "--db", e.dbPath}, args...)
	err := execute(context.Background(), a, "test", full, &out, &errOut)
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "ultralist %v", args)
	return out
}

func (e *testEnv) store(t *testing.T) *db.DB {
	t.Helper()
	s, err := db.Open(e.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func (e *testEnv) tasks(t *testing.T) []models.TaskWithDetails {
	t.Helper()
	tasks, err := e.store(t).ListTasksWithDetails(context.Background())
	require.NoError(t, err)
	return tasks
}

func TestAdd_ParsesAndPersists(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "project", "create", "Finance")

	out := e.mustRun(t, "add", "Submit report urgent tomorrow #work for finance project")
	assert.Contains(t, out, "Created task Submit report")

	tasks := e.tasks(t)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, "Submit report", task.Task.Title)
	assert.Equal(t, models.PriorityHigh, task.Task.Priority)
	require.NotNil(t, task.Task.DueDate)
	assert.Equal(t, "2026-10-20", *task.Task.DueDate)
	assert.Equal(t, []string{"work"}, task.Tags)

	finance, err := e.store(t).FindProjectByName(context.Background(), "Finance")
	require.NoError(t, err)
	require.NotNil(t, task.Task.ProjectID)
	assert.Equal(t, finance.ID, *task.Task.ProjectID)
}

func TestAdd_UnknownProjectHintLeavesTaskUnassigned(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "add", "Plan trip for holiday project")

	tasks := e.tasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Plan trip", tasks[0].Task.Title)
	assert.Nil(t, tasks[0].Task.ProjectID)
}

func TestAdd_DryRunDoesNotPersist(t *testing.T) {
	e := setupEnv(t)

	out := e.mustRun(t, "add", "--dry-run", "Call mom at 5pm")
	assert.Contains(t, out, "Call mom")
	assert.Contains(t, out, "Due time: at 5pm")
	assert.Empty(t, e.tasks(t))
}

func TestAdd_FallsBackToDefaultProject(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "project", "set-default", "personal")

	cfg, err := config.Load(e.dir)
	require.NoError(t, err)
	assert.Equal(t, "Personal", cfg.DefaultProject)

	e.mustRun(t, "add", "buy milk someday")

	tasks := e.tasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.PriorityLow, tasks[0].Task.Priority)
	require.NotNil(t, tasks[0].Task.ProjectID)
	assert.Equal(t, int64(2), *tasks[0].Task.ProjectID)
}

func TestParse_PrintsDraftJSON(t *testing.T) {
	e := setupEnv(t)
	out := e.mustRun(t, "parse", "urgent", "fix", "login", "today", "#auth")

	var d parser.Draft
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "fix login", d.Title)
	assert.Equal(t, models.PriorityHigh, d.Priority)
	assert.Equal(t, "2026-10-19", d.DueDate)
	assert.Equal(t, []string{"auth"}, d.Tags)
}

func TestParse_DoesNotOpenStore(t *testing.T) {
	e := setupEnv(t)
	out := e.mustRun(t, "--driver", "bogus", "parse", "water", "plants", "#garden")

	assert.Contains(t, out, `"garden"`)
	assert.NoFileExists(t, e.dbPath)
}

func TestVerbose_ReportsStoreLifecycle(t *testing.T) {
	e := setupEnv(t)
	var out, errOut bytes.Buffer
	a := &app{now: func() time.Time { return testNow }}
	args := []string{"--config-dir", e.dir, "--db", e.dbPath, "--verbose", "tag", "list"}
	require.NoError(t, execute(context.Background(), a, "test", args, &out, &errOut))

	assert.Contains(t, errOut.String(), "opened "+e.dbPath)
	assert.Contains(t, errOut.String(), "closed store")
	assert.Nil(t, a.store)
	assert.NoError(t, a.close())
}

func TestTaskCreate_WithFlags(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "task", "create", "Write", "docs",
		"--priority", "LOW", "--due", "2026-10-25", "--project", "Work",
		"--tag", "#Docs,writing", "--subtask", "outline", "--subtask", "draft, then edit",
		"-d", "for the release")

	tasks := e.tasks(t)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, "Write docs", task.Task.Title)
	assert.Equal(t, "for the release", task.Task.Description)
	assert.Equal(t, models.PriorityLow, task.Task.Priority)
	assert.Equal(t, "2026-10-25", *task.Task.DueDate)
	assert.Equal(t, int64(1), *task.Task.ProjectID)
	assert.Equal(t, []string{"docs", "writing"}, task.Tags)
	require.Len(t, task.Subtasks, 2)
	assert.Equal(t, "draft, then edit", task.Subtasks[1].Text)
}

func TestTaskCreate_RejectsBadInput(t *testing.T) {
	e := setupEnv(t)

	_, err := e.run(t, "task", "create", "x", "--priority", "extreme")
	assert.ErrorContains(t, err, "invalid priority")

	_, err = e.run(t, "task", "create", "x", "--due", "tomorrow")
	assert.ErrorContains(t, err, "invalid due date")

	_, err = e.run(t, "task", "create", "x", "--project", "Nope")
	assert.ErrorContains(t, err, "project Nope not found")

	assert.Empty(t, e.tasks(t))
}

func TestTaskLifecycle(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "task", "create", "Pay rent", "--subtask", "transfer", "--subtask", "file receipt")
	id := e.tasks(t)[0].Task.ID
	prefix := id[:8]

	e.mustRun(t, "task", "done", prefix)
	assert.True(t, e.tasks(t)[0].Task.Completed)

	e.mustRun(t, "task", "undone", id)
	assert.False(t, e.tasks(t)[0].Task.Completed)

	e.mustRun(t, "task", "edit", prefix, "--title", "Pay rent early", "--priority", "high", "--due", "2026-10-28")
	task := e.tasks(t)[0]
	assert.Equal(t, "Pay rent early", task.Task.Title)
	assert.Equal(t, models.PriorityHigh, task.Task.Priority)
	assert.Equal(t, "2026-10-28", *task.Task.DueDate)
	assert.Len(t, task.Subtasks, 2)

	e.mustRun(t, "task", "edit", prefix, "--clear-due")
	assert.Nil(t, e.tasks(t)[0].Task.DueDate)

	e.mustRun(t, "subtask", "done", prefix, "2")
	e.mustRun(t, "subtask", "add", prefix, "keep", "a", "copy")
	out := e.mustRun(t, "subtask", "list", prefix)
	assert.Equal(t, "1. [ ] transfer\n2. [x] file receipt\n3. [ ] keep a copy\n", out)

	e.mustRun(t, "subtask", "delete", prefix, "1")
	_, err := e.run(t, "subtask", "done", prefix, "3")
	assert.ErrorContains(t, err, "has no subtask 3")

	e.mustRun(t, "tag", "set", prefix, "Home", "#bills", "home")
	assert.Equal(t, []string{"home", "bills"}, e.tasks(t)[0].Tags)
	out = e.mustRun(t, "tag", "list")
	assert.Equal(t, "#bills\n#home\n", out)

	e.mustRun(t, "task", "delete", prefix, "--force")
	assert.Empty(t, e.tasks(t))

	_, err = e.run(t, "task", "show", prefix)
	assert.ErrorContains(t, err, "not found")
}

func TestTaskEdit_NothingToUpdate(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "task", "create", "Stretch")

	_, err := e.run(t, "task", "edit", e.tasks(t)[0].Task.ID)
	assert.ErrorContains(t, err, "nothing to update")
}

func TestTaskList_Query(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "task", "create", "Later thing", "--priority", "high", "--due", "2026-11-01")
	e.mustRun(t, "task", "create", "Overdue thing", "--priority", "high", "--due", "2026-10-01")
	e.mustRun(t, "task", "create", "Quiet thing", "--priority", "low")

	out := e.mustRun(t, "task", "list", "--json", "-q", "priority:high")
	var tasks []models.TaskWithDetails
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "Overdue thing", tasks[0].Task.Title)
	assert.Equal(t, "Later thing", tasks[1].Task.Title)

	out = e.mustRun(t, "task", "list", "-q", "due:overdue")
	assert.Contains(t, out, "Overdue thing")
	assert.Contains(t, out, "overdue")
	assert.NotContains(t, out, "Quiet thing")
}

func TestTaskShow_Raw(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "task", "create", "Pack", "-d", "for the trip", "--subtask", "socks", "--tag", "travel")

	out := e.mustRun(t, "task", "show", "--raw", e.tasks(t)[0].Task.ID)
	assert.Contains(t, out, "Pack")
	assert.Contains(t, out, "travel")
	assert.Contains(t, out, "for the trip")
	assert.Contains(t, out, "## Subtasks")
	assert.Contains(t, out, "1. [ ] socks")
}

func TestProjectDelete_KeepsTasks(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "project", "set-default", "Work")
	e.mustRun(t, "task", "create", "Quarterly review")
	require.NotNil(t, e.tasks(t)[0].Task.ProjectID)

	out := e.mustRun(t, "project", "delete", "Work", "--force")
	assert.Contains(t, out, "1 tasks")

	tasks := e.tasks(t)
	require.Len(t, tasks, 1)
	assert.Nil(t, tasks[0].Task.ProjectID)

	cfg, err := config.Load(e.dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.DefaultProject)
}

func TestProjectCreateAndEdit(t *testing.T) {
	e := setupEnv(t)
	e.mustRun(t, "folder", "create", "Side Projects")
	e.mustRun(t, "project", "create", "Garden", "--folder", "side projects", "-d", "veg patch")

	s := e.store(t)
	p, err := s.FindProjectByName(context.Background(), "garden")
	require.NoError(t, err)
	require.NotNil(t, p.FolderID)
	assert.Equal(t, "veg patch", *p.Description)
	assert.Equal(t, defaultColor, p.Color)

	e.mustRun(t, "project", "edit", "Garden", "--name", "Allotment", "--no-folder")
	p, err = s.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Allotment", p.Name)
	assert.Nil(t, p.FolderID)

	out := e.mustRun(t, "project", "list")
	assert.Contains(t, out, "Allotment")
	assert.Contains(t, out, "Health")
}

func TestFolderDelete_KeepsProjects(t *testing.T) {
	e := setupEnv(t)
	out := e.mustRun(t, "folder", "delete", "2", "--force")
	assert.Contains(t, out, "Life & Wellness")
	assert.Contains(t, out, "2 projects")

	p, err := e.store(t).GetProject(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, p.FolderID)

	out = e.mustRun(t, "folder", "list")
	assert.Contains(t, out, "Work & Career")
	assert.NotContains(t, out, "Life & Wellness")
}

func TestSettings(t *testing.T) {
	e := setupEnv(t)

	assert.Equal(t, "light\n", e.mustRun(t, "theme"))
	e.mustRun(t, "theme", "dark")
	assert.Equal(t, "dark\n", e.mustRun(t, "theme"))

	_, err := e.run(t, "theme", "solarized")
	assert.Error(t, err)

	assert.Equal(t, "search\n", e.mustRun(t, "mode"))
	e.mustRun(t, "mode", "create")
	assert.Equal(t, "create\n", e.mustRun(t, "mode"))

	assert.Equal(t, "off\n", e.mustRun(t, "mobile"))
	e.mustRun(t, "mobile", "on")
	assert.Equal(t, "on\n", e.mustRun(t, "mobile"))

	_, err = e.run(t, "setting", "get", "editor")
	assert.ErrorContains(t, err, "not set")
	e.mustRun(t, "setting", "set", "editor", "vim")
	assert.Equal(t, "vim\n", e.mustRun(t, "setting", "get", "editor"))
}

func TestConfigDriverIsUsed(t *testing.T) {
	e := setupEnv(t)
	require.NoError(t, config.Save(e.dir, &config.Config{Driver: "bogus"}))

	_, err := e.run(t, "tag", "list")
	assert.ErrorContains(t, err, "unsupported sqlite driver")

	e.mustRun(t, "--driver", db.DriverPure, "tag", "list")
}
