package ui

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/ultralist/internal/db"
	"github.com/tgienger/ultralist/internal/models"
	"github.com/tgienger/ultralist/internal/ui/styles"
	"github.com/tgienger/ultralist/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewTasks
)

type App struct {
	ctx         context.Context
	db          *db.DB
	styles      *styles.Styles
	currentView View
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	width       int
	height      int
}

// Creates a new application
func NewApp(ctx context.Context, database *db.DB) *App {
	theme, err := database.Theme(ctx)
	if err != nil {
		theme = models.ThemeLight
	}
	s := styles.NewStyles(styles.ThemeFor(theme))

	return &App{
		ctx:         ctx,
		db:          database,
		styles:      s,
		currentView: ViewProjects,
		projectList: views.NewProjectListView(ctx, database, s),
	}
}

func (a *App) Init() tea.Cmd {
	// Reopen the last project, if it still exists
	lastProjectID, ok, err := a.db.GetSetting(a.ctx, models.SettingLastProjectID)
	if err == nil && ok && lastProjectID != "" {
		id, err := strconv.ParseInt(lastProjectID, 10, 64)
		if err == nil {
			project, err := a.db.GetProject(a.ctx, id)
			if err == nil {
				return a.openProject(&project)
			}
		}
	}

	return a.projectList.Init()
}

// openProject switches to the task list. A nil project shows every task.
func (a *App) openProject(project *models.Project) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.ctx, a.db, project, a.styles)

	last := ""
	if project != nil {
		last = strconv.FormatInt(project.ID, 10)
	}
	cmds := []tea.Cmd{
		a.taskList.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	}
	if cmd := a.rememberProject(last); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// rememberProject stores the project to reopen on the next start. A failure
// is handed to the active view as an error message.
func (a *App) rememberProject(id string) tea.Cmd {
	if err := a.db.SetSetting(a.ctx, models.SettingLastProjectID, id); err != nil {
		err = fmt.Errorf("remember last project: %w", err)
		return func() tea.Msg { return err }
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update project list size since it persists
		a.projectList.Update(msg)

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		a.currentView = ViewProjects
		return a, tea.Batch(a.projectList.Init(), a.rememberProject(""))

	case views.ThemeChanged:
		// Views share the pointer, so they pick up the new palette on next render
		*a.styles = *styles.NewStyles(styles.ThemeFor(msg.Name))
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewTasks:
		if a.taskList != nil {
			return a.taskList.View()
		}
	}
	return a.projectList.View()
}
