package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/ultralist/internal/db"
	"github.com/tgienger/ultralist/internal/models"
	"github.com/tgienger/ultralist/internal/parser"
	"github.com/tgienger/ultralist/internal/query"
	"github.com/tgienger/ultralist/internal/ui/keys"
	"github.com/tgienger/ultralist/internal/ui/styles"
)

const dateLayout = "2006-01-02"

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusTaskList FocusArea = iota
	FocusInput
)

// BackToProjects signals to go back to the project browser
type BackToProjects struct{}

// ThemeChanged is sent after the theme setting was switched
type ThemeChanged struct {
	Name string
}

// TaskListView shows the tasks of one project, or of every project, under an
// input bar that either filters the list or quick-adds a task depending on
// the searchbar mode.
type TaskListView struct {
	ctx     context.Context
	db      *db.DB
	project *models.Project // nil shows every task
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	scoped   []models.TaskWithDetails
	tasks    []models.TaskWithDetails // scoped tasks that match the query
	projects []models.Project
	mode     string
	compact  bool

	width  int
	height int

	focus   FocusArea
	cursor  int
	scrollY int
	input   textinput.Model

	viewingTask      bool
	viewingID        string
	confirmingDelete bool
	deleteTarget     models.Task
	showHelpPopup    bool

	status string
	err    error
}

// NewTaskListView creates a new task list view
func NewTaskListView(ctx context.Context, database *db.DB, project *models.Project, s *styles.Styles) *TaskListView {
	input := textinput.New()
	input.CharLimit = 200

	return &TaskListView{
		ctx:     ctx,
		db:      database,
		project: project,
		styles:  s,
		keys:    keys.DefaultKeyMap(),
		now:     time.Now,
		mode:    models.SearchbarSearch,
		focus:   FocusTaskList,
		input:   input,
	}
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return v.loadTasks
}

type tasksLoadedMsg struct {
	tasks    []models.TaskWithDetails
	projects []models.Project
	mode     string
	compact  bool
}

type taskCreatedMsg struct {
	task models.TaskWithDetails
}

func (v *TaskListView) loadTasks() tea.Msg {
	all, err := v.db.ListTasksWithDetails(v.ctx)
	if err != nil {
		return err
	}
	projects, err := v.db.ListProjects(v.ctx)
	if err != nil {
		return err
	}
	mode, err := v.db.SearchbarMode(v.ctx)
	if err != nil {
		return err
	}
	compact, err := v.db.MobileMode(v.ctx)
	if err != nil {
		return err
	}

	tasks := all
	if v.project != nil {
		tasks = make([]models.TaskWithDetails, 0, len(all))
		for _, t := range all {
			if t.Task.ProjectID != nil && *t.Task.ProjectID == v.project.ID {
				tasks = append(tasks, t)
			}
		}
	}
	return tasksLoadedMsg{tasks: tasks, projects: projects, mode: mode, compact: compact}
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.input.Width = clamp(styles.ContentWidth(v.width)-12, 10, 60)
		return v, nil

	case tasksLoadedMsg:
		v.scoped = msg.tasks
		v.projects = msg.projects
		v.mode = msg.mode
		v.compact = msg.compact
		v.applyQuery()
		v.followViewedTask()
		return v, nil

	case taskCreatedMsg:
		v.status = "Created " + msg.task.Task.Title
		v.input.Reset()
		return v, v.loadTasks

	case error:
		v.err = msg
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.viewingTask {
			return v.updateViewingTask(msg)
		}
		if v.focus == FocusInput {
			return v.updateInput(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

// applyQuery refreshes the visible tasks. In create mode the input is a new
// task, not a filter, so every scoped task stays visible.
func (v *TaskListView) applyQuery() {
	var f query.Filter
	if v.mode == models.SearchbarSearch {
		f = query.Parse(v.input.Value())
	}
	v.tasks = query.Apply(f, v.scoped, v.projects, v.now())
	if v.cursor >= len(v.tasks) {
		v.cursor = max(0, len(v.tasks)-1)
	}
	v.ensureVisible()
}

func (v *TaskListView) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.input.Blur()
		v.focus = FocusTaskList
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		if v.mode == models.SearchbarCreate {
			return v, v.createFromInput()
		}
		v.input.Blur()
		v.focus = FocusTaskList
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	if v.mode == models.SearchbarSearch {
		v.applyQuery()
	}
	return v, cmd
}

// createFromInput parses the input bar and saves the task. A project named
// in the text wins over the project being viewed.
func (v *TaskListView) createFromInput() tea.Cmd {
	text := strings.TrimSpace(v.input.Value())
	if text == "" {
		return nil
	}
	draft := parser.Parse(text, v.now())

	return func() tea.Msg {
		input := db.TaskInput{
			Title:       draft.Title,
			Description: draft.Description,
			Priority:    draft.Priority,
			Tags:        draft.Tags,
		}
		if draft.DueDate != "" {
			due := draft.DueDate
			input.DueDate = &due
		}
		if v.project != nil {
			input.ProjectID = &v.project.ID
		}
		if draft.ProjectName != "" {
			p, err := v.db.FindProjectByName(v.ctx, draft.ProjectName)
			switch {
			case err == nil:
				input.ProjectID = &p.ID
			case !errors.Is(err, db.ErrNotFound):
				return err
			}
		}

		t, err := v.db.CreateTask(v.ctx, input)
		if err != nil {
			return err
		}
		return taskCreatedMsg{task: t}
	}
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.status = ""

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if len(v.tasks) > 0 {
			v.viewingTask = true
			v.viewingID = v.tasks[v.cursor].Task.ID
		}
		return v, nil

	case key.Matches(msg, v.keys.Input):
		v.focus = FocusInput
		v.input.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Toggle):
		return v, v.toggleSelected()

	case key.Matches(msg, v.keys.Delete):
		if len(v.tasks) > 0 {
			v.confirmingDelete = true
			v.deleteTarget = v.tasks[v.cursor].Task
		}
		return v, nil

	case key.Matches(msg, v.keys.Mode):
		return v, v.switchMode()

	case key.Matches(msg, v.keys.Theme):
		return v, v.switchTheme()

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) toggleSelected() tea.Cmd {
	if len(v.tasks) == 0 {
		return nil
	}
	t := v.tasks[v.cursor].Task
	return func() tea.Msg {
		if err := v.db.SetTaskCompleted(v.ctx, t.ID, !t.Completed); err != nil {
			return err
		}
		return v.loadTasks()
	}
}

func (v *TaskListView) switchMode() tea.Cmd {
	next := models.SearchbarCreate
	if v.mode == models.SearchbarCreate {
		next = models.SearchbarSearch
	}
	if err := v.db.SetSearchbarMode(v.ctx, next); err != nil {
		v.err = err
		return nil
	}
	v.mode = next
	v.input.Reset()
	v.applyQuery()
	return nil
}

func (v *TaskListView) switchTheme() tea.Cmd {
	next := models.ThemeDark
	if v.styles.Theme.Name == models.ThemeDark {
		next = models.ThemeLight
	}
	if err := v.db.SetTheme(v.ctx, next); err != nil {
		v.err = err
		return nil
	}
	return func() tea.Msg { return ThemeChanged{Name: next} }
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		v.viewingTask = false
		id := v.deleteTarget.ID
		return v, func() tea.Msg {
			if err := v.db.DeleteTask(v.ctx, id); err != nil {
				return err
			}
			return v.loadTasks()
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Toggle):
		return v, v.toggleSelected()
	case key.Matches(msg, v.keys.Delete):
		if len(v.tasks) > 0 {
			v.confirmingDelete = true
			v.deleteTarget = v.tasks[v.cursor].Task
		}
		return v, nil
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

// followViewedTask keeps the detail view on the same task after a reload.
// The view closes when the task no longer matches the current query.
func (v *TaskListView) followViewedTask() {
	if !v.viewingTask {
		return
	}
	for i, t := range v.tasks {
		if t.Task.ID == v.viewingID {
			v.cursor = i
			v.ensureVisible()
			return
		}
	}
	v.viewingTask = false
	v.viewingID = ""
}

func (v *TaskListView) itemHeight() int {
	if v.compact {
		return 1
	}
	// title + details + margin
	return 3
}

func (v *TaskListView) visibleItems() int {
	availableHeight := max(v.height-12, v.itemHeight())
	return max(availableHeight/v.itemHeight(), 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

func (v *TaskListView) title() string {
	if v.project == nil {
		return "All tasks"
	}
	return v.project.Name
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.viewingTask {
		return v.renderTaskView()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	if v.err != nil {
		b.WriteString(v.styles.Error.Render(v.err.Error()) + "\n")
	} else if v.status != "" {
		b.WriteString(v.styles.StatusBar.Render(v.status) + "\n")
	}
	if !v.compact {
		b.WriteString(v.renderHelp())
	}

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles

	inputStyle := s.Input
	if v.focus == FocusInput {
		inputStyle = s.InputFocused
	}
	label := "Search"
	v.input.Placeholder = "#tag priority:high due:overdue ..."
	if v.mode == models.SearchbarCreate {
		label = "Add"
		v.input.Placeholder = "Call mom tomorrow at 5pm #family"
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center,
		s.HelpKey.Render(label+" "),
		inputStyle.Render(v.input.View()),
	)
	title := s.Title.Render(v.title()) + s.TitleMuted.Render(fmt.Sprintf("  %d/%d", len(v.tasks), len(v.scoped)))
	return lipgloss.JoinVertical(lipgloss.Left, title, bar)
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		if len(v.scoped) > 0 {
			return s.TitleMuted.Render("No tasks match the search.")
		}
		return s.TitleMuted.Render("No tasks. Press 'm' for create mode, then '/' to add one.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.tasks))
	today := v.now().Format(dateLayout)
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && v.focus == FocusTaskList, today))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(t models.TaskWithDetails, selected bool, today string) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	check := "[ ]"
	if t.Task.Completed {
		check = s.Done.Render("[x]")
	}
	titleLine := check + " " + v.renderPriority(t.Task.Priority) + t.Task.Title

	var details []string
	if t.Task.DueDate != nil {
		due := "due " + *t.Task.DueDate
		if !t.Task.Completed && query.Overdue(t.Task, today) {
			due = s.Overdue.Render(due + " (overdue)")
		}
		details = append(details, due)
	}
	if v.project == nil && t.Task.ProjectID != nil {
		if name := v.projectName(*t.Task.ProjectID); name != "" {
			details = append(details, name)
		}
	}
	if n := len(t.Subtasks); n > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		details = append(details, fmt.Sprintf("%d/%d subtasks", done, n))
	}
	for _, tag := range t.Tags {
		details = append(details, s.Tag.Render("#"+tag))
	}
	detailLine := strings.Join(details, " · ")
	if detailLine == "" {
		detailLine = s.TitleMuted.Render("no details")
	}

	lineStyle := s.ListItem
	if selected {
		lineStyle = s.ListSelected
	}
	if v.compact {
		return lineStyle.Width(width).Render(titleLine)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lineStyle.Width(width).Render(titleLine),
		lineStyle.Width(width).Render(detailLine),
	) + "\n"
}

func (v *TaskListView) renderPriority(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return v.styles.PriorityHigh.Render("!! ")
	case models.PriorityLow:
		return v.styles.PriorityLow.Render("↓ ")
	default:
		return ""
	}
}

func (v *TaskListView) projectName(id int64) string {
	for _, p := range v.projects {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}

	inputLabel := "search"
	if v.mode == models.SearchbarCreate {
		inputLabel = "add"
	}
	return s.Help.Render(
		fmt.Sprintf("%s %s • %s done • %s view • %s del • %s mode • %s theme • %s back • %s quit",
			s.HelpKey.Render("/"), inputLabel,
			s.HelpKey.Render("x"),
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("m"),
			s.HelpKey.Render("t"),
			s.HelpKey.Render("esc"),
			s.HelpKey.Render("q"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("/") + "      focus the input bar",
		s.HelpKey.Render("x") + "      toggle done",
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("m") + "      switch search / create mode",
		s.HelpKey.Render("t") + "      switch light / dark theme",
		s.HelpKey.Render("esc") + "    back",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Search: text #tag priority:high project:work"),
		s.TitleMuted.Render("        status:completed due:today due:overdue"),
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Box.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(s.Theme.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and its subtasks will be deleted.", v.deleteTarget.Title)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderTaskView() string {
	if len(v.tasks) == 0 || v.cursor >= len(v.tasks) {
		return ""
	}

	s := v.styles
	t := v.tasks[v.cursor]
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)
	labelStyle := s.TitleMuted

	due := "None"
	if t.Task.DueDate != nil {
		due = *t.Task.DueDate
	}
	tags := "None"
	if len(t.Tags) > 0 {
		tags = s.Tag.Render("#" + strings.Join(t.Tags, " #"))
	}
	desc := t.Task.Description
	if desc == "" {
		desc = s.TitleMuted.Render("No description")
	}

	var subtasks []string
	for _, st := range t.Subtasks {
		box := "[ ]"
		if st.Completed {
			box = s.Done.Render("[x]")
		}
		subtasks = append(subtasks, box+" "+st.Text)
	}
	if len(subtasks) == 0 {
		subtasks = []string{s.TitleMuted.Render("No subtasks")}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(t.Task.Title),
		labelStyle.Render("Priority"),
		string(t.Task.Priority),
		"",
		labelStyle.Render("Due"),
		due,
		"",
		labelStyle.Render("Tags"),
		tags,
		"",
		labelStyle.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(desc),
		"",
		labelStyle.Render("Subtasks"),
		lipgloss.JoinVertical(lipgloss.Left, subtasks...),
		"",
		s.Help.Render(fmt.Sprintf("%s toggle done • %s delete • %s back",
			s.HelpKey.Render("x"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		)),
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}
