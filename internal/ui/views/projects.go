package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/ultralist/internal/db"
	"github.com/tgienger/ultralist/internal/models"
	"github.com/tgienger/ultralist/internal/ui/keys"
	"github.com/tgienger/ultralist/internal/ui/styles"
)

const newProjectColor = "bg-blue-500"

// browserItem is one row of the project browser. A nil project is the
// "All tasks" entry.
type browserItem struct {
	project *models.Project
	folder  string
}

func (i browserItem) Title() string {
	if i.project == nil {
		return "All tasks"
	}
	return i.project.Name
}

func (i browserItem) Description() string {
	if i.project == nil {
		return "Every task in every project"
	}
	parts := []string{i.folder}
	if i.folder == "" {
		parts[0] = "No folder"
	}
	if i.project.Description != nil && *i.project.Description != "" {
		parts = append(parts, *i.project.Description)
	}
	return strings.Join(parts, " · ")
}

func (i browserItem) FilterValue() string { return i.Title() }

// browserItems lists "All tasks" first, then each folder's projects with
// folders in name order, then projects outside any folder.
func browserItems(folders []models.Folder, projects []models.Project) []list.Item {
	items := []list.Item{browserItem{}}

	byFolder := make(map[int64][]models.Project)
	var unfiled []models.Project
	for _, p := range projects {
		if p.FolderID == nil {
			unfiled = append(unfiled, p)
			continue
		}
		byFolder[*p.FolderID] = append(byFolder[*p.FolderID], p)
	}

	for _, f := range folders {
		for _, p := range byFolder[f.ID] {
			items = append(items, browserItem{project: &p, folder: f.Name})
		}
	}
	for _, p := range unfiled {
		items = append(items, browserItem{project: &p})
	}
	return items
}

type projectDelegate struct {
	styles  *styles.Styles
	width   int
	compact bool
}

func (d *projectDelegate) Height() int {
	if d.compact {
		return 1
	}
	return 2
}

func (d *projectDelegate) Spacing() int {
	if d.compact {
		return 0
	}
	return 1
}

func (d *projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d *projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(browserItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	titleStyle := d.styles.ListItem.Width(width)
	descStyle := d.styles.ListDim.Width(width)
	if index == m.Index() {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(d.styles.Theme.ForegroundDim).Width(width)
	}

	if d.compact {
		fmt.Fprint(w, titleStyle.Render(p.Title()))
		return
	}
	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(p.Title()), descStyle.Render(p.Description()))
}

// ProjectListView is the folder and project browser
type ProjectListView struct {
	ctx      context.Context
	db       *db.DB
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	err      error

	creating bool
	newName  textinput.Model
	newDesc  textinput.Model
	focusIdx int // 0=name, 1=desc, 2=confirm

	confirmingDelete bool
	deleteTarget     models.Project

	showHelpPopup bool
}

func NewProjectListView(ctx context.Context, database *db.DB, s *styles.Styles) *ProjectListView {
	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 200

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return &ProjectListView{
		ctx:      ctx,
		db:       database,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newDesc:  newDesc,
	}
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

type projectsLoadedMsg struct {
	items   []list.Item
	compact bool
}

// SelectedProject is sent when a browser entry is opened. Project is nil for
// "All tasks".
type SelectedProject struct {
	Project *models.Project
}

func (v *ProjectListView) loadProjects() tea.Msg {
	folders, err := v.db.ListFolders(v.ctx)
	if err != nil {
		return err
	}
	projects, err := v.db.ListProjects(v.ctx)
	if err != nil {
		return err
	}
	compact, err := v.db.MobileMode(v.ctx)
	if err != nil {
		return err
	}
	return projectsLoadedMsg{items: browserItems(folders, projects), compact: compact}
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		v.list.SetItems(msg.items)
		v.delegate.compact = msg.compact
		v.list.SetDelegate(v.delegate)
		v.loaded = true
		return v, nil

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
		if v.creating {
			return v.updateCreating(msg)
		}
		// Let the list's own filter prompt take keys while it is open
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.focusIdx = 0
			v.newName.Reset()
			v.newDesc.Reset()
			v.updateFocus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(browserItem); ok {
				return v, func() tea.Msg { return SelectedProject{Project: item.project} }
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(browserItem); ok && item.project != nil {
				v.confirmingDelete = true
				v.deleteTarget = *item.project
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		if err := v.db.DeleteProject(v.ctx, v.deleteTarget.ID); err != nil {
			v.err = err
			return v, nil
		}
		return v, v.loadProjects
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.createProject()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 2) % 3
		v.updateFocus()
		return v, nil

	case msg.String() == "tab":
		v.focusIdx = (v.focusIdx + 1) % 3
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 2 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.createProject()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	}
	return v, cmd
}

// createProject saves the form and opens the new project. An empty name
// keeps the form open.
func (v *ProjectListView) createProject() tea.Cmd {
	name := strings.TrimSpace(v.newName.Value())
	if name == "" {
		return nil
	}
	p := models.Project{Name: name, Color: newProjectColor}
	if desc := strings.TrimSpace(v.newDesc.Value()); desc != "" {
		p.Description = &desc
	}

	saved, err := v.db.SaveProject(v.ctx, p)
	if err != nil {
		v.err = err
		return nil
	}
	v.creating = false
	return func() tea.Msg { return SelectedProject{Project: &saved} }
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newDesc.Focus()
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.creating {
		return v.renderCreateForm()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	v.list.Styles.Title = v.styles.Title
	content := v.list.View() + "\n" + v.renderHelp()
	if v.err != nil {
		content += "\n" + v.styles.Error.Render(v.err.Error())
	}
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle, descStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonPrimary
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Project"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		btnStyle.Render(" Create "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s new • %s del • %s filter • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("d") + "      delete project",
		s.HelpKey.Render("/") + "      filter projects",
		s.HelpKey.Render("q") + "      quit",
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

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(s.Theme.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q will be deleted. Its tasks are kept.", v.deleteTarget.Name)),
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
