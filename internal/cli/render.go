package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tgienger/ultralist/internal/models"
	"github.com/tgienger/ultralist/internal/query"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle      = lipgloss.NewStyle()
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	openStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	overdueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	highStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	lowStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderTaskTable(tasks []models.TaskWithDetails, projects map[int64]string, today string) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		due := ""
		if t.Task.DueDate != nil {
			due = *t.Task.DueDate
		}
		project := ""
		if t.Task.ProjectID != nil {
			project = projects[*t.Task.ProjectID]
		}
		rows[i] = []string{
			shortID(t.Task.ID),
			t.Task.Title,
			renderPriority(t.Task.Priority),
			due,
			renderStatus(t.Task, today),
			project,
			strings.Join(t.Tags, ", "),
		}
	}
	return renderTable([]string{"ID", "Title", "Pri", "Due", "Status", "Project", "Tags"}, rows)
}

func renderProjectTable(projects []models.Project, folders map[int64]string) string {
	if len(projects) == 0 {
		return "No projects found."
	}
	rows := make([][]string, len(projects))
	for i, p := range projects {
		folder := ""
		if p.FolderID != nil {
			folder = folders[*p.FolderID]
		}
		rows[i] = []string{fmt.Sprint(p.ID), p.Name, folder, deref(p.Description)}
	}
	return renderTable([]string{"ID", "Name", "Folder", "Description"}, rows)
}

func renderFolderTable(folders []models.Folder) string {
	if len(folders) == 0 {
		return "No folders found."
	}
	rows := make([][]string, len(folders))
	for i, f := range folders {
		rows[i] = []string{fmt.Sprint(f.ID), f.Name, f.Color, deref(f.Description)}
	}
	return renderTable([]string{"ID", "Name", "Color", "Description"}, rows)
}

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerRowStyle
			}
			return cellStyle
		})
	return t.Render()
}

func renderPriority(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return highStyle.Render(string(p))
	case models.PriorityLow:
		return lowStyle.Render(string(p))
	default:
		return string(p)
	}
}

func renderStatus(t models.Task, today string) string {
	switch {
	case t.Completed:
		return doneStyle.Render("done")
	case query.Overdue(t, today):
		return overdueStyle.Render("overdue")
	default:
		return openStyle.Render("open")
	}
}

func renderField(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

func renderEntityHeader(title string, fields []string) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(title))
	sb.WriteString("\n")
	for _, f := range fields {
		sb.WriteString("  " + f + "\n")
	}
	return sb.String()
}

// taskMarkdown is the task body shown by "task show": the description
// followed by the subtasks as a checklist.
func taskMarkdown(t models.TaskWithDetails) string {
	var sb strings.Builder
	if t.Task.Description != "" {
		sb.WriteString(t.Task.Description)
		sb.WriteString("\n")
	}
	if len(t.Subtasks) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## Subtasks\n\n")
		for i, s := range t.Subtasks {
			box := " "
			if s.Completed {
				box = "x"
			}
			fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, box, s.Text)
		}
	}
	return sb.String()
}

func renderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
