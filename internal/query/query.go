// Package query implements the search bar language: free text plus
// #tag, priority:, project:, status: and due: terms.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/tgienger/ultralist/internal/models"
)

const dateLayout = "2006-01-02"

// Status filter values
const (
	StatusCompleted  = "completed"
	StatusIncomplete = "incomplete"
)

// Due filter values
const (
	DueToday   = "today"
	DueOverdue = "overdue"
)

// Filter is a parsed search query. Zero values match everything.
type Filter struct {
	Text        string
	Tags        []string
	Priority    models.Priority
	ProjectName string
	Status      string
	Due         string
}

// Empty reports whether the filter has no terms
func (f Filter) Empty() bool {
	return f.Text == "" && len(f.Tags) == 0 && f.Priority == "" &&
		f.ProjectName == "" && f.Status == "" && f.Due == ""
}

// Parse splits q on whitespace and sorts each word into a filter term.
// Unknown values for priority:, status: and due: are ignored.
func Parse(q string) Filter {
	var f Filter
	var text []string

	for _, part := range strings.Fields(q) {
		lower := strings.ToLower(part)
		switch {
		case strings.HasPrefix(part, "#"):
			if tag := lower[1:]; tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		case strings.HasPrefix(lower, "priority:"):
			if p := models.Priority(strings.TrimPrefix(lower, "priority:")); p.Valid() {
				f.Priority = p
			}
		case strings.HasPrefix(lower, "project:"):
			f.ProjectName = strings.TrimPrefix(lower, "project:")
		case strings.HasPrefix(lower, "status:"):
			if s := strings.TrimPrefix(lower, "status:"); s == StatusCompleted || s == StatusIncomplete {
				f.Status = s
			}
		case strings.HasPrefix(lower, "due:"):
			if d := strings.TrimPrefix(lower, "due:"); d == DueToday || d == DueOverdue {
				f.Due = d
			}
		default:
			text = append(text, part)
		}
	}

	f.Text = strings.Join(text, " ")
	return f
}

// Match reports whether t satisfies every term of the filter. projectName is
// the name of t's project ("" when it has none) and today is YYYY-MM-DD.
func (f Filter) Match(t models.TaskWithDetails, projectName, today string) bool {
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(t.Task.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Task.Description), needle) {
			return false
		}
	}

	if len(f.Tags) > 0 && !anyTagMatches(f.Tags, t.Tags) {
		return false
	}

	if f.Priority != "" && t.Task.Priority != f.Priority {
		return false
	}

	if f.ProjectName != "" && !strings.Contains(strings.ToLower(projectName), f.ProjectName) {
		return false
	}

	switch f.Status {
	case StatusCompleted:
		if !t.Task.Completed {
			return false
		}
	case StatusIncomplete:
		if t.Task.Completed {
			return false
		}
	}

	switch f.Due {
	case DueToday:
		if t.Task.DueDate == nil || *t.Task.DueDate != today {
			return false
		}
	case DueOverdue:
		if t.Task.Completed || !Overdue(t.Task, today) {
			return false
		}
	}

	return true
}

// Overdue reports whether the task's due date is before today. Tasks without
// a due date are never overdue.
func Overdue(t models.Task, today string) bool {
	if t.DueDate == nil || *t.DueDate == "" {
		return false
	}
	return *t.DueDate < today
}

// Apply filters tasks and sorts the result by due date, earliest first, with
// undated tasks last. The sort is stable so ties keep their input order.
func Apply(f Filter, tasks []models.TaskWithDetails, projects []models.Project, now time.Time) []models.TaskWithDetails {
	names := make(map[int64]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	today := now.Format(dateLayout)

	result := make([]models.TaskWithDetails, 0, len(tasks))
	for _, t := range tasks {
		var projectName string
		if t.Task.ProjectID != nil {
			projectName = names[*t.Task.ProjectID]
		}
		if f.Match(t, projectName, today) {
			result = append(result, t)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].Task.DueDate, result[j].Task.DueDate
		switch {
		case a == nil || *a == "":
			return false
		case b == nil || *b == "":
			return true
		default:
			return *a < *b
		}
	})
	return result
}

func anyTagMatches(wanted, tags []string) bool {
	for _, w := range wanted {
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), w) {
				return true
			}
		}
	}
	return false
}
