package models

import "time"

// Priority is the importance of a task. The store accepts any string; these
// are the values the rest of the application produces.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Setting keys with a fixed meaning
const (
	SettingTheme         = "theme"
	SettingSearchbarMode = "searchbar_mode"
	SettingMobileMode    = "mobile_mode"
	SettingLastProjectID = "last_project_id"
)

// Values of the theme setting
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Values of the searchbar_mode setting
const (
	SearchbarSearch = "search"
	SearchbarCreate = "create"
)

// Folder groups projects
type Folder struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Description *string `json:"description,omitempty"`
}

// Project represents a task management project
type Project struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Description *string `json:"description,omitempty"`
	FolderID    *int64  `json:"folder_id,omitempty"` // nil if not in a folder
}

// Task represents a single task
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     *string   `json:"due_date,omitempty"` // YYYY-MM-DD, not validated
	Priority    Priority  `json:"priority"`
	Completed   bool      `json:"completed"`
	ProjectID   *int64    `json:"project_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Subtask is a checklist item owned by exactly one task
type Subtask struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TaskWithDetails is a task bundled with its subtasks and tags
type TaskWithDetails struct {
	Task     Task      `json:"task"`
	Subtasks []Subtask `json:"subtasks"`
	Tags     []string  `json:"tags"`
}
