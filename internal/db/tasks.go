package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tgienger/ultralist/internal/models"
)

const taskColumns = `id, title, description, due_date, priority, completed, project_id, created_at, updated_at`

// TaskInput is the shape of a "create task" request
type TaskInput struct {
	ID          string // generated when empty
	Title       string
	Description string
	DueDate     *string
	Priority    models.Priority // medium when empty
	ProjectID   *int64
	Subtasks    []string
	Tags        []string
}

// TaskUpdate holds the fields to change on an existing task. Nil fields are
// left untouched. A non-nil Subtasks or Tags slice (even an empty one)
// replaces the whole collection.
type TaskUpdate struct {
	Title        *string
	Description  *string
	DueDate      *string
	ClearDueDate bool
	Priority     *models.Priority
	ProjectID    *int64
	ClearProject bool
	Completed    *bool
	Subtasks     []string
	Tags         []string
}

// SaveTask inserts the task or overwrites the row with the same id. Fields,
// timestamps included, are written exactly as given.
func (db *DB) SaveTask(ctx context.Context, task models.Task) error {
	err := db.run(ctx, func(q querier) error {
		return saveTask(ctx, q, task)
	})
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// CreateTask creates a task with its subtasks and tags in one transaction
func (db *DB) CreateTask(ctx context.Context, input TaskInput) (models.TaskWithDetails, error) {
	now := db.now()
	task := models.Task{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		ProjectID:   input.ProjectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}

	var created models.TaskWithDetails
	err := db.runTx(ctx, func(q querier) error {
		if err := saveTask(ctx, q, task); err != nil {
			return fmt.Errorf("save task: %w", err)
		}
		if err := insertSubtasks(ctx, q, task.ID, input.Subtasks); err != nil {
			return err
		}
		if err := replaceTaskTags(ctx, q, task.ID, input.Tags); err != nil {
			return fmt.Errorf("save tags: %w", err)
		}

		var err error
		created, err = getTaskWithDetails(ctx, q, task.ID)
		return err
	})
	if err != nil {
		return models.TaskWithDetails{}, err
	}
	return created, nil
}

// UpdateTask applies a partial update and refreshes updated_at
func (db *DB) UpdateTask(ctx context.Context, id string, update TaskUpdate) (models.TaskWithDetails, error) {
	var updated models.TaskWithDetails
	err := db.runTx(ctx, func(q querier) error {
		task, err := getTask(ctx, q, id)
		if err != nil {
			return err
		}

		if update.Title != nil {
			task.Title = *update.Title
		}
		if update.Description != nil {
			task.Description = *update.Description
		}
		if update.ClearDueDate {
			task.DueDate = nil
		} else if update.DueDate != nil {
			due := *update.DueDate
			task.DueDate = &due
		}
		if update.Priority != nil {
			task.Priority = *update.Priority
		}
		if update.ClearProject {
			task.ProjectID = nil
		} else if update.ProjectID != nil {
			projectID := *update.ProjectID
			task.ProjectID = &projectID
		}
		if update.Completed != nil {
			task.Completed = *update.Completed
		}
		task.UpdatedAt = db.now()

		if err := saveTask(ctx, q, task); err != nil {
			return fmt.Errorf("update task: %w", err)
		}

		if update.Subtasks != nil {
			if _, err := q.ExecContext(ctx, "DELETE FROM subtasks WHERE task_id = ?", id); err != nil {
				return fmt.Errorf("delete subtasks: %w", err)
			}
			if err := insertSubtasks(ctx, q, id, update.Subtasks); err != nil {
				return err
			}
		}
		if update.Tags != nil {
			if err := replaceTaskTags(ctx, q, id, update.Tags); err != nil {
				return fmt.Errorf("save tags: %w", err)
			}
		}

		updated, err = getTaskWithDetails(ctx, q, id)
		return err
	})
	if err != nil {
		return models.TaskWithDetails{}, err
	}
	return updated, nil
}

// GetTask retrieves a task by ID with its subtasks and tags
func (db *DB) GetTask(ctx context.Context, id string) (models.TaskWithDetails, error) {
	var task models.TaskWithDetails
	err := db.run(ctx, func(q querier) error {
		var err error
		task, err = getTaskWithDetails(ctx, q, id)
		return err
	})
	return task, err
}

// ListTasksWithDetails returns every task with its subtasks and tags, most
// recently created first
func (db *DB) ListTasksWithDetails(ctx context.Context) ([]models.TaskWithDetails, error) {
	var result []models.TaskWithDetails
	err := db.run(ctx, func(q querier) error {
		tasks, err := listTasks(ctx, q)
		if err != nil {
			return err
		}

		result = make([]models.TaskWithDetails, 0, len(tasks))
		for _, t := range tasks {
			details, err := withDetails(ctx, q, t)
			if err != nil {
				return err
			}
			result = append(result, details)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	return result, nil
}

// DeleteTask deletes a task together with its subtasks and tags. Deleting a
// missing task is not an error.
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	err := db.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// SetTaskCompleted updates only the completed flag and updated_at
func (db *DB) SetTaskCompleted(ctx context.Context, id string, completed bool) error {
	return db.run(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx, `
			UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?
		`, completed, formatTime(db.now()), id)
		if err != nil {
			return fmt.Errorf("update task completion: %w", err)
		}
		return expectRow(result, "task", id)
	})
}

func saveTask(ctx context.Context, q querier, t models.Task) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			due_date = excluded.due_date,
			priority = excluded.priority,
			completed = excluded.completed,
			project_id = excluded.project_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, t.ID, t.Title, t.Description, nullable(t.DueDate), string(t.Priority), t.Completed,
		nullable(t.ProjectID), formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	return err
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t           models.Task
		description sql.NullString
		dueDate     sql.NullString
		priority    string
		projectID   sql.NullInt64
		createdAt   string
		updatedAt   string
	)
	if err := row.Scan(&t.ID, &t.Title, &description, &dueDate, &priority, &t.Completed,
		&projectID, &createdAt, &updatedAt); err != nil {
		return models.Task{}, err
	}

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Task{}, err
	}
	t.Description = description.String
	t.DueDate = stringPtr(dueDate)
	t.Priority = models.Priority(priority)
	t.ProjectID = int64Ptr(projectID)
	return t, nil
}

func getTask(ctx context.Context, q querier, id string) (models.Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// listTasks reads every task row. The rows are closed before it returns, so
// callers may issue further queries on the single connection.
func listTasks(ctx context.Context, q querier) ([]models.Task, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func getTaskWithDetails(ctx context.Context, q querier, id string) (models.TaskWithDetails, error) {
	t, err := getTask(ctx, q, id)
	if err != nil {
		return models.TaskWithDetails{}, err
	}
	return withDetails(ctx, q, t)
}

func withDetails(ctx context.Context, q querier, t models.Task) (models.TaskWithDetails, error) {
	subtasks, err := listSubtasks(ctx, q, t.ID)
	if err != nil {
		return models.TaskWithDetails{}, fmt.Errorf("get subtasks for %s: %w", t.ID, err)
	}
	tags, err := listTaskTags(ctx, q, t.ID)
	if err != nil {
		return models.TaskWithDetails{}, fmt.Errorf("get tags for %s: %w", t.ID, err)
	}
	return models.TaskWithDetails{Task: t, Subtasks: subtasks, Tags: tags}, nil
}

// expectRow turns a zero-row update into ErrNotFound
func expectRow(result sql.Result, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
