package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tgienger/ultralist/internal/models"
)

// SaveSubtask inserts the subtask or overwrites the row with the same id
func (db *DB) SaveSubtask(ctx context.Context, s models.Subtask) error {
	err := db.run(ctx, func(q querier) error {
		return saveSubtask(ctx, q, s)
	})
	if err != nil {
		return fmt.Errorf("save subtask: %w", err)
	}
	return nil
}

// ListSubtasks returns the subtasks of a task in insertion order
func (db *DB) ListSubtasks(ctx context.Context, taskID string) ([]models.Subtask, error) {
	var subtasks []models.Subtask
	err := db.run(ctx, func(q querier) error {
		var err error
		subtasks, err = listSubtasks(ctx, q, taskID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get subtasks: %w", err)
	}
	return subtasks, nil
}

// SetSubtaskCompleted updates the completed flag of a subtask. The owning
// task's updated_at is left alone.
func (db *DB) SetSubtaskCompleted(ctx context.Context, id string, completed bool) error {
	return db.run(ctx, func(q querier) error {
		result, err := q.ExecContext(ctx, "UPDATE subtasks SET completed = ? WHERE id = ?", completed, id)
		if err != nil {
			return fmt.Errorf("update subtask: %w", err)
		}
		return expectRow(result, "subtask", id)
	})
}

// DeleteSubtask deletes a subtask; a missing id is not an error
func (db *DB) DeleteSubtask(ctx context.Context, id string) error {
	err := db.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	return nil
}

func saveSubtask(ctx context.Context, q querier, s models.Subtask) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO subtasks (id, task_id, text, completed) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			task_id = excluded.task_id,
			text = excluded.text,
			completed = excluded.completed
	`, s.ID, s.TaskID, s.Text, s.Completed)
	return err
}

// insertSubtasks creates fresh, incomplete subtasks for each text
func insertSubtasks(ctx context.Context, q querier, taskID string, texts []string) error {
	for _, text := range texts {
		s := models.Subtask{ID: uuid.NewString(), TaskID: taskID, Text: text}
		if err := saveSubtask(ctx, q, s); err != nil {
			return fmt.Errorf("save subtask: %w", err)
		}
	}
	return nil
}

func listSubtasks(ctx context.Context, q querier, taskID string) ([]models.Subtask, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, task_id, text, completed
		FROM subtasks
		WHERE task_id = ?
		ORDER BY rowid ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subtasks := []models.Subtask{}
	for rows.Next() {
		var s models.Subtask
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Text, &s.Completed); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, s)
	}
	return subtasks, rows.Err()
}
