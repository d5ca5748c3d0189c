package db

import (
	"context"
	"fmt"
)

// ReplaceTaskTags replaces the whole tag set of a task. Duplicate tags in the
// input collapse to a single membership.
func (db *DB) ReplaceTaskTags(ctx context.Context, taskID string, tags []string) error {
	err := db.runTx(ctx, func(q querier) error {
		return replaceTaskTags(ctx, q, taskID, tags)
	})
	if err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// ListTaskTags returns the tags of a task in the order they were added
func (db *DB) ListTaskTags(ctx context.Context, taskID string) ([]string, error) {
	var tags []string
	err := db.run(ctx, func(q querier) error {
		var err error
		tags, err = listTaskTags(ctx, q, taskID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	return tags, nil
}

// ListTags returns every tag in use, deduplicated and sorted
func (db *DB) ListTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := db.run(ctx, func(q querier) error {
		var err error
		tags, err = queryStrings(ctx, q, "SELECT DISTINCT tag FROM tags ORDER BY tag")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get tags: %w", err)
	}
	return tags, nil
}

func replaceTaskTags(ctx context.Context, q querier, taskID string, tags []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM tags WHERE task_id = ?", taskID); err != nil {
		return err
	}
	for _, tag := range tags {
		if _, err := q.ExecContext(ctx, `
			INSERT OR IGNORE INTO tags (task_id, tag) VALUES (?, ?)
		`, taskID, tag); err != nil {
			return err
		}
	}
	return nil
}

func listTaskTags(ctx context.Context, q querier, taskID string) ([]string, error) {
	return queryStrings(ctx, q, "SELECT tag FROM tags WHERE task_id = ? ORDER BY rowid ASC", taskID)
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
