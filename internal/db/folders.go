package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tgienger/ultralist/internal/models"
)

// SaveFolder creates the folder when its ID is 0 and otherwise inserts or
// overwrites the row with that ID. It returns the stored folder.
func (db *DB) SaveFolder(ctx context.Context, f models.Folder) (models.Folder, error) {
	var saved models.Folder
	err := db.runTx(ctx, func(q querier) error {
		id := f.ID
		if id == 0 {
			result, err := q.ExecContext(ctx, `
				INSERT INTO folders (name, color, description) VALUES (?, ?, ?)
			`, f.Name, f.Color, nullable(f.Description))
			if err != nil {
				return err
			}
			if id, err = result.LastInsertId(); err != nil {
				return err
			}
		} else {
			_, err := q.ExecContext(ctx, `
				INSERT INTO folders (id, name, color, description) VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					color = excluded.color,
					description = excluded.description
			`, f.ID, f.Name, f.Color, nullable(f.Description))
			if err != nil {
				return err
			}
		}

		var err error
		saved, err = getFolder(ctx, q, id)
		return err
	})
	if err != nil {
		return models.Folder{}, fmt.Errorf("save folder: %w", err)
	}
	return saved, nil
}

// GetFolder retrieves a folder by ID
func (db *DB) GetFolder(ctx context.Context, id int64) (models.Folder, error) {
	var f models.Folder
	err := db.run(ctx, func(q querier) error {
		var err error
		f, err = getFolder(ctx, q, id)
		return err
	})
	return f, err
}

// ListFolders returns all folders ordered by name
func (db *DB) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var folders []models.Folder
	err := db.run(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, "SELECT id, name, color, description FROM folders ORDER BY name, id")
		if err != nil {
			return err
		}
		defer rows.Close()

		folders = []models.Folder{}
		for rows.Next() {
			f, err := scanFolder(rows)
			if err != nil {
				return err
			}
			folders = append(folders, f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get folders: %w", err)
	}
	return folders, nil
}

// DeleteFolder deletes a folder (projects in the folder will have their folder_id set to NULL)
func (db *DB) DeleteFolder(ctx context.Context, id int64) error {
	err := db.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return nil
}

func scanFolder(row rowScanner) (models.Folder, error) {
	var (
		f           models.Folder
		description sql.NullString
	)
	if err := row.Scan(&f.ID, &f.Name, &f.Color, &description); err != nil {
		return models.Folder{}, err
	}
	f.Description = stringPtr(description)
	return f, nil
}

func getFolder(ctx context.Context, q querier, id int64) (models.Folder, error) {
	f, err := scanFolder(q.QueryRowContext(ctx, "SELECT id, name, color, description FROM folders WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Folder{}, fmt.Errorf("folder %d: %w", id, ErrNotFound)
	}
	return f, err
}
