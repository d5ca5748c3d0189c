package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tgienger/ultralist/internal/models"
)

const projectColumns = `id, name, color, description, folder_id`

// SaveProject creates the project when its ID is 0 and otherwise inserts or
// overwrites the row with that ID. It returns the stored project.
func (db *DB) SaveProject(ctx context.Context, p models.Project) (models.Project, error) {
	var saved models.Project
	err := db.runTx(ctx, func(q querier) error {
		id := p.ID
		if id == 0 {
			result, err := q.ExecContext(ctx, `
				INSERT INTO projects (name, color, description, folder_id) VALUES (?, ?, ?, ?)
			`, p.Name, p.Color, nullable(p.Description), nullable(p.FolderID))
			if err != nil {
				return err
			}
			if id, err = result.LastInsertId(); err != nil {
				return err
			}
		} else {
			_, err := q.ExecContext(ctx, `
				INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					color = excluded.color,
					description = excluded.description,
					folder_id = excluded.folder_id
			`, p.ID, p.Name, p.Color, nullable(p.Description), nullable(p.FolderID))
			if err != nil {
				return err
			}
		}

		var err error
		saved, err = getProject(ctx, q, id)
		return err
	})
	if err != nil {
		return models.Project{}, fmt.Errorf("save project: %w", err)
	}
	return saved, nil
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var p models.Project
	err := db.run(ctx, func(q querier) error {
		var err error
		p, err = getProject(ctx, q, id)
		return err
	})
	return p, err
}

// FindProjectByName retrieves a project by its name (case-insensitive)
func (db *DB) FindProjectByName(ctx context.Context, name string) (models.Project, error) {
	var p models.Project
	err := db.run(ctx, func(q querier) error {
		var err error
		p, err = scanProject(q.QueryRowContext(ctx, `
			SELECT `+projectColumns+` FROM projects
			WHERE LOWER(name) = LOWER(?)
			ORDER BY id LIMIT 1
		`, name))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("find project %q: %w", name, err)
	}
	return p, nil
}

// ListProjects returns all projects ordered by name
func (db *DB) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := db.run(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY name, id")
		if err != nil {
			return err
		}
		defer rows.Close()

		projects = []models.Project{}
		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			projects = append(projects, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("get projects: %w", err)
	}
	return projects, nil
}

// DeleteProject deletes a project. Tasks that referenced it are kept and
// lose their project.
func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	err := db.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func scanProject(row rowScanner) (models.Project, error) {
	var (
		p           models.Project
		description sql.NullString
		folderID    sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Color, &description, &folderID); err != nil {
		return models.Project{}, err
	}
	p.Description = stringPtr(description)
	p.FolderID = int64Ptr(folderID)
	return p, nil
}

func getProject(ctx context.Context, q querier, id int64) (models.Project, error) {
	p, err := scanProject(q.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return p, err
}
