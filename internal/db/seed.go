package db

import (
	"context"
	"fmt"

	"github.com/tgienger/ultralist/internal/models"
)

var defaultSettings = []struct{ key, value string }{
	{models.SettingTheme, models.ThemeLight},
	{models.SettingSearchbarMode, models.SearchbarSearch},
}

var seedFolders = []struct {
	id                       int64
	name, color, description string
}{
	{1, "Work & Career", "bg-blue-600", "Professional projects and development"},
	{2, "Life & Wellness", "bg-green-600", "Personal growth and health"},
}

var seedProjects = []struct {
	id                       int64
	name, color, description string
	folderID                 int64
}{
	{1, "Work", "bg-blue-500", "Work-related tasks", 1},
	{2, "Personal", "bg-green-500", "Personal tasks and errands", 2},
	{3, "Health", "bg-purple-500", "Health and fitness goals", 2},
}

// Seed inserts the default settings and, when there are no folders yet, the
// starter folders and projects. Running it again never duplicates rows.
func (db *DB) Seed(ctx context.Context) error {
	return db.runTx(ctx, func(q querier) error {
		for _, s := range defaultSettings {
			if _, err := q.ExecContext(ctx,
				"INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", s.key, s.value); err != nil {
				return fmt.Errorf("seed setting %s: %w", s.key, err)
			}
		}

		var count int
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM folders").Scan(&count); err != nil {
			return fmt.Errorf("count folders: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, f := range seedFolders {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO folders (id, name, color, description) VALUES (?, ?, ?, ?)
			`, f.id, f.name, f.color, f.description); err != nil {
				return fmt.Errorf("seed folder %q: %w", f.name, err)
			}
		}
		for _, p := range seedProjects {
			// Projects can outlive their folders, so a reseed must not collide with them.
			if _, err := q.ExecContext(ctx, `
				INSERT OR IGNORE INTO projects (id, name, color, description, folder_id) VALUES (?, ?, ?, ?, ?)
			`, p.id, p.name, p.color, p.description, p.folderID); err != nil {
				return fmt.Errorf("seed project %q: %w", p.name, err)
			}
		}

		db.logger.Printf("seeded %d folders and %d projects", len(seedFolders), len(seedProjects))
		return nil
	})
}
