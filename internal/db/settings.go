package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tgienger/ultralist/internal/models"
)

// GetSetting retrieves a setting value by key. ok is false when the key is absent.
func (db *DB) GetSetting(ctx context.Context, key string) (value string, ok bool, err error) {
	err = db.run(ctx, func(q querier) error {
		return q.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting sets a setting value
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	err := db.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return err
	})
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

func (db *DB) settingOr(ctx context.Context, key, fallback string) (string, error) {
	value, ok, err := db.GetSetting(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return fallback, nil
	}
	return value, nil
}

// Theme returns the UI theme, "light" when unset
func (db *DB) Theme(ctx context.Context) (string, error) {
	return db.settingOr(ctx, models.SettingTheme, models.ThemeLight)
}

func (db *DB) SetTheme(ctx context.Context, theme string) error {
	return db.SetSetting(ctx, models.SettingTheme, theme)
}

// SearchbarMode returns "search" or "create"; "search" when unset
func (db *DB) SearchbarMode(ctx context.Context) (string, error) {
	return db.settingOr(ctx, models.SettingSearchbarMode, models.SearchbarSearch)
}

func (db *DB) SetSearchbarMode(ctx context.Context, mode string) error {
	return db.SetSetting(ctx, models.SettingSearchbarMode, mode)
}

// MobileMode reports whether the mobile layout flag is set
func (db *DB) MobileMode(ctx context.Context) (bool, error) {
	value, err := db.settingOr(ctx, models.SettingMobileMode, "false")
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

func (db *DB) SetMobileMode(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return db.SetSetting(ctx, models.SettingMobileMode, value)
}
