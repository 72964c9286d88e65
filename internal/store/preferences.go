package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Preference keys.
const (
	PrefTheme = "yovo-theme"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// GetPreference returns a stored preference, or ErrNotFound.
func (db *DB) GetPreference(key string) (string, error) {
	var v string
	err := db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

// SetPreference stores a preference.
func (db *DB) SetPreference(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	return err
}

// Theme returns the stored theme, defaulting to light.
func (db *DB) Theme() (string, error) {
	v, err := db.GetPreference(PrefTheme)
	if errors.Is(err, ErrNotFound) {
		return ThemeLight, nil
	}
	if err != nil {
		return "", err
	}
	if v != ThemeDark {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

// SetTheme stores the theme preference.
func (db *DB) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return db.SetPreference(PrefTheme, theme)
}
