package store

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ayusman/gearcount/internal/gear"
	"github.com/ayusman/gearcount/internal/settings"
)

// Keys of the settings table.
const (
	keyCamera          = "camera"
	keyResolution      = "resolution"
	keyForegroundColor = "foreground_color"
	keyTolerance       = "tolerance"
)

// SettingsRepository persists the segmentation settings as key/value rows.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Load returns the stored settings. Missing keys keep their defaults.
func (r *SettingsRepository) Load() (settings.Settings, error) {
	out := settings.Default()

	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, err
		}
		if err := decodeSetting(&out, key, value); err != nil {
			return out, fmt.Errorf("setting %s: %w", key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return out, err
	}

	return out, out.Validate()
}

func decodeSetting(s *settings.Settings, key, value string) error {
	var err error
	switch key {
	case keyCamera:
		s.Camera, err = strconv.Atoi(value)
	case keyTolerance:
		s.Tolerance, err = strconv.Atoi(value)
	case keyResolution:
		s.Resolution, err = gear.ParseResolution(value)
	case keyForegroundColor:
		s.ForegroundColor, err = gear.ParseHexColor(value)
	}
	return err
}

// Save writes every field of s in one transaction.
func (r *SettingsRepository) Save(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	values := [][2]string{
		{keyCamera, strconv.Itoa(s.Camera)},
		{keyResolution, fmt.Sprintf("%dx%d", s.Resolution.Width, s.Resolution.Height)},
		{keyForegroundColor, s.ForegroundColor.Hex()},
		{keyTolerance, strconv.Itoa(s.Tolerance)},
	}
	for _, kv := range values {
		if _, err := stmt.Exec(kv[0], kv[1]); err != nil {
			return err
		}
	}

	return tx.Commit()
}
