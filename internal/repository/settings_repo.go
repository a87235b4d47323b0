package repository

import (
	"database/sql"
	"fmt"

	"village/internal/database"
)

// SettingRegistrationOpen controls whether new parents may sign up
const SettingRegistrationOpen = "registration_open"

// SettingsRepository stores instance-wide key/value settings
type SettingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting value by key. Missing keys return "".
func (r *SettingsRepository) GetSetting(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT setting_value FROM settings WHERE setting_key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(key, value string) error {
	return r.db.WithTx(func(tx *database.Tx) error {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM settings WHERE setting_key = ?", key).Scan(&count); err != nil {
			return fmt.Errorf("failed to look up setting: %w", err)
		}
		if count > 0 {
			if _, err := tx.Exec("UPDATE settings SET setting_value = ?, updated_at = CURRENT_TIMESTAMP WHERE setting_key = ?", value, key); err != nil {
				return fmt.Errorf("failed to update setting: %w", err)
			}
			return nil
		}
		if _, err := tx.Exec("INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to insert setting: %w", err)
		}
		return nil
	})
}

// IsRegistrationOpen reports whether sign-up is enabled. Defaults to open.
func (r *SettingsRepository) IsRegistrationOpen() bool {
	value, err := r.GetSetting(SettingRegistrationOpen)
	if err != nil || value == "" {
		return true
	}
	return value == "true"
}

// SetRegistrationOpen enables or disables sign-up
func (r *SettingsRepository) SetRegistrationOpen(open bool) error {
	value := "false"
	if open {
		value = "true"
	}
	return r.SetSetting(SettingRegistrationOpen, value)
}
