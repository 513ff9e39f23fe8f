package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saveole/timecal/internal/platform/id"
	"github.com/saveole/timecal/internal/preferences"
)

// GetPreferences loads stored preferences without materializing
// defaults.
func (s *Store) GetPreferences(ctx context.Context, userID string) (preferences.Preferences, error) {
	prefs, err := s.getPreferences(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return preferences.Preferences{}, notFound("Preferences not found")
	}
	if err != nil {
		return preferences.Preferences{}, fmt.Errorf("query preferences: %w", err)
	}
	return prefs, nil
}

// Ensure returns the user's preferences, inserting defaults on first
// access.
func (s *Store) Ensure(ctx context.Context, userID string) (preferences.Preferences, error) {
	prefs, err := s.getPreferences(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return preferences.Preferences{}, err
	}

	defaults := preferences.Default(userID, s.clock())
	newID, err := id.NewID()
	if err != nil {
		return preferences.Preferences{}, fmt.Errorf("new preferences id: %w", err)
	}
	defaults.ID = newID

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (id, user_id, theme, language, time_format,
			date_format, default_reminders, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		defaults.ID, userID, defaults.Theme, defaults.Language, defaults.TimeFormat,
		defaults.DateFormat, string(defaults.DefaultReminders),
		toMillis(defaults.CreatedAt), toMillis(defaults.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return s.getPreferences(ctx, userID)
		}
		return preferences.Preferences{}, fmt.Errorf("insert preferences: %w", err)
	}
	return defaults, nil
}

// UpdatePreferences applies a validated update on top of the stored
// (or default) preferences.
func (s *Store) UpdatePreferences(ctx context.Context, userID string, in preferences.UpdateInput) (preferences.Preferences, error) {
	current, err := s.Ensure(ctx, userID)
	if err != nil {
		return preferences.Preferences{}, err
	}
	in.Apply(&current, s.clock())

	_, err = s.db.ExecContext(ctx, `
		UPDATE user_preferences
		SET theme = ?, language = ?, time_format = ?, date_format = ?,
		    default_reminders = ?, updated_at = ?
		WHERE user_id = ?`,
		current.Theme, current.Language, current.TimeFormat, current.DateFormat,
		string(current.DefaultReminders), toMillis(current.UpdatedAt), userID)
	if err != nil {
		return preferences.Preferences{}, fmt.Errorf("update preferences: %w", err)
	}
	return current, nil
}

func (s *Store) getPreferences(ctx context.Context, userID string) (preferences.Preferences, error) {
	var (
		p                  preferences.Preferences
		reminders          string
		createdAt, updated int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, theme, language, time_format, date_format,
		       default_reminders, created_at, updated_at
		FROM user_preferences WHERE user_id = ?`, userID,
	).Scan(&p.ID, &p.UserID, &p.Theme, &p.Language, &p.TimeFormat, &p.DateFormat,
		&reminders, &createdAt, &updated)
	if err != nil {
		return preferences.Preferences{}, err
	}
	if reminders == "" {
		reminders = "{}"
	}
	p.DefaultReminders = json.RawMessage(reminders)
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}
