// Package preferences defines per-user display preferences.
package preferences

import (
	"encoding/json"
	"time"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
)

// Valid enumerations for preference fields.
var (
	ValidThemes      = []string{"light", "dark", "system"}
	ValidLanguages   = []string{"en", "zh", "es", "fr", "de", "ja"}
	ValidTimeFormats = []string{"12h", "24h"}
)

// Preferences is a user's display preference record.
type Preferences struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Theme            string          `json:"theme"`
	Language         string          `json:"language"`
	TimeFormat       string          `json:"time_format"`
	DateFormat       string          `json:"date_format"`
	DefaultReminders json.RawMessage `json:"default_reminders"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Default returns the preferences materialized on first access.
func Default(userID string, now time.Time) Preferences {
	return Preferences{
		UserID:           userID,
		Theme:            "system",
		Language:         "en",
		TimeFormat:       "24h",
		DateFormat:       "YYYY-MM-DD",
		DefaultReminders: json.RawMessage(`{}`),
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}
}

// UpdateInput is the mutable subset of preferences.
type UpdateInput struct {
	Theme            *string         `json:"theme"`
	Language         *string         `json:"language"`
	TimeFormat       *string         `json:"time_format"`
	DateFormat       *string         `json:"date_format"`
	DefaultReminders json.RawMessage `json:"default_reminders"`
}

// Validate checks enumerated fields against their allowed values.
func (in UpdateInput) Validate() error {
	if in.Theme != nil && !contains(ValidThemes, *in.Theme) {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid theme. Must be light, dark, or system")
	}
	if in.Language != nil && !contains(ValidLanguages, *in.Language) {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid language code")
	}
	if in.TimeFormat != nil && !contains(ValidTimeFormats, *in.TimeFormat) {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid time format. Must be 12h or 24h")
	}
	return nil
}

// Apply copies the populated fields of the update onto p.
func (in UpdateInput) Apply(p *Preferences, now time.Time) {
	if in.Theme != nil {
		p.Theme = *in.Theme
	}
	if in.Language != nil {
		p.Language = *in.Language
	}
	if in.TimeFormat != nil {
		p.TimeFormat = *in.TimeFormat
	}
	if in.DateFormat != nil {
		p.DateFormat = *in.DateFormat
	}
	if len(in.DefaultReminders) > 0 {
		p.DefaultReminders = in.DefaultReminders
	}
	p.UpdatedAt = now.UTC()
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
