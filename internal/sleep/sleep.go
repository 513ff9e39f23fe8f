// Package sleep tracks nightly sleep records.
package sleep

import (
	"fmt"
	"regexp"
	"time"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// Record is one night of sleep. Date identifies the night; a user has
// at most one record per date.
type Record struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Date         string    `json:"date"`
	Bedtime      string    `json:"bedtime"`
	WakeTime     string    `json:"wake_time"`
	DurationMins int       `json:"duration_minutes"`
	Quality      int       `json:"quality,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Input is the client-supplied portion of a record.
type Input struct {
	Date     string `json:"date"`
	Bedtime  string `json:"bedtime"`
	WakeTime string `json:"wake_time"`
	Quality  int    `json:"quality"`
	Notes    string `json:"notes"`
}

// Validate checks formats and ranges.
func (in Input) Validate() error {
	if !datePattern.MatchString(in.Date) {
		return apperrors.New(apperrors.CodeValidationFailed, "Date must be in YYYY-MM-DD format")
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid date")
	}
	if !timePattern.MatchString(in.Bedtime) {
		return apperrors.New(apperrors.CodeValidationFailed, "Bedtime must be in HH:MM format")
	}
	if !timePattern.MatchString(in.WakeTime) {
		return apperrors.New(apperrors.CodeValidationFailed, "Wake time must be in HH:MM format")
	}
	if in.Quality != 0 && (in.Quality < 1 || in.Quality > 5) {
		return apperrors.New(apperrors.CodeValidationFailed, "Quality must be between 1 and 5")
	}
	return nil
}

// Duration computes sleep length in minutes. A wake time at or before
// the bedtime is read as crossing midnight.
func (in Input) Duration() int {
	bed := minutesOfDay(in.Bedtime)
	wake := minutesOfDay(in.WakeTime)
	if wake <= bed {
		wake += 24 * 60
	}
	return wake - bed
}

// Record builds a full record from validated input.
func (in Input) Record(id, userID string, now time.Time) Record {
	return Record{
		ID:           id,
		UserID:       userID,
		Date:         in.Date,
		Bedtime:      in.Bedtime,
		WakeTime:     in.WakeTime,
		DurationMins: in.Duration(),
		Quality:      in.Quality,
		Notes:        in.Notes,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
}

func minutesOfDay(value string) int {
	var h, m int
	fmt.Sscanf(value, "%d:%d", &h, &m)
	return h*60 + m
}
