// Package activity tracks timed activities.
package activity

import (
	"strings"
	"time"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
)

// Activity is one tracked span of time. EndTime is nil while the
// activity is running.
type Activity struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Category     string     `json:"category,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationMins int        `json:"duration_minutes,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Running reports whether the activity has not been stopped yet.
func (a Activity) Running() bool { return a.EndTime == nil }

// Input is the client-supplied portion of an activity.
type Input struct {
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Notes     string     `json:"notes"`
}

// Validate checks required fields and time ordering.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.New(apperrors.CodeValidationFailed, "Activity name is required")
	}
	if in.StartTime.IsZero() {
		return apperrors.New(apperrors.CodeValidationFailed, "Start time is required")
	}
	if in.EndTime != nil && !in.EndTime.After(in.StartTime) {
		return apperrors.New(apperrors.CodeValidationFailed, "End time must be after start time")
	}
	return nil
}

// Activity builds a full record from validated input, deriving the
// duration when an end time is present.
func (in Input) Activity(id, userID string, now time.Time) Activity {
	a := Activity{
		ID:        id,
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Category:  strings.TrimSpace(in.Category),
		StartTime: in.StartTime.UTC(),
		Notes:     in.Notes,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if in.EndTime != nil {
		end := in.EndTime.UTC()
		a.EndTime = &end
		a.DurationMins = int(end.Sub(a.StartTime) / time.Minute)
	}
	return a
}

// Stop closes a running activity at end and derives its duration.
func (a *Activity) Stop(end, now time.Time) error {
	if a.EndTime != nil {
		return apperrors.New(apperrors.CodeConflict, "Activity is already stopped")
	}
	if !end.After(a.StartTime) {
		return apperrors.New(apperrors.CodeValidationFailed, "End time must be after start time")
	}
	stopped := end.UTC()
	a.EndTime = &stopped
	a.DurationMins = int(stopped.Sub(a.StartTime) / time.Minute)
	a.UpdatedAt = now.UTC()
	return nil
}
