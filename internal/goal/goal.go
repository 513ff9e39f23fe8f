// Package goal manages recurring time goals.
package goal

import (
	"strings"
	"time"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
)

// Goal types.
const (
	TypeDaily   = "daily"
	TypeWeekly  = "weekly"
	TypeMonthly = "monthly"
)

// ValidTypes lists the accepted goal cadences.
var ValidTypes = []string{TypeDaily, TypeWeekly, TypeMonthly}

// Goal is a recurring target of hours per period.
type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	TargetHours float64   `json:"target_hours"`
	Category    string    `json:"category,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input is the client-supplied portion of a goal.
type Input struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	TargetHours float64 `json:"target_hours"`
	Category    string  `json:"category"`
	Active      *bool   `json:"active"`
}

// Validate checks required fields and ranges.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.New(apperrors.CodeValidationFailed, "Goal name is required")
	}
	if !validType(in.Type) {
		return apperrors.New(apperrors.CodeValidationFailed, "Goal type must be daily, weekly, or monthly")
	}
	if in.TargetHours <= 0 || in.TargetHours > 24 {
		return apperrors.New(apperrors.CodeValidationFailed, "Target hours must be between 0 and 24")
	}
	return nil
}

// Goal builds a full record from validated input. Goals default to
// active unless the input says otherwise.
func (in Input) Goal(id, userID string, now time.Time) Goal {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return Goal{
		ID:          id,
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		TargetHours: in.TargetHours,
		Category:    strings.TrimSpace(in.Category),
		Active:      active,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

func validType(value string) bool {
	for _, t := range ValidTypes {
		if t == value {
			return true
		}
	}
	return false
}
