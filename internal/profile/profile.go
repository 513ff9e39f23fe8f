// Package profile defines the user profile record and its validation rules.
package profile

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
)

// AuthProviderGitHub marks profiles created through the GitHub OAuth flow.
const AuthProviderGitHub = "github"

// Profile is a user account record.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email,omitempty"`
	FullName       string    `json:"full_name,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Timezone       string    `json:"timezone"`
	GitHubUsername string    `json:"github_username,omitempty"`
	GitHubID       int64     `json:"github_id,omitempty"`
	AuthProvider   string    `json:"auth_provider,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GitHubData carries the provider fields written at OAuth sign-in.
type GitHubData struct {
	GitHubID       int64
	GitHubUsername string
	Email          string
	FullName       string
	AvatarURL      string
}

// Stats summarizes a user's recorded data for the profile page.
type Stats struct {
	SleepRecords int `json:"sleep_records"`
	Activities   int `json:"activities"`
	Goals        int `json:"goals"`
}

// UpdateInput is the mutable subset of a profile.
type UpdateInput struct {
	Email     *string `json:"email"`
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Timezone  *string `json:"timezone"`
}

// timezonePattern accepts IANA zone names such as Asia/Shanghai or UTC.
var timezonePattern = regexp.MustCompile(`^[A-Za-z_]+(?:/[A-Za-z0-9_+-]+)*$`)

// IsValidEmail reports whether value parses as an address.
func IsValidEmail(value string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	return err == nil && addr.Address == strings.TrimSpace(value)
}

// IsValidTimezone reports whether value looks like an IANA zone name.
func IsValidTimezone(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > 64 {
		return false
	}
	return timezonePattern.MatchString(value)
}

// Validate checks the mutable fields of an update.
func (in UpdateInput) Validate() error {
	if in.Email != nil && *in.Email != "" && !IsValidEmail(*in.Email) {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid email format")
	}
	if in.Timezone != nil && !IsValidTimezone(*in.Timezone) {
		return apperrors.New(apperrors.CodeValidationFailed, "Invalid timezone format")
	}
	return nil
}

// Apply copies the populated fields of the update onto p.
func (in UpdateInput) Apply(p *Profile, now time.Time) {
	if in.Email != nil {
		p.Email = strings.TrimSpace(*in.Email)
	}
	if in.FullName != nil {
		p.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}
	if in.Timezone != nil {
		p.Timezone = strings.TrimSpace(*in.Timezone)
	}
	p.UpdatedAt = now.UTC()
}
