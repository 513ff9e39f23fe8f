package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
	"github.com/saveole/timecal/internal/platform/id"
	"github.com/saveole/timecal/internal/profile"
)

const profileColumns = `id, email, full_name, avatar_url, timezone,
	github_username, COALESCE(github_id, 0), auth_provider, created_at, updated_at`

// UpsertGitHub creates or refreshes the profile row for a GitHub
// identity. The GitHub id is the stable key; username, avatar, and
// name track the provider on every sign-in, while email is only filled
// when empty so a user-chosen address survives.
func (s *Store) UpsertGitHub(ctx context.Context, data profile.GitHubData) (profile.Profile, error) {
	now := toMillis(s.clock())

	existing, err := s.getProfileBy(ctx, "github_id = ?", data.GitHubID)
	switch {
	case err == nil:
		_, err = s.db.ExecContext(ctx, `
			UPDATE profiles
			SET github_username = ?, full_name = ?, avatar_url = ?,
			    email = CASE WHEN email = '' THEN ? ELSE email END,
			    updated_at = ?
			WHERE id = ?`,
			data.GitHubUsername, data.FullName, data.AvatarURL, data.Email, now, existing.ID)
		if err != nil {
			return profile.Profile{}, fmt.Errorf("update profile: %w", err)
		}
		return s.Get(ctx, existing.ID)

	case apperrors.CodeOf(err) == apperrors.CodeNotFound:
		newID, err := id.NewID()
		if err != nil {
			return profile.Profile{}, fmt.Errorf("new profile id: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO profiles (id, email, full_name, avatar_url, timezone,
				github_username, github_id, auth_provider, created_at, updated_at)
			VALUES (?, ?, ?, ?, 'UTC', ?, ?, ?, ?, ?)`,
			newID, data.Email, data.FullName, data.AvatarURL,
			data.GitHubUsername, data.GitHubID, profile.AuthProviderGitHub, now, now)
		if err != nil {
			if isUniqueViolation(err) {
				// Concurrent first sign-in; the other writer won.
				return s.getProfileBy(ctx, "github_id = ?", data.GitHubID)
			}
			return profile.Profile{}, fmt.Errorf("insert profile: %w", err)
		}
		return s.Get(ctx, newID)

	default:
		return profile.Profile{}, err
	}
}

// Get loads a profile by id.
func (s *Store) Get(ctx context.Context, userID string) (profile.Profile, error) {
	return s.getProfileBy(ctx, "id = ?", userID)
}

// UpdateProfile applies the mutable profile fields.
func (s *Store) UpdateProfile(ctx context.Context, userID string, in profile.UpdateInput) (profile.Profile, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return profile.Profile{}, err
	}
	in.Apply(&current, s.clock())

	_, err = s.db.ExecContext(ctx, `
		UPDATE profiles
		SET email = ?, full_name = ?, avatar_url = ?, timezone = ?, updated_at = ?
		WHERE id = ?`,
		current.Email, current.FullName, current.AvatarURL, current.Timezone,
		toMillis(current.UpdatedAt), userID)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, userID)
}

// ProfileStats counts the user's recorded data.
func (s *Store) ProfileStats(ctx context.Context, userID string) (profile.Stats, error) {
	var stats profile.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sleep_records WHERE user_id = ?),
			(SELECT COUNT(*) FROM activities WHERE user_id = ?),
			(SELECT COUNT(*) FROM goals WHERE user_id = ?)`,
		userID, userID, userID,
	).Scan(&stats.SleepRecords, &stats.Activities, &stats.Goals)
	if err != nil {
		return profile.Stats{}, fmt.Errorf("count profile stats: %w", err)
	}
	return stats, nil
}

func (s *Store) getProfileBy(ctx context.Context, where string, arg any) (profile.Profile, error) {
	var (
		p                  profile.Profile
		createdAt, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE "+where, arg,
	).Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.Timezone,
		&p.GitHubUsername, &p.GitHubID, &p.AuthProvider, &createdAt, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Profile{}, notFound("profile not found")
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("query profile: %w", err)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}
