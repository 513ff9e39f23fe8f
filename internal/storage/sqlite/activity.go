package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/saveole/timecal/internal/activity"
	"github.com/saveole/timecal/internal/platform/id"
)

const activityColumns = `id, user_id, name, category, start_time, end_time,
	duration_minutes, notes, created_at, updated_at`

// CreateActivity inserts a new activity, running or finished.
func (s *Store) CreateActivity(ctx context.Context, userID string, in activity.Input) (activity.Activity, error) {
	newID, err := id.NewID()
	if err != nil {
		return activity.Activity{}, fmt.Errorf("new activity id: %w", err)
	}
	a := in.Activity(newID, userID, s.clock())

	var endMillis any
	if a.EndTime != nil {
		endMillis = toMillis(*a.EndTime)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, name, category, start_time, end_time,
			duration_minutes, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, a.Category, toMillis(a.StartTime), endMillis,
		a.DurationMins, a.Notes, toMillis(a.CreatedAt), toMillis(a.UpdatedAt))
	if err != nil {
		return activity.Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

// GetActivity loads one activity owned by userID.
func (s *Store) GetActivity(ctx context.Context, userID, activityID string) (activity.Activity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE id = ? AND user_id = ?",
		activityID, userID)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return activity.Activity{}, notFound("activity not found")
	}
	if err != nil {
		return activity.Activity{}, fmt.Errorf("query activity: %w", err)
	}
	return a, nil
}

// ListActivities returns activities newest-first. When runningOnly is
// set, only open activities are returned.
func (s *Store) ListActivities(ctx context.Context, userID string, runningOnly bool, limit int) ([]activity.Activity, error) {
	query := "SELECT " + activityColumns + " FROM activities WHERE user_id = ?"
	args := []any{userID}
	if runningOnly {
		query += " AND end_time IS NULL"
	}
	query += " ORDER BY start_time DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := []activity.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// UpdateActivity replaces the mutable fields of an activity.
func (s *Store) UpdateActivity(ctx context.Context, userID, activityID string, in activity.Input) (activity.Activity, error) {
	current, err := s.GetActivity(ctx, userID, activityID)
	if err != nil {
		return activity.Activity{}, err
	}
	updated := in.Activity(current.ID, current.UserID, s.clock())
	updated.CreatedAt = current.CreatedAt

	var endMillis any
	if updated.EndTime != nil {
		endMillis = toMillis(*updated.EndTime)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE activities
		SET name = ?, category = ?, start_time = ?, end_time = ?,
		    duration_minutes = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		updated.Name, updated.Category, toMillis(updated.StartTime), endMillis,
		updated.DurationMins, updated.Notes, toMillis(updated.UpdatedAt),
		activityID, userID)
	if err != nil {
		return activity.Activity{}, fmt.Errorf("update activity: %w", err)
	}
	return updated, nil
}

// StopActivity closes a running activity. A zero end time stops it
// now.
func (s *Store) StopActivity(ctx context.Context, userID, activityID string, end time.Time) (activity.Activity, error) {
	a, err := s.GetActivity(ctx, userID, activityID)
	if err != nil {
		return activity.Activity{}, err
	}
	if end.IsZero() {
		end = s.clock()
	}
	if err := a.Stop(end, s.clock()); err != nil {
		return activity.Activity{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE activities
		SET end_time = ?, duration_minutes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		toMillis(*a.EndTime), a.DurationMins, toMillis(a.UpdatedAt), activityID, userID)
	if err != nil {
		return activity.Activity{}, fmt.Errorf("stop activity: %w", err)
	}
	return a, nil
}

// DeleteActivity removes an activity owned by userID.
func (s *Store) DeleteActivity(ctx context.Context, userID, activityID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM activities WHERE id = ? AND user_id = ?", activityID, userID)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if affected == 0 {
		return notFound("activity not found")
	}
	return nil
}

func scanActivity(row rowScanner) (activity.Activity, error) {
	var (
		a                  activity.Activity
		startMillis        int64
		endMillis          sql.NullInt64
		createdAt, updated int64
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Category, &startMillis, &endMillis,
		&a.DurationMins, &a.Notes, &createdAt, &updated)
	if err != nil {
		return activity.Activity{}, err
	}
	a.StartTime = fromMillis(startMillis)
	if endMillis.Valid {
		end := fromMillis(endMillis.Int64)
		a.EndTime = &end
	}
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updated)
	return a, nil
}
