package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/saveole/timecal/internal/goal"
	"github.com/saveole/timecal/internal/platform/id"
)

const goalColumns = `id, user_id, name, type, target_hours, category,
	active, created_at, updated_at`

// CreateGoal inserts a new goal.
func (s *Store) CreateGoal(ctx context.Context, userID string, in goal.Input) (goal.Goal, error) {
	newID, err := id.NewID()
	if err != nil {
		return goal.Goal{}, fmt.Errorf("new goal id: %w", err)
	}
	g := in.Goal(newID, userID, s.clock())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, name, type, target_hours, category,
			active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.Type, g.TargetHours, g.Category,
		g.Active, toMillis(g.CreatedAt), toMillis(g.UpdatedAt))
	if err != nil {
		return goal.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

// GetGoal loads one goal owned by userID.
func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (goal.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE id = ? AND user_id = ?",
		goalID, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return goal.Goal{}, notFound("goal not found")
	}
	if err != nil {
		return goal.Goal{}, fmt.Errorf("query goal: %w", err)
	}
	return g, nil
}

// ListGoals returns goals newest-first. When activeOnly is set,
// inactive goals are filtered out.
func (s *Store) ListGoals(ctx context.Context, userID string, activeOnly bool) ([]goal.Goal, error) {
	query := "SELECT " + goalColumns + " FROM goals WHERE user_id = ?"
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	goals := []goal.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateGoal replaces the mutable fields of a goal.
func (s *Store) UpdateGoal(ctx context.Context, userID, goalID string, in goal.Input) (goal.Goal, error) {
	current, err := s.GetGoal(ctx, userID, goalID)
	if err != nil {
		return goal.Goal{}, err
	}
	updated := in.Goal(current.ID, current.UserID, s.clock())
	updated.CreatedAt = current.CreatedAt
	if in.Active == nil {
		updated.Active = current.Active
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE goals
		SET name = ?, type = ?, target_hours = ?, category = ?, active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		updated.Name, updated.Type, updated.TargetHours, updated.Category,
		updated.Active, toMillis(updated.UpdatedAt), goalID, userID)
	if err != nil {
		return goal.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	return updated, nil
}

// DeleteGoal removes a goal owned by userID.
func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM goals WHERE id = ? AND user_id = ?", goalID, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if affected == 0 {
		return notFound("goal not found")
	}
	return nil
}

func scanGoal(row rowScanner) (goal.Goal, error) {
	var (
		g                  goal.Goal
		createdAt, updated int64
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Type, &g.TargetHours,
		&g.Category, &g.Active, &createdAt, &updated)
	if err != nil {
		return goal.Goal{}, err
	}
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updated)
	return g, nil
}
