package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
	"github.com/saveole/timecal/internal/platform/id"
	"github.com/saveole/timecal/internal/sleep"
)

const sleepColumns = `id, user_id, date, bedtime, wake_time, duration_minutes,
	COALESCE(quality, 0), notes, created_at, updated_at`

// CreateSleep inserts a new record. A record already existing for the
// same user and date is a conflict.
func (s *Store) CreateSleep(ctx context.Context, userID string, in sleep.Input) (sleep.Record, error) {
	newID, err := id.NewID()
	if err != nil {
		return sleep.Record{}, fmt.Errorf("new sleep id: %w", err)
	}
	rec := in.Record(newID, userID, s.clock())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sleep_records (id, user_id, date, bedtime, wake_time,
			duration_minutes, quality, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Date, rec.Bedtime, rec.WakeTime,
		rec.DurationMins, nullableInt(rec.Quality), rec.Notes,
		toMillis(rec.CreatedAt), toMillis(rec.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return sleep.Record{}, sleepConflict(rec.Date)
		}
		return sleep.Record{}, fmt.Errorf("insert sleep record: %w", err)
	}
	return rec, nil
}

// GetSleep loads one record owned by userID.
func (s *Store) GetSleep(ctx context.Context, userID, recordID string) (sleep.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sleepColumns+" FROM sleep_records WHERE id = ? AND user_id = ?",
		recordID, userID)
	rec, err := scanSleep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sleep.Record{}, notFound("sleep record not found")
	}
	if err != nil {
		return sleep.Record{}, fmt.Errorf("query sleep record: %w", err)
	}
	return rec, nil
}

// ListSleep returns records newest-first, optionally bounded by an
// inclusive date range.
func (s *Store) ListSleep(ctx context.Context, userID, startDate, endDate string, limit int) ([]sleep.Record, error) {
	query := "SELECT " + sleepColumns + " FROM sleep_records WHERE user_id = ?"
	args := []any{userID}
	if startDate != "" {
		query += " AND date >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND date <= ?"
		args = append(args, endDate)
	}
	query += " ORDER BY date DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sleep records: %w", err)
	}
	defer rows.Close()

	records := []sleep.Record{}
	for rows.Next() {
		rec, err := scanSleep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sleep record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateSleep replaces the mutable fields of a record.
func (s *Store) UpdateSleep(ctx context.Context, userID, recordID string, in sleep.Input) (sleep.Record, error) {
	current, err := s.GetSleep(ctx, userID, recordID)
	if err != nil {
		return sleep.Record{}, err
	}
	updated := in.Record(current.ID, current.UserID, s.clock())
	updated.CreatedAt = current.CreatedAt

	_, err = s.db.ExecContext(ctx, `
		UPDATE sleep_records
		SET date = ?, bedtime = ?, wake_time = ?, duration_minutes = ?,
		    quality = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		updated.Date, updated.Bedtime, updated.WakeTime, updated.DurationMins,
		nullableInt(updated.Quality), updated.Notes, toMillis(updated.UpdatedAt),
		recordID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return sleep.Record{}, sleepConflict(updated.Date)
		}
		return sleep.Record{}, fmt.Errorf("update sleep record: %w", err)
	}
	return updated, nil
}

// DeleteSleep removes a record owned by userID.
func (s *Store) DeleteSleep(ctx context.Context, userID, recordID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM sleep_records WHERE id = ? AND user_id = ?", recordID, userID)
	if err != nil {
		return fmt.Errorf("delete sleep record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sleep record: %w", err)
	}
	if affected == 0 {
		return notFound("sleep record not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSleep(row rowScanner) (sleep.Record, error) {
	var (
		rec                sleep.Record
		createdAt, updated int64
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.Bedtime, &rec.WakeTime,
		&rec.DurationMins, &rec.Quality, &rec.Notes, &createdAt, &updated)
	if err != nil {
		return sleep.Record{}, err
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updated)
	return rec, nil
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}

// sleepConflict reports the one-record-per-night violation, carrying
// the disputed date for clients that want to link to it.
func sleepConflict(date string) error {
	return apperrors.WithMetadata(apperrors.CodeConflict,
		"A sleep record already exists for this date",
		map[string]string{"date": date})
}
