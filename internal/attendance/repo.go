package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Record is one user's attendance for one calendar day. It is created on
// check-in (open, TimeOut nil) and mutated exactly once on check-out.
type Record struct {
	ID           int64
	UserID       int64
	Date         string // 2006-01-02
	TimeIn       string // 15:04:05
	TimeOut      *string
	LatitudeIn   float64
	LongitudeIn  float64
	LatitudeOut  *float64
	LongitudeOut *float64
	PhotoIn      string
	PhotoOut     *string
}

// LogEntry is one append-only audit row.
type LogEntry struct {
	UserID     int64
	Action     string
	OccurredAt time.Time
	Latitude   float64
	Longitude  float64
	Success    bool
	Reason     string
}

// Repository persists attendance records and audit logs in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the record for (user, date), or nil when none exists.
func (r *Repository) Get(ctx context.Context, userID int64, date string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, to_char(date, 'YYYY-MM-DD'), to_char(time_in, 'HH24:MI:SS'),
		       to_char(time_out, 'HH24:MI:SS'),
		       latitude_in, longitude_in, latitude_out, longitude_out,
		       COALESCE(photo_path_in, ''), photo_path_out
		FROM attendance
		WHERE user_id = $1 AND date = $2
	`, userID, date)
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.TimeIn, &rec.TimeOut,
		&rec.LatitudeIn, &rec.LongitudeIn, &rec.LatitudeOut, &rec.LongitudeOut,
		&rec.PhotoIn, &rec.PhotoOut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Open inserts a new open record and the check-in audit row in one
// transaction. The UNIQUE (user_id, date) constraint closes the race between
// concurrent check-ins: when the conflict fires no row is inserted, nothing
// is logged, and Open reports false.
func (r *Repository) Open(ctx context.Context, rec Record) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO attendance (user_id, date, time_in, latitude_in, longitude_in, photo_path_in)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, date) DO NOTHING
	`, rec.UserID, rec.Date, rec.TimeIn, rec.LatitudeIn, rec.LongitudeIn, rec.PhotoIn)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_logs (user_id, action, latitude, longitude, success)
		VALUES ($1, 'check_in', $2, $3, TRUE)
	`, rec.UserID, rec.LatitudeIn, rec.LongitudeIn); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// Close sets the check-out fields and appends the check-out audit row in one
// transaction. The time_out IS NULL guard makes the close idempotent: a
// record already closed (or never opened) leaves zero rows updated and
// nothing logged.
func (r *Repository) Close(ctx context.Context, userID int64, date, timeOut string, lat, lon float64, photo string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE attendance
		SET time_out = $3, latitude_out = $4, longitude_out = $5, photo_path_out = $6
		WHERE user_id = $1 AND date = $2 AND time_out IS NULL
	`, userID, date, timeOut, lat, lon, photo)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_logs (user_id, action, latitude, longitude, success)
		VALUES ($1, 'check_out', $2, $3, TRUE)
	`, userID, lat, lon); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// AppendLog writes one audit row. The worker uses it to persist failed
// attempts delivered over the queue.
func (r *Repository) AppendLog(ctx context.Context, entry LogEntry) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_logs (user_id, action, occurred_at, latitude, longitude, success, reason)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, entry.UserID, entry.Action, entry.OccurredAt, entry.Latitude, entry.Longitude, entry.Success, entry.Reason)
	return err
}

// PhotoPathsBefore returns all photo paths on records older than the cutoff
// date, for retention cleanup.
func (r *Repository) PhotoPathsBefore(ctx context.Context, cutoff string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(photo_path_in, ''), COALESCE(photo_path_out, '')
		FROM attendance
		WHERE date < $1 AND (photo_path_in IS NOT NULL OR photo_path_out IS NOT NULL)
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var in, out string
		if err := rows.Scan(&in, &out); err != nil {
			return nil, err
		}
		if in != "" {
			paths = append(paths, in)
		}
		if out != "" {
			paths = append(paths, out)
		}
	}
	return paths, rows.Err()
}

// ClearPhotoPathsBefore nulls photo references on records older than the
// cutoff date, after the files have been removed.
func (r *Repository) ClearPhotoPathsBefore(ctx context.Context, cutoff string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance SET photo_path_in = NULL, photo_path_out = NULL WHERE date < $1
	`, cutoff)
	return err
}

// PhotoStats counts stored photo references on either side of the cutoff.
func (r *Repository) PhotoStats(ctx context.Context, cutoff string) (old, recent int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(photo_path_in) FILTER (WHERE date <  $1) + COUNT(photo_path_out) FILTER (WHERE date <  $1),
			COUNT(photo_path_in) FILTER (WHERE date >= $1) + COUNT(photo_path_out) FILTER (WHERE date >= $1)
		FROM attendance
	`, cutoff).Scan(&old, &recent)
	return old, recent, err
}
