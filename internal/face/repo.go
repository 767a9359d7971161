package face

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Profile is one entry in a user's face enrollment history. At most one
// profile per user is active at any time; replaced profiles are kept as
// deactivated rows, never overwritten.
type Profile struct {
	ID        int64
	UserID    int64
	Encoding  Encoding
	PhotoPath string
	Active    bool
}

// Repository persists face profiles in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ActiveEncoding returns the user's active profile encoding, or nil when the
// user has never enrolled (or removed their enrollment).
func (r *Repository) ActiveEncoding(ctx context.Context, userID int64) (Encoding, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `
		SELECT encoding FROM face_profiles
		WHERE user_id = $1 AND active
		ORDER BY id DESC
		LIMIT 1
	`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var enc Encoding
	if err := json.Unmarshal([]byte(raw), &enc); err != nil {
		return nil, fmt.Errorf("corrupt stored encoding for user %d: %w", userID, err)
	}
	return enc, nil
}

// HasActive reports whether the user has an active profile.
func (r *Repository) HasActive(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM face_profiles WHERE user_id = $1 AND active)`, userID,
	).Scan(&exists)
	return exists, err
}

// Enroll deactivates any prior profiles and inserts the new active one in a
// single transaction, so the history never has two active rows.
func (r *Repository) Enroll(ctx context.Context, userID int64, enc Encoding, photoPath string) (int64, error) {
	raw, err := json.Marshal(enc)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE face_profiles SET active = FALSE WHERE user_id = $1 AND active`, userID,
	); err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO face_profiles (user_id, encoding, photo_path, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id
	`, userID, string(raw), photoPath).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// Deactivate disables all profiles for a user and returns the photo paths of
// the rows that were active, so the caller can remove the files.
func (r *Repository) Deactivate(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE face_profiles SET active = FALSE
		WHERE user_id = $1 AND active
		RETURNING COALESCE(photo_path, '')
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, rows.Err()
}
