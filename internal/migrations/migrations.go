// Package migrations holds the schema as embedded SQL statements executed
// in order at startup. Statements are idempotent so the binary can run
// against a fresh or an existing database.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS classes (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT,
		class_id BIGINT REFERENCES classes(id) ON DELETE SET NULL,
		role TEXT NOT NULL DEFAULT 'user',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS zones (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		radius_m INTEGER NOT NULL DEFAULT 100,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS face_profiles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		encoding TEXT NOT NULL,
		photo_path TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		time_in TIME NOT NULL,
		time_out TIME,
		latitude_in DOUBLE PRECISION,
		longitude_in DOUBLE PRECISION,
		latitude_out DOUBLE PRECISION,
		longitude_out DOUBLE PRECISION,
		photo_path_in TEXT,
		photo_path_out TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS attendance_logs (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		action TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		success BOOLEAN NOT NULL DEFAULT TRUE,
		reason TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_user_date ON attendance(user_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date)`,
	`CREATE INDEX IF NOT EXISTS idx_users_class ON users(class_id)`,
	`CREATE INDEX IF NOT EXISTS idx_zones_active ON zones(active)`,
	`CREATE INDEX IF NOT EXISTS idx_face_profiles_user ON face_profiles(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_user_time ON attendance_logs(user_id, occurred_at)`,
}

// Run executes all schema statements in order.
func Run(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
