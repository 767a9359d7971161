package geofence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Validation bounds for zone creation, matching the admin UI limits.
const (
	MinRadiusM = 10
	MaxRadiusM = 1000
)

var (
	ErrZoneNotFound  = errors.New("zone not found")
	ErrDuplicateName = errors.New("zone name already in use")
	ErrInvalidZone   = errors.New("invalid zone")
)

// Repository persists zones in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Active returns all zones currently usable for geofence checks.
func (r *Repository) Active(ctx context.Context) ([]Zone, error) {
	return r.list(ctx, `SELECT id, name, latitude, longitude, radius_m, active FROM zones WHERE active ORDER BY id`)
}

// List returns every zone, newest first, for the admin view.
func (r *Repository) List(ctx context.Context) ([]Zone, error) {
	return r.list(ctx, `SELECT id, name, latitude, longitude, radius_m, active FROM zones ORDER BY id DESC`)
}

func (r *Repository) list(ctx context.Context, query string) ([]Zone, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var zones []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.Latitude, &z.Longitude, &z.RadiusM, &z.Active); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// Create validates and inserts a new zone. Names are unique case-insensitively.
func (r *Repository) Create(ctx context.Context, z Zone) (Zone, error) {
	if err := validate(z); err != nil {
		return Zone{}, err
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM zones WHERE LOWER(name) = LOWER($1))`, z.Name,
	).Scan(&exists); err != nil {
		return Zone{}, err
	}
	if exists {
		return Zone{}, ErrDuplicateName
	}
	z.Active = true
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO zones (name, latitude, longitude, radius_m, active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id
	`, z.Name, z.Latitude, z.Longitude, z.RadiusM).Scan(&z.ID)
	if err != nil {
		return Zone{}, err
	}
	return z, nil
}

// Update replaces a zone's name, center and radius.
func (r *Repository) Update(ctx context.Context, z Zone) error {
	if err := validate(z); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE zones
		SET name = $2, latitude = $3, longitude = $4, radius_m = $5, updated_at = NOW()
		WHERE id = $1
	`, z.ID, z.Name, z.Latitude, z.Longitude, z.RadiusM)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ToggleActive flips a zone's active flag and returns the new state.
func (r *Repository) ToggleActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.db.QueryRowContext(ctx, `
		UPDATE zones SET active = NOT active, updated_at = NOW()
		WHERE id = $1
		RETURNING active
	`, id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrZoneNotFound
	}
	return active, err
}

// Delete removes a zone permanently.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func validate(z Zone) error {
	if z.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalidZone)
	}
	if !ValidCoordinate(z.Latitude, z.Longitude) {
		return fmt.Errorf("%w: coordinate out of range", ErrInvalidZone)
	}
	if z.RadiusM < MinRadiusM || z.RadiusM > MaxRadiusM {
		return fmt.Errorf("%w: radius must be between %d and %d meters", ErrInvalidZone, MinRadiusM, MaxRadiusM)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrZoneNotFound
	}
	return nil
}
