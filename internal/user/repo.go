package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// User is one account row. PasswordHash never leaves the package.
type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	FullName     string  `json:"full_name"`
	Email        *string `json:"email"`
	ClassID      *int64  `json:"class_id"`
	ClassName    string  `json:"class_name"`
	Role         string  `json:"role"`
	Active       bool    `json:"active"`
	FaceEnrolled bool    `json:"face_enrolled"`
	LastSeen     *string `json:"last_attendance"`

	passwordHash string
}

// Class is one class row.
type Class struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// Detail extends User with attendance stats for the admin detail view.
type Detail struct {
	User
	TotalAttendance int `json:"total_attendance"`
	CompleteDays    int `json:"complete_days"`
}

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

// Repository persists users and classes in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `
	u.id, u.username, u.password_hash, u.full_name, u.email, u.class_id,
	COALESCE(c.name, '-'), u.role, u.active,
	EXISTS (SELECT 1 FROM face_profiles fp WHERE fp.user_id = u.id AND fp.active),
	(SELECT to_char(MAX(a.date), 'YYYY-MM-DD') FROM attendance a WHERE a.user_id = u.id)`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.passwordHash, &u.FullName, &u.Email,
		&u.ClassID, &u.ClassName, &u.Role, &u.Active, &u.FaceEnrolled, &u.LastSeen)
	return u, err
}

// ByUsername returns the user with the given username, or ErrNotFound.
func (r *Repository) ByUsername(ctx context.Context, username string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users u LEFT JOIN classes c ON c.id = u.class_id
		WHERE u.username = $1
	`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// ByID returns the user with the given id, or ErrNotFound.
func (r *Repository) ByID(ctx context.Context, id int64) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users u LEFT JOIN classes c ON c.id = u.class_id
		WHERE u.id = $1
	`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// List returns all non-admin users ordered by name.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users u LEFT JOIN classes c ON c.id = u.class_id
		WHERE u.role <> 'admin'
		ORDER BY u.full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// DetailByID returns the user with attendance stats.
func (r *Repository) DetailByID(ctx context.Context, id int64) (Detail, error) {
	u, err := r.ByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	d := Detail{User: u}
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(time_out)
		FROM attendance WHERE user_id = $1
	`, id).Scan(&d.TotalAttendance, &d.CompleteDays)
	return d, err
}

// Create inserts a user and returns it. Duplicate usernames map to
// ErrDuplicateUsername.
func (r *Repository) Create(ctx context.Context, username, passwordHash, fullName string, email *string, classID *int64, role string) (User, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username,
	).Scan(&exists); err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrDuplicateUsername
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, full_name, email, class_id, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, username, passwordHash, fullName, email, classID, role).Scan(&id)
	if err != nil {
		return User{}, err
	}
	return r.ByID(ctx, id)
}

// Patch lists the fields an update may change. Nil fields are left alone, so
// the caller states exactly what it wants changed.
type Patch struct {
	FullName     *string
	Email        *string
	ClassID      *int64
	ClearClass   bool
	PasswordHash *string
	Role         *string
}

// Update applies a patch to the user.
func (r *Repository) Update(ctx context.Context, id int64, p Patch) (User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.FullName != nil {
		add("full_name", *p.FullName)
	}
	if p.Email != nil {
		add("email", *p.Email)
	}
	if p.ClearClass {
		sets = append(sets, "class_id = NULL")
	} else if p.ClassID != nil {
		add("class_id", *p.ClassID)
	}
	if p.PasswordHash != nil {
		add("password_hash", *p.PasswordHash)
	}
	if p.Role != nil {
		add("role", *p.Role)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return User{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if n == 0 {
		return User{}, ErrNotFound
	}
	return r.ByID(ctx, id)
}

// ToggleActive flips the active flag and returns the new value.
func (r *Repository) ToggleActive(ctx context.Context, id int64) (bool, error) {
	var active bool
	err := r.db.QueryRowContext(ctx, `
		UPDATE users SET active = NOT active, updated_at = NOW()
		WHERE id = $1 RETURNING active
	`, id).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	return active, err
}

// Delete removes the user. Attendance, logs and face profiles go with the
// row via ON DELETE CASCADE; the returned paths are the files the caller
// must remove from disk.
func (r *Repository) Delete(ctx context.Context, id int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT path FROM (
			SELECT photo_path AS path FROM face_profiles WHERE user_id = $1
			UNION ALL
			SELECT photo_path_in FROM attendance WHERE user_id = $1
			UNION ALL
			SELECT photo_path_out FROM attendance WHERE user_id = $1
		) p WHERE path IS NOT NULL AND path <> ''
	`, id)
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
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return paths, nil
}

// Classes returns active classes ordered by name.
func (r *Repository) Classes(ctx context.Context) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, active FROM classes WHERE active ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []Class{}
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Active); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}
