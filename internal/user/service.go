package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials  = errors.New("invalid username or password")
	ErrInactiveAccount = errors.New("account is deactivated")
	ErrSelfTarget      = errors.New("cannot modify own account this way")
)

// ValidationError marks a rejected input so the handler can answer 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Service wraps account rules around the repository.
type Service struct {
	repo *Repository
}

// NewService creates the service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate checks credentials and returns the account. Deactivated
// accounts cannot sign in.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.ByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		// Burn a comparison anyway so a missing user costs the same.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000"), []byte(password))
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	if !u.Active {
		return User{}, ErrInactiveAccount
	}
	return u, nil
}

// Register creates a regular user account. Self-registration requires a
// class so reports can group the account from day one.
func (s *Service) Register(ctx context.Context, username, password, fullName string, email *string, classID *int64) (User, error) {
	if classID == nil {
		return User{}, &ValidationError{Field: "class_id", Reason: "must be set"}
	}
	return s.create(ctx, username, password, fullName, email, classID, "user")
}

// Create creates an account with an explicit role, for admin use.
func (s *Service) Create(ctx context.Context, username, password, fullName string, email *string, classID *int64, role string) (User, error) {
	if role != "user" && role != "admin" {
		return User{}, &ValidationError{Field: "role", Reason: "must be user or admin"}
	}
	return s.create(ctx, username, password, fullName, email, classID, role)
}

func (s *Service) create(ctx context.Context, username, password, fullName string, email *string, classID *int64, role string) (User, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)
	if err := validUsername(username); err != nil {
		return User{}, err
	}
	if err := validPassword(password); err != nil {
		return User{}, err
	}
	if fullName == "" {
		return User{}, &ValidationError{Field: "full_name", Reason: "must not be empty"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.Create(ctx, username, string(hash), fullName, email, classID, role)
}

// UpdateRequest carries the admin edit form. Nil fields are untouched.
type UpdateRequest struct {
	FullName   *string
	Email      *string
	ClassID    *int64
	ClearClass bool
	Password   *string
	Role       *string
}

// Update applies an admin edit. Admins cannot change their own role.
func (s *Service) Update(ctx context.Context, actorID, targetID int64, req UpdateRequest) (User, error) {
	if req.Role != nil && actorID == targetID {
		return User{}, ErrSelfTarget
	}
	if req.Role != nil && *req.Role != "user" && *req.Role != "admin" {
		return User{}, &ValidationError{Field: "role", Reason: "must be user or admin"}
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return User{}, &ValidationError{Field: "full_name", Reason: "must not be empty"}
	}

	p := Patch{
		FullName:   req.FullName,
		Email:      req.Email,
		ClassID:    req.ClassID,
		ClearClass: req.ClearClass,
		Role:       req.Role,
	}
	if req.Password != nil {
		if err := validPassword(*req.Password); err != nil {
			return User{}, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		h := string(hash)
		p.PasswordHash = &h
	}
	return s.repo.Update(ctx, targetID, p)
}

// ToggleActive flips the account's active flag. Admins cannot deactivate
// themselves.
func (s *Service) ToggleActive(ctx context.Context, actorID, targetID int64) (bool, error) {
	if actorID == targetID {
		return false, ErrSelfTarget
	}
	return s.repo.ToggleActive(ctx, targetID)
}

// Delete removes the account and returns photo paths for file cleanup.
// Admins cannot delete themselves.
func (s *Service) Delete(ctx context.Context, actorID, targetID int64) ([]string, error) {
	if actorID == targetID {
		return nil, ErrSelfTarget
	}
	return s.repo.Delete(ctx, targetID)
}

// UsernameAvailable reports whether the username is free.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.ByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// List returns all non-admin users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Detail returns one user with attendance stats.
func (s *Service) Detail(ctx context.Context, id int64) (Detail, error) {
	return s.repo.DetailByID(ctx, id)
}

// ByID returns one user.
func (s *Service) ByID(ctx context.Context, id int64) (User, error) {
	return s.repo.ByID(ctx, id)
}

// Classes returns active classes.
func (s *Service) Classes(ctx context.Context) ([]Class, error) {
	return s.repo.Classes(ctx)
}

func validUsername(username string) error {
	if len(username) < 3 {
		return &ValidationError{Field: "username", Reason: "must be at least 3 characters"}
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return &ValidationError{Field: "username", Reason: "only letters, digits, underscore and dot allowed"}
		}
	}
	return nil
}

func validPassword(password string) error {
	if len(password) < 6 {
		return &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return &ValidationError{Field: "password", Reason: "must contain a letter and a digit"}
	}
	return nil
}
