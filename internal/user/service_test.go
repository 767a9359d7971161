package user

import (
	"errors"
	"testing"
)

func TestValidUsername(t *testing.T) {
	tests := []struct {
		username string
		ok       bool
	}{
		{"budi", true},
		{"budi_07", true},
		{"b.santoso", true},
		{"ab", false},
		{"budi santoso", false},
		{"budi!", false},
		{"", false},
	}
	for _, tt := range tests {
		err := validUsername(tt.username)
		if tt.ok && err != nil {
			t.Errorf("validUsername(%q) = %v, want nil", tt.username, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("validUsername(%q) = nil, want error", tt.username)
		}
	}
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"abc123", true},
		{"p4ssword", true},
		{"abc12", false},   // too short
		{"abcdef", false},  // no digit
		{"123456", false},  // no letter
		{"", false},
	}
	for _, tt := range tests {
		err := validPassword(tt.password)
		if tt.ok && err != nil {
			t.Errorf("validPassword(%q) = %v, want nil", tt.password, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("validPassword(%q) = nil, want error", tt.password)
		}
	}
}

func TestValidationErrorType(t *testing.T) {
	err := validPassword("short")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error %v is not a ValidationError", err)
	}
	if vErr.Field != "password" {
		t.Errorf("field = %q, want password", vErr.Field)
	}
}

func TestRegisterRequiresClass(t *testing.T) {
	s := NewService(nil)
	_, err := s.Register(nil, "budi", "abc123", "Budi Santoso", nil, nil)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "class_id" {
		t.Errorf("err = %v, want class_id validation error", err)
	}
}

func TestSelfTargetGuards(t *testing.T) {
	s := NewService(nil)

	if _, err := s.ToggleActive(nil, 5, 5); !errors.Is(err, ErrSelfTarget) {
		t.Errorf("toggle self: err = %v, want ErrSelfTarget", err)
	}
	if _, err := s.Delete(nil, 5, 5); !errors.Is(err, ErrSelfTarget) {
		t.Errorf("delete self: err = %v, want ErrSelfTarget", err)
	}
	role := "user"
	if _, err := s.Update(nil, 5, 5, UpdateRequest{Role: &role}); !errors.Is(err, ErrSelfTarget) {
		t.Errorf("demote self: err = %v, want ErrSelfTarget", err)
	}
}
