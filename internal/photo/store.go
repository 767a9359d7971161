// Package photo stores uploaded images on local disk. A photo is written
// before the ledger transaction that references it commits, and removed
// synchronously whenever that transaction fails or the request is rejected.
package photo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}

// AllowedFile reports whether the upload filename has an accepted image extension.
func AllowedFile(filename string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(filename))]
}

// Store writes photos under a base directory.
type Store struct {
	dir string
}

// NewStore creates the base directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the image and returns its path. The name embeds the user id
// and timestamp for traceability plus a uuid to avoid collisions.
func (s *Store) Save(userID int64, label string, data []byte) (string, error) {
	name := fmt.Sprintf("%d_%s_%s_%s.jpg",
		userID, label, time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return path, nil
}

// Remove deletes a stored photo. A missing file is not an error: retention
// cleanup may have raced us.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
