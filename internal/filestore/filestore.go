// Package filestore keeps uploaded receipt blobs on disk, addressed by an
// opaque handle. The handle is what ends up in the draft's attachment list.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store is a flat directory of attachment blobs.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes data under a fresh handle and returns the handle.
func (s *Store) Save(data []byte) (string, error) {
	id := uuid.NewString()
	if err := os.WriteFile(filepath.Join(s.dir, id), data, 0o600); err != nil {
		return "", fmt.Errorf("save attachment: %w", err)
	}
	return id, nil
}

// Fetch resolves a handle to its stored bytes. Implements report.Fetcher.
func (s *Store) Fetch(_ context.Context, fileID string) ([]byte, error) {
	// Handles are always uuids; reject anything else so a stored handle can
	// never escape the blob directory.
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, fmt.Errorf("invalid attachment handle %q", fileID)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, fileID))
	if err != nil {
		return nil, fmt.Errorf("fetch attachment %s: %w", fileID, err)
	}
	return data, nil
}
