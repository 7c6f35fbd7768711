package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalArchive implements Archive on the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a new local archive instance
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &LocalArchive{
		basePath: basePath,
	}, nil
}

// Save stores an artifact locally
func (s *LocalArchive) Save(ctx context.Context, name string, data []byte) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(name))

	// Create directory structure
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	return name, nil
}

// Open retrieves an artifact from the local archive
func (s *LocalArchive) Open(ctx context.Context, name string) ([]byte, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(name))

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact not found: %s", name)
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	return data, nil
}

// Delete removes an artifact from the local archive
func (s *LocalArchive) Delete(ctx context.Context, name string) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(name))

	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}

	return nil
}
