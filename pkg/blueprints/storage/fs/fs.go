// Package fs stores content blobs on a local filesystem under a sharded
// directory layout: one lower-cased directory level per character of the
// file id. The identifier alphabet keeps the fan-out per level small, so
// lookups stay fast without a secondary index.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/blueprint-share/pkg/blueprints"
)

// Store is a filesystem implementation of the blueprints.BlobStore interface
type Store struct {
	baseDir string
}

// Config options for the filesystem store
type Config struct {
	BaseDir string // Base directory for storing blobs
}

// New creates a new filesystem blob store
func New(config Config) (*Store, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{baseDir: config.BaseDir}, nil
}

// Dir returns the sharded directory for fileID: each character becomes one
// path segment, lower-cased, in original order.
func (s *Store) Dir(fileID string) string {
	segments := make([]string, 0, len(fileID)+1)
	segments = append(segments, s.baseDir)
	for _, c := range strings.ToLower(fileID) {
		segments = append(segments, string(c))
	}
	return filepath.Join(segments...)
}

func (s *Store) blobPath(fileID string, version int) string {
	return filepath.Join(s.Dir(fileID), fmt.Sprintf("%s-%d.txt", fileID, version))
}

// Put writes the blob for (fileID, version), creating every missing
// directory level first. An existing blob is overwritten so a retried
// workflow converges on the same state.
func (s *Store) Put(ctx context.Context, fileID string, version int, content string) error {
	dir := s.Dir(fileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		// Not explained by the directory already existing: a permission or
		// configuration fault the surrounding workflow must abort on.
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(s.blobPath(fileID, version), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}

	return nil
}

// Get reads the blob for (fileID, version). A missing blob is reported as
// blueprints.ErrBlobNotFound, never as a filesystem fault.
func (s *Store) Get(ctx context.Context, fileID string, version int) (string, error) {
	data, err := os.ReadFile(s.blobPath(fileID, version))
	if os.IsNotExist(err) {
		return "", blueprints.ErrBlobNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read blob: %w", err)
	}

	return string(data), nil
}

// DeleteVersion removes one blob; a blob that is already gone is a no-op.
func (s *Store) DeleteVersion(ctx context.Context, fileID string, version int) error {
	err := os.Remove(s.blobPath(fileID, version))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// DeleteAllVersions removes every blob stored under fileID, tolerating zero
// matches.
func (s *Store) DeleteAllVersions(ctx context.Context, fileID string) error {
	pattern := filepath.Join(s.Dir(fileID), fileID+"-*.txt")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("failed to list blobs: %w", err)
	}

	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete blob %s: %w", path, err)
		}
	}

	return nil
}

// Exists reports whether the sharded directory for fileID already exists
// and contains entries.
func (s *Store) Exists(ctx context.Context, fileID string) (bool, error) {
	entries, err := os.ReadDir(s.Dir(fileID))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check directory: %w", err)
	}

	return len(entries) > 0, nil
}
