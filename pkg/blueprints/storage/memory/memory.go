// Package memory provides an in-memory blob store for tests and development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tendant/blueprint-share/pkg/blueprints"
)

// Store is an in-memory implementation of the blueprints.BlobStore interface
type Store struct {
	mu    sync.RWMutex
	blobs map[string]string // "fileID/version" -> content
}

// New creates a new in-memory blob store
func New() *Store {
	return &Store{blobs: make(map[string]string)}
}

func key(fileID string, version int) string {
	return fmt.Sprintf("%s/%d", strings.ToLower(fileID), version)
}

func (s *Store) Put(ctx context.Context, fileID string, version int, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key(fileID, version)] = content
	return nil
}

func (s *Store) Get(ctx context.Context, fileID string, version int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, exists := s.blobs[key(fileID, version)]
	if !exists {
		return "", blueprints.ErrBlobNotFound
	}
	return content, nil
}

func (s *Store) DeleteVersion(ctx context.Context, fileID string, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key(fileID, version))
	return nil
}

func (s *Store) DeleteAllVersions(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := strings.ToLower(fileID) + "/"
	for k := range s.blobs {
		if strings.HasPrefix(k, prefix) {
			delete(s.blobs, k)
		}
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, fileID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := strings.ToLower(fileID) + "/"
	for k := range s.blobs {
		if strings.HasPrefix(k, prefix) {
			return true, nil
		}
	}
	return false, nil
}
