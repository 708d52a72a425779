package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erp/vatchallan/internal/domain/challan"
)

// Ensure LocalObjectStore implements ObjectStore
var _ challan.ObjectStore = (*LocalObjectStore)(nil)

// LocalObjectStore keeps objects on the local filesystem. Intended for
// development and single-instance deployments; production uses the S3 store.
// Content types are tracked in a sidecar file next to each object.
type LocalObjectStore struct {
	baseDir string
	baseURL string
}

// NewLocalObjectStore creates a new LocalObjectStore rooted at baseDir.
func NewLocalObjectStore(baseDir, baseURL string) (*LocalObjectStore, error) {
	if baseDir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "file://" + baseDir
	}
	return &LocalObjectStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes an object and its content-type sidecar.
func (s *LocalObjectStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	if contentType != "" {
		if err := os.WriteFile(path+".contenttype", []byte(contentType), 0o644); err != nil {
			return fmt.Errorf("failed to write content type: %w", err)
		}
	}
	return nil
}

// Get reads an object and its content type.
func (s *LocalObjectStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object: %w", err)
	}
	contentType := "application/octet-stream"
	if ct, err := os.ReadFile(path + ".contenttype"); err == nil {
		contentType = string(ct)
	}
	return data, contentType, nil
}

// URL returns a stable file URL. Local storage has no expiring links.
func (s *LocalObjectStore) URL(ctx context.Context, key string, expiresIn time.Duration) (string, error) {
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

// resolve maps a key to a path under baseDir, rejecting traversal.
func (s *LocalObjectStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
