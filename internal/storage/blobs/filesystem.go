// -----------------------------------------------------------------------
// Filesystem blob store for uploaded resumes and generated videos
// -----------------------------------------------------------------------

package blobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
	"github.com/ternarybob/odyssey/internal/interfaces"
)

// FilesystemStore implements BlobStorage on a local directory. Keys may
// contain forward slashes; path traversal components are rejected.
type FilesystemStore struct {
	dir     string
	baseURL string
	logger  arbor.ILogger
}

// NewFilesystemStore creates the blob store, ensuring the directory exists
func NewFilesystemStore(config *common.BlobsConfig, logger arbor.ILogger) (*FilesystemStore, error) {
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	logger.Debug().Str("dir", config.Dir).Str("base_url", config.BaseURL).Msg("Filesystem blob store initialized")

	return &FilesystemStore{
		dir:     config.Dir,
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		logger:  logger,
	}, nil
}

// Dir returns the backing directory, for the static file route
func (s *FilesystemStore) Dir() string { return s.dir }

// Put writes the blob and returns its public URL
func (s *FilesystemStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob subdirectory: %w", err)
	}

	// Write-then-rename so readers never observe a partial blob
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize blob %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Blob stored")
	return s.baseURL + "/" + key, nil
}

// Get reads a blob's bytes
func (s *FilesystemStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found: %s", key)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

// Delete removes a blob; deleting a missing blob is not an error
func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *FilesystemStore) resolve(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("blob key is required")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid blob key: %s", key)
		}
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

var _ interfaces.BlobStorage = (*FilesystemStore)(nil)
