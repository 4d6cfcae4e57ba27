package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LocalStorage keeps uploads in a directory on the local filesystem
type LocalStorage struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

// NewLocalStorage creates the uploads directory if needed. When baseURL is
// empty the returned references are bare keys.
func NewLocalStorage(dir, baseURL string, logger *zap.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads dir %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir, baseURL: baseURL, logger: logger}, nil
}

// Store copies r into a temp file next to the target and renames it into
// place once fully written, so readers never see a truncated file.
func (s *LocalStorage) Store(ctx context.Context, r io.Reader, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("Failed to remove partial upload", zap.String("path", tmpName), zap.Error(err))
			}
		}
	}()

	written, err := io.Copy(tmp, &contextReader{ctx: ctx, r: r})
	if err != nil {
		return "", fmt.Errorf("failed to write upload %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync upload %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload %s: %w", key, err)
	}

	target := filepath.Join(s.dir, key)
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("failed to move upload %s into place: %w", key, err)
	}
	committed = true

	s.logger.Debug("Stored upload", zap.String("key", key), zap.Int64("bytes", written))
	return s.reference(key), nil
}

func (s *LocalStorage) reference(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}

// contextReader stops a copy once the request context is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
