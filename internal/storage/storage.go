// Package storage persists uploaded product photos. Implementations either
// store the whole stream under the key or leave nothing referenceable behind.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrInvalidKey = errors.New("invalid storage key")

// FileStorage writes an uploaded stream to durable storage
type FileStorage interface {
	// Store consumes r incrementally and returns a reference (URL or path)
	// under which the file can be retrieved.
	Store(ctx context.Context, r io.Reader, key string) (string, error)
}

// ValidateKey rejects keys that could escape the storage root
func ValidateKey(key string) error {
	if key == "" ||
		strings.ContainsAny(key, `/\`) ||
		strings.Contains(key, "..") ||
		strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
