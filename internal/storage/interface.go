package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned (wrapped) when a key does not exist in the store
var ErrNotFound = errors.New("object not found")

// BlobStorage is the capability pxl needs from a remote object store. It
// carries no business logic and offers no conditional writes.
type BlobStorage interface {
	// Store saves content under key, replacing any existing object
	Store(ctx context.Context, key string, content io.Reader, contentType string, opts ...StoreOption) error

	// Retrieve gets the content stored under key, failing with ErrNotFound if absent
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Exists checks if an object exists under key
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys starting with prefix
	List(ctx context.Context, prefix string) ([]string, error)
}
