package storage

import (
	"context"
	"io"
)

// ObjectStorage is the interface for the product-image object store.
// Image entries on a product may reference keys in this store; the payload
// builder resolves them to public URLs via GetURL before publishing.
type ObjectStorage interface {
	// Upload stores an object under key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves an object by key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the public URL for an object key.
	GetURL(key string) string

	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error

	// Exists checks whether an object exists.
	Exists(ctx context.Context, key string) (bool, error)

	// EnsureBucket creates the backing bucket if it does not exist.
	EnsureBucket(ctx context.Context) error
}
