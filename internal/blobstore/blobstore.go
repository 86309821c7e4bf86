// Package blobstore holds document binary content. The RDM tables keep only
// a blob key; everything byte-shaped lives behind this interface.
package blobstore

import (
	"context"
	"io"
)

// BlobStore stores and retrieves document content by key.
type BlobStore interface {
	// Put stores content under key, overwriting any previous content.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens the content stored under key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete releases the content stored under key. Deleting a missing key
	// is not an error; purge must be idempotent.
	Delete(ctx context.Context, key string) error
}
