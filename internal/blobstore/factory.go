package blobstore

import (
	"context"
	"fmt"

	"rdm/internal/config"
)

// NewFromConfig creates a BlobStore implementation from the server config.
func NewFromConfig(ctx context.Context, cfg *config.Config) (BlobStore, error) {
	switch cfg.BlobBackend {
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:      cfg.S3Bucket,
			Region:      cfg.S3Region,
			Endpoint:    cfg.S3Endpoint,
			AccessKeyID: cfg.S3AccessKeyID,
			SecretKey:   cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.BlobBackend)
	}
}
