// Package storage is the blob store behind image uploads. Two drivers are
// available:
//   - "local": local filesystem, served back under STORAGE_URL
//   - "s3":    S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Callers depend on BlobStore only:
//
//	url, err := blobs.Store(ctx, "uploads/2024/05/x.jpg", "image/jpeg", data)
package storage

import (
	"context"
	"fmt"
)

// Disk is the driver interface.
type Disk interface {
	// Put writes content to path, replacing any existing object.
	Put(ctx context.Context, path, contentType string, content []byte) error

	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) bool

	// URL returns the public URL for path.
	URL(path string) string

	// Delete removes path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}

// BlobStore stores bytes and returns a retrievable URL.
type BlobStore interface {
	Store(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// DiskStore adapts a Disk to BlobStore.
type DiskStore struct {
	Disk Disk
}

func (s DiskStore) Store(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("storage: empty object %s", path)
	}
	if err := s.Disk.Put(ctx, path, contentType, data); err != nil {
		return "", err
	}
	return s.Disk.URL(path), nil
}
