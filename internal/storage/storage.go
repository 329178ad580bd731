package storage

import (
	"context"
	"io"
)

// UploadResult identifies a stored object and where clients can fetch it.
type UploadResult struct {
	URL string
	Key string
}

// ObjectStorage is the upload capability consumed during registration and
// profile updates. Implementations own URL construction and key layout.
type ObjectStorage interface {
	Upload(ctx context.Context, body io.Reader, contentType, folder string) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}
