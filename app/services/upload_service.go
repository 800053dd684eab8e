package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/storage"
)

// imageExts maps the sniffed content types accepted for upload to the
// extension they are stored under.
var imageExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// UploadService stores shopping-list photos and shop images.
type UploadService struct {
	blobs storage.BlobStore
	now   func() time.Time
}

func NewUploadService(blobs storage.BlobStore) *UploadService {
	return &UploadService{blobs: blobs, now: func() time.Time { return time.Now().UTC() }}
}

// Upload stores data under uploads/<yyyy>/<mm>/<uuid><ext> and returns its
// public URL. Only images are accepted. The extension follows the sniffed
// content; filename is only logged.
func (s *UploadService) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperr.Invalid("No file uploaded.")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExts[contentType]
	if !ok {
		return "", apperr.Invalid("Only image uploads are allowed")
	}

	now := s.now()
	path := fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)

	url, err := s.blobs.Store(ctx, path, contentType, data)
	if err != nil {
		return "", apperr.E(apperr.Upstream, "Upload failed", err)
	}

	logger.WithCtx(ctx).Info("file uploaded", "path", path, "filename", filename, "bytes", len(data))
	return url, nil
}
