package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPresignedURLExpiry is used when a caller passes a non-positive expiry.
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL returns a URL that accepts a single PUT of objectKey.
	// The uploader must send the same Content-Type header.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL returns a temporary GET URL for objectKey.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	DeleteObject(ctx context.Context, objectKey string) error
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"image/gif":  ".gif",
}

// IsImageContentType reports whether ct is an image MIME type.
func IsImageContentType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "image/")
}

// NewClientPhotoKey builds a unique object key for a client photo.
func NewClientPhotoKey(clientID, contentType string) string {
	ext, ok := photoExtensions[strings.ToLower(contentType)]
	if !ok {
		ext = ".img"
	}
	return fmt.Sprintf("clients/%s/photos/%s%s", clientID, uuid.NewString(), ext)
}

// KeyBelongsToClient reports whether key was issued for clientID.
func KeyBelongsToClient(key, clientID string) bool {
	return strings.HasPrefix(key, "clients/"+clientID+"/photos/")
}
