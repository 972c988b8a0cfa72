package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that accepts a PUT of
	// the object straight to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL for fetching the
	// object, e.g. a video element's src.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

const mediaPrefix = "exercises"

// MediaKeyPrefix is the folder holding the uploads of one media slot.
func MediaKeyPrefix(exerciseID, slot, kind string) string {
	return path.Join(mediaPrefix, exerciseID, slot, kind) + "/"
}

// MediaObjectKey builds a fresh object key for an exercise media upload,
// e.g. exercises/<exerciseID>/prenatal/video/<uuid>.mp4.
func MediaObjectKey(exerciseID, slot, kind, contentType string) string {
	ext := ""
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 && parts[1] != "" {
		ext = "." + strings.ToLower(parts[1])
	}
	return MediaKeyPrefix(exerciseID, slot, kind) + uuid.NewString() + ext
}

// URLResolver turns media object names into fetchable URLs.
type URLResolver struct {
	storage FileStorage
	expires time.Duration
}

// NewURLResolver returns a resolver issuing presigned GET URLs valid for expires.
func NewURLResolver(storage FileStorage, expires time.Duration) *URLResolver {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	return &URLResolver{storage: storage, expires: expires}
}

// URL returns a download URL for name. An empty name yields an empty URL.
func (r *URLResolver) URL(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	url, err := r.storage.GeneratePresignedDownloadURL(ctx, name, r.expires)
	if err != nil {
		return "", fmt.Errorf("resolve media %q: %w", name, err)
	}
	return url, nil
}
