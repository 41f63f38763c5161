package service

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deadwick/feedback-service/internal/core/domain"
	"github.com/deadwick/feedback-service/internal/core/ports"
)

const defaultMaxImageBytes = 5 << 20

// MediaService adapts the blob-storage collaborator for feedback attachments.
type MediaService struct {
	blobs    ports.BlobStorage
	maxBytes int64
	log      zerolog.Logger
}

// NewMediaService returns a MediaService. maxBytes <= 0 selects a 5 MiB limit.
func NewMediaService(blobs ports.BlobStorage, maxBytes int64, log zerolog.Logger) *MediaService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &MediaService{blobs: blobs, maxBytes: maxBytes, log: log}
}

// Validate rejects attachments that can never be stored. It performs no I/O.
func (m *MediaService) Validate(data []byte, originalName string) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: image is empty", domain.ErrValidation)
	}
	if int64(len(data)) > m.maxBytes {
		return fmt.Errorf("%w: image exceeds %d bytes", domain.ErrValidation, m.maxBytes)
	}
	if ct := http.DetectContentType(data); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: %q is not an image (%s)", domain.ErrValidation, originalName, ct)
	}
	return nil
}

// Upload stores data under a fresh random key and returns its public URL.
// Two uploads with the same original name never share a key.
func (m *MediaService) Upload(ctx context.Context, data []byte, originalName string) (string, error) {
	contentType := http.DetectContentType(data)
	key := storageKey(originalName, contentType)

	url, err := m.blobs.Put(ctx, key, data, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %w", domain.ErrStorage, key, err)
	}

	m.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("media uploaded")
	return url, nil
}

// Remove deletes the blob behind a URL previously returned by Upload.
func (m *MediaService) Remove(ctx context.Context, url string) error {
	key, err := m.blobs.KeyFromURL(url)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if err := m.blobs.Remove(ctx, key); err != nil {
		return fmt.Errorf("%w: remove %s: %w", domain.ErrStorage, key, err)
	}
	m.log.Debug().Str("key", key).Msg("media removed")
	return nil
}

// storageKey combines a random token with the original extension, falling
// back to one derived from the sniffed content type.
func storageKey(originalName, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if ext == "" || ext == "." {
		ext = ""
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return uuid.NewString() + ext
}
