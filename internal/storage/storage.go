// Package storage keeps uploaded portfolio files on local disk or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"village/internal/config"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Store saves and serves uploaded files by key
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns a link the browser can download the file from
	URL(ctx context.Context, key string) (string, error)
}

// NewFromConfig returns the store selected by cfg.StorageDriver
func NewFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "", "local":
		return NewLocalStore(cfg.StoragePath, "/files")
	case "s3":
		return NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// extensions maps every accepted upload type to the extension its key is
// stored with. Served files get their Content-Type back from this table.
var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"audio/mpeg":      ".mp3",
	"video/mp4":       ".mp4",
}

const fallbackExtension = ".bin"

// Extension returns the key extension for contentType and whether uploads of
// that type are accepted
func Extension(contentType string) (string, bool) {
	ext, ok := extensions[contentType]
	return ext, ok
}

// ContentType returns the type a key was stored with. Unknown extensions are
// served as application/octet-stream.
func ContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	for ct, e := range extensions {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

// NewKey builds a unique object key for a child's upload. The extension is
// taken from the validated content type, never from the client's filename.
func NewKey(childID int64, contentType string) string {
	ext, ok := Extension(contentType)
	if !ok {
		ext = fallbackExtension
	}
	return path.Join("portfolio", fmt.Sprint(childID), uuid.New().String()+ext)
}

// cleanKey rejects keys that would escape the storage root
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}
