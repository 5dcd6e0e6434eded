// Package blob uploads files (product thumbnails) and returns the URL
// they can be fetched from.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store uploads a file and returns its public URL.
type Store interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// UploadError is returned when an upload fails. A save that needs the
// upload must not proceed without it.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ErrInvalidPath is returned for empty, absolute or escaping object paths.
var ErrInvalidPath = errors.New("invalid object path")

// CleanPath normalises an object path to slash-separated, relative form.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	p = path.Clean(p)
	if p == "." {
		return "", ErrInvalidPath
	}
	return p, nil
}

// extensions for accepted image types.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExtension returns the file extension for an image content type.
func ImageExtension(contentType string) (string, bool) {
	ct, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	ext, ok := extensions[strings.TrimSpace(ct)]
	return ext, ok
}
