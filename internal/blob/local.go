package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local stores files under a directory and serves them from BaseURL.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates the directory if needed.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the root directory, for serving the files over HTTP.
func (l *Local) Dir() string { return l.dir }

// Upload writes data to dir/objectPath atomically.
func (l *Local) Upload(ctx context.Context, objectPath string, data []byte, _ string) (string, error) {
	p, err := CleanPath(objectPath)
	if err != nil {
		return "", &UploadError{Path: objectPath, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &UploadError{Path: p, Err: err}
	}

	dst := filepath.Join(l.dir, filepath.FromSlash(p))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", &UploadError{Path: p, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", &UploadError{Path: p, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", &UploadError{Path: p, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return "", &UploadError{Path: p, Err: err}
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", &UploadError{Path: p, Err: err}
	}
	return l.baseURL + "/" + p, nil
}
