package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// DiskWriter writes capture artifacts to a directory on the local
// filesystem. The URL returned is a file:// URL; there is no expiry concept
// for local files, so ExpiresAt is the zero value.
type DiskWriter struct {
	baseDir string
}

// NewDiskWriter creates a DiskWriter rooted at baseDir, creating the
// directory if it does not already exist.
func NewDiskWriter(baseDir string) (*DiskWriter, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create base directory %q: %w", baseDir, err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to resolve absolute path for %q: %w", baseDir, err)
	}
	return &DiskWriter{baseDir: abs}, nil
}

// Write writes content to baseDir/objectName, creating any intermediate
// directories as needed.
func (d *DiskWriter) Write(_ context.Context, req *WriteRequest) (*WriteResult, error) {
	dest := filepath.Join(d.baseDir, filepath.FromSlash(req.ObjectName))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create directory for %q: %w", req.ObjectName, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create file %q: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, req.Content); err != nil {
		return nil, fmt.Errorf("storage: failed to write file %q: %w", dest, err)
	}

	fileURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(dest)}

	return &WriteResult{
		ObjectName: req.ObjectName,
		URL:        fileURL.String(),
		ExpiresAt:  time.Time{},
	}, nil
}
