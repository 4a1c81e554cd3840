// Package storage persists one-shot CLI capture artifacts and produces URLs
// for retrieval. The GCS implementation is the remote backend; the interface
// allows the local-disk implementation and test doubles.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const signedURLTTL = 1 * time.Hour

// GCSWriter writes capture artifacts to a Google Cloud Storage bucket.
type GCSWriter struct {
	client *storage.Client
	bucket string
}

// NewGCSWriter creates a GCSWriter for the given bucket. opts are passed
// through to the underlying GCS client, allowing credential injection.
func NewGCSWriter(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSWriter, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create GCS client: %w", err)
	}
	return &GCSWriter{client: client, bucket: bucket}, nil
}

// Write writes content to GCS at objectName and returns a signed URL.
func (g *GCSWriter) Write(ctx context.Context, req *WriteRequest) (*WriteResult, error) {
	obj := g.client.Bucket(g.bucket).Object(req.ObjectName)
	w := obj.NewWriter(ctx)
	w.ContentType = req.ContentType

	if _, err := io.Copy(w, req.Content); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("storage: write failed for %q: %w", req.ObjectName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("storage: close failed for %q: %w", req.ObjectName, err)
	}

	expiresAt := time.Now().Add(signedURLTTL)
	signedURL, err := g.client.Bucket(g.bucket).SignedURL(req.ObjectName, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: expiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: failed to sign URL for %q: %w", req.ObjectName, err)
	}

	return &WriteResult{
		ObjectName: req.ObjectName,
		URL:        signedURL,
		ExpiresAt:  expiresAt,
	}, nil
}
