package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Writer persists CLI capture artifacts and returns a URL they can be
// retrieved from. The HTTP endpoints never persist anything; this interface
// exists for the one-shot commands only.
type Writer interface {
	Write(ctx context.Context, req *WriteRequest) (*WriteResult, error)
}

type WriteRequest struct {
	// ObjectName is the object path within the configured backend.
	ObjectName string

	// Content is the artifact data.
	Content io.Reader

	// ContentType is the MIME type of the content, e.g. "image/png".
	ContentType string
}

// WriteResult is the outcome of a successful write.
type WriteResult struct {
	// ObjectName is the object path within the configured backend.
	ObjectName string

	// URL locates the written artifact: a signed URL for remote backends,
	// a file:// URL for the local one.
	URL string

	// ExpiresAt is when the URL becomes invalid; zero when it never does.
	ExpiresAt time.Time
}

// ObjectName builds the canonical artifact path for a capture: date-bucketed
// and keyed by the invocation ID.
func ObjectName(captureID, filename string) string {
	date := time.Now().UTC().Format("2006/01/02")
	return fmt.Sprintf("captures/%s/%s/%s", date, captureID, filename)
}
