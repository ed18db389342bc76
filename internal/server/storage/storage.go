// Package storage defines the blob-store contract used by the file pathways.
// Payloads are opaque; metadata and ownership live in the database.
package storage

import (
	"context"
	"io"
	"time"
)

// BlobStore abstracts a chunked object-storage backend.
//
// Put must be all-or-nothing: after an error (I/O failure, cancelled
// context) no readable object may remain under key. Delete must be safe to
// retry: removing a key that no longer exists is not an error.
type BlobStore interface {
	// Put streams content into storage under key, tagging the object with
	// contentType. size is the expected payload length (-1 if unknown).
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error

	// Get opens a read stream positioned at the start of the object.
	// Returns common.ErrorNotFound if no object with that key exists.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object. Idempotent.
	Delete(ctx context.Context, key string) error

	// PresignGet returns a time-limited URL that downloads the object with
	// an attachment disposition for filename.
	PresignGet(ctx context.Context, key, filename string, expires time.Duration) (string, error)

	// Ping verifies the backend and bucket are reachable.
	Ping(ctx context.Context) error
}
