package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors surfaced by the store and file handles. Remote client
// implementations map their SDK-specific "no such object" failures to
// ErrNotFound so callers can match with errors.Is.
var (
	ErrNotFound      = errors.New("object not found")
	ErrPathTraversal = errors.New("name escapes storage root")
	ErrReadOnly      = errors.New("file opened for read-only access")
	ErrInvalidText   = errors.New("object body is not valid UTF-8")
	ErrClosed        = errors.New("file already closed")
)

// ObjectInfo describes one remote object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Bucket is the client contract for a single remote bucket. Keys passed
// to a Bucket are already normalized; a Bucket never applies the store's
// root prefix itself.
type Bucket interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Ensure provisions the bucket if it does not exist yet. It returns
	// nil when the bucket already exists and an error when either the
	// existence probe or the create call fails.
	Ensure(ctx context.Context) error
}
