package release

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for storage backends holding release artifacts
type BlobStore interface {
	// List returns the objects whose pathname starts with prefix, in
	// lexicographic pathname order. A limit <= 0 means no limit.
	List(ctx context.Context, prefix string, limit int) ([]StorageObject, error)

	// Head returns the object stored at exactly pathname, or ErrNotFound.
	Head(ctx context.Context, pathname string) (*StorageObject, error)

	// Put stores the content read from reader under the logical key and
	// returns the resulting physical object.
	Put(ctx context.Context, key string, reader io.Reader, opts PutOptions) (*StorageObject, error)
}

// StorageObject is the physical record of an artifact in a blob store
type StorageObject struct {
	// Key is the logical artifact key the object was stored under. Empty
	// when the backend cannot recover it from the pathname.
	Key string

	// Pathname is the physical name, possibly carrying a uniqueness suffix.
	Pathname string

	// URL is the fetchable location of the object.
	URL string

	Size       int64
	UploadedAt time.Time
}

// LogicalKey returns the logical key of the object, falling back to its pathname.
func (o StorageObject) LogicalKey() string {
	if o.Key != "" {
		return o.Key
	}
	return o.Pathname
}

// PutOptions contains parameters for storing an object
type PutOptions struct {
	Public      bool
	ContentType string
}
