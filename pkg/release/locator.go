package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Locator finds the current storage object for a logical artifact key.
type Locator struct {
	store BlobStore
	log   *slog.Logger
	// exact is set for stores that keep objects under their logical key.
	// Lookups then use Head only: a prefix search would also match longer
	// dotted versions of the same name.
	exact bool
}

// NewLocator creates a Locator over store.
func NewLocator(store BlobStore, log *slog.Logger, exact bool) *Locator {
	if log == nil {
		log = slog.Default()
	}
	return &Locator{store: store, log: log, exact: exact}
}

// Locate returns the object whose pathname starts with key. A trailing
// artifact extension on key is dropped first, since stores insert their
// uniqueness suffix before the extension. When several objects match, the
// first in store order is returned. On an exact store the object must be
// stored at exactly key.
//
// The error is ErrNotFound when nothing matches and wraps ErrStoreUnavailable
// when the store could not be queried.
func (l *Locator) Locate(ctx context.Context, key string) (*StorageObject, error) {
	if l.exact {
		return l.head(ctx, key)
	}
	return l.locatePrefix(ctx, key)
}

func (l *Locator) locatePrefix(ctx context.Context, key string) (*StorageObject, error) {
	prefix := StripArtifactExt(key)
	objects, err := l.store.List(ctx, prefix, 1)
	if err != nil {
		l.log.Error("Blob store list failed", "prefix", prefix, "error", err)
		return nil, storeUnavailable(err)
	}
	if len(objects) == 0 {
		l.log.Info("No blob matches prefix", "prefix", prefix)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	obj := objects[0]
	l.log.Debug("Blob located", "prefix", prefix, "pathname", obj.Pathname, "url", obj.URL)
	return &obj, nil
}

// LocateExact returns the object stored at exactly key. On a suffixing store
// a missing key falls back to a prefix search so that suffixed objects are
// still found.
func (l *Locator) LocateExact(ctx context.Context, key string) (*StorageObject, error) {
	obj, err := l.head(ctx, key)
	if err == nil {
		return obj, nil
	}
	if l.exact || !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return l.locatePrefix(ctx, key)
}

func (l *Locator) head(ctx context.Context, key string) (*StorageObject, error) {
	obj, err := l.store.Head(ctx, key)
	switch {
	case err == nil && obj != nil:
		l.log.Debug("Blob found", "key", key, "url", obj.URL)
		return obj, nil
	case err == nil, errors.Is(err, ErrNotFound):
		l.log.Info("No blob at key", "key", key)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	default:
		l.log.Error("Blob store head failed", "key", key, "error", err)
		return nil, storeUnavailable(err)
	}
}

func storeUnavailable(err error) error {
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
