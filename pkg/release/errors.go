package release

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrNotFound indicates no storage object matches a key
	ErrNotFound = errors.New("not found")

	// ErrMalformedFeed indicates the release feed is missing required fields or is empty
	ErrMalformedFeed = errors.New("malformed feed")

	// ErrStoreUnavailable indicates the blob store could not be reached
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConfigMissing indicates a required configuration value is absent
	ErrConfigMissing = errors.New("config missing")

	// ErrFeedUnavailable indicates the feed document could not be read
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrInvalidChannel indicates an unknown delivery channel
	ErrInvalidChannel = errors.New("invalid channel")
)

// StorageError represents an error related to blob store operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports a StorageError as ErrStoreUnavailable unless it wraps ErrNotFound.
func (e *StorageError) Is(target error) bool {
	return target == ErrStoreUnavailable && !errors.Is(e.Err, ErrNotFound)
}

// FeedError represents a problem with a single feed item
type FeedError struct {
	Item  int
	Field string
	Err   error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed item %d: %s: %v", e.Item, e.Field, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the artifact cannot be served,
// either because it does not exist or because the store is unreachable.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrStoreUnavailable)
}
