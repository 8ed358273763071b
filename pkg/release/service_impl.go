package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultFeedFileName is the feed document kept in each product directory.
const DefaultFeedFileName = "appcast.xml"

// service implements the Service interface
type service struct {
	store        BlobStore
	fs           afero.Fs
	root         string
	feedFileName string
	exactLookup  bool
	log          *slog.Logger
	locator      *Locator
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithBlobStore sets the blob store artifacts are served from
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithFeedFS sets the filesystem feed documents are read from
func WithFeedFS(fs afero.Fs) Option {
	return func(s *service) {
		s.fs = fs
	}
}

// WithReleaseRoot sets the directory holding one sub-directory per product
func WithReleaseRoot(root string) Option {
	return func(s *service) {
		s.root = root
	}
}

// WithFeedFileName sets the name of the feed document inside a product directory
func WithFeedFileName(name string) Option {
	return func(s *service) {
		s.feedFileName = name
	}
}

// WithExactLookup is for stores that keep objects under their logical key.
// Lookups then match the exact key only and never search by prefix.
func WithExactLookup() Option {
	return func(s *service) {
		s.exactLookup = true
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		s.log = log
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		fs:           afero.NewOsFs(),
		root:         ".",
		feedFileName: DefaultFeedFileName,
		log:          slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.feedFileName == "" {
		return nil, fmt.Errorf("feed file name is required")
	}

	s.locator = NewLocator(s.store, s.log, s.exactLookup)
	return s, nil
}

func (s *service) LatestRedirect(ctx context.Context, product string, channel Channel) (*RedirectTarget, error) {
	feed, err := s.Feed(ctx, product)
	if err != nil {
		return nil, err
	}

	target, err := ResolveLatest(feed, product, channel)
	if err != nil {
		s.log.Error("Failed to resolve latest release", "product", product, "channel", channel, "error", err)
		return nil, err
	}

	s.log.Info("Resolved latest release",
		"product", product,
		"channel", channel,
		"title", target.Release.Title,
		"version", target.Release.Version,
		"path", target.Path)
	return target, nil
}

func (s *service) LocateDiskImage(ctx context.Context, product, filename string) (*StorageObject, error) {
	if !validSegment(product) || !validSegment(filename) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, product, filename)
	}
	return s.locator.Locate(ctx, joinKey(product, DiskImageDir, filename))
}

func (s *service) LocateUpdate(ctx context.Context, product, filename string) (*StorageObject, error) {
	if !validSegment(product) || !validSegment(filename) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, product, filename)
	}
	return s.locator.LocateExact(ctx, joinKey(product, filename))
}

func (s *service) FeedDocument(ctx context.Context, product string) ([]byte, error) {
	if !validSegment(product) {
		return nil, fmt.Errorf("%w: invalid product %q", ErrFeedUnavailable, product)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	feedPath := filepath.Join(s.root, product, s.feedFileName)
	data, err := afero.ReadFile(s.fs, feedPath)
	if err != nil {
		s.log.Error("Failed to read feed", "path", feedPath, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return data, nil
}

func (s *service) Feed(ctx context.Context, product string) (*Feed, error) {
	data, err := s.FeedDocument(ctx, product)
	if err != nil {
		return nil, err
	}

	feed, err := ParseFeedBytes(data)
	if err != nil {
		var itemErr *FeedError
		if errors.As(err, &itemErr) {
			s.log.Error("Malformed feed item", "product", product, "item", itemErr.Item, "field", itemErr.Field, "error", err)
		} else {
			s.log.Error("Malformed feed", "product", product, "error", err)
		}
		return nil, err
	}
	return feed, nil
}
