package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skyvalley/source/pkg/release"
	"github.com/skyvalley/source/pkg/release/objectkey"
	"github.com/skyvalley/source/pkg/release/urlstrategy"
)

// Backend is an in-memory implementation of the release.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]*object
	naming  objectkey.Generator
	urls    urlstrategy.URLStrategy
}

type object struct {
	key         string
	data        []byte
	contentType string
	public      bool
	uploadedAt  time.Time
}

// Option configures the in-memory backend
type Option func(*Backend)

// WithNaming sets the physical naming strategy (default: uniqueness suffix)
func WithNaming(naming objectkey.Generator) Option {
	return func(b *Backend) {
		b.naming = naming
	}
}

// WithURLStrategy sets how object URLs are built
func WithURLStrategy(urls urlstrategy.URLStrategy) Option {
	return func(b *Backend) {
		b.urls = urls
	}
}

// New creates a new in-memory storage backend
func New(opts ...Option) *Backend {
	b := &Backend{
		objects: make(map[string]*object),
		naming:  objectkey.NewSuffixGenerator(),
		urls:    urlstrategy.NewCDNStrategy("memory://blob"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// List returns objects whose pathname starts with prefix
func (b *Backend) List(ctx context.Context, prefix string, limit int) ([]release.StorageObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	pathnames := make([]string, 0, len(b.objects))
	for pathname := range b.objects {
		if strings.HasPrefix(pathname, prefix) {
			pathnames = append(pathnames, pathname)
		}
	}
	sort.Strings(pathnames)

	if limit > 0 && len(pathnames) > limit {
		pathnames = pathnames[:limit]
	}

	result := make([]release.StorageObject, 0, len(pathnames))
	for _, pathname := range pathnames {
		result = append(result, b.storageObject(pathname, b.objects[pathname]))
	}
	return result, nil
}

// Head returns the object stored at exactly pathname
func (b *Backend) Head(ctx context.Context, pathname string) (*release.StorageObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[pathname]
	if !exists {
		return nil, fmt.Errorf("%w: %s", release.ErrNotFound, pathname)
	}
	so := b.storageObject(pathname, obj)
	return &so, nil
}

// Put stores the content under a physical name derived from key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, opts release.PutOptions) (*release.StorageObject, error) {
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pathname := b.naming.GenerateKey(key)
	obj := &object{
		key:         key,
		data:        data,
		contentType: contentType,
		public:      opts.Public,
		uploadedAt:  time.Now().UTC(),
	}
	b.objects[pathname] = obj

	so := b.storageObject(pathname, obj)
	return &so, nil
}

// Download returns the content stored at pathname
func (b *Backend) Download(ctx context.Context, pathname string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[pathname]
	if !exists {
		return nil, fmt.Errorf("%w: %s", release.ErrNotFound, pathname)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// IsPublic reports whether the object at pathname was stored publicly readable
func (b *Backend) IsPublic(pathname string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[pathname]
	return exists && obj.public
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

func (b *Backend) storageObject(pathname string, obj *object) release.StorageObject {
	return release.StorageObject{
		Key:        obj.key,
		Pathname:   pathname,
		URL:        b.urls.PublicURL(pathname),
		Size:       int64(len(obj.data)),
		UploadedAt: obj.uploadedAt,
	}
}
