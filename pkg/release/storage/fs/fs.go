package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/skyvalley/source/pkg/release"
	"github.com/skyvalley/source/pkg/release/objectkey"
	"github.com/skyvalley/source/pkg/release/urlstrategy"
	"github.com/spf13/afero"
)

const backendName = "fs"

// Backend is a filesystem implementation of the release.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	fs      afero.Fs
	baseDir string
	naming  objectkey.Generator
	urls    urlstrategy.URLStrategy
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string              // Base directory for storing files
	URLPrefix string              // Optional URL prefix the base directory is served under
	Fs        afero.Fs            // Filesystem (default: the OS filesystem)
	Naming    objectkey.Generator // Physical naming (default: exact keys)
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Naming == nil {
		config.Naming = objectkey.NewExactGenerator()
	}

	if err := config.Fs.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		fs:      config.Fs,
		baseDir: config.BaseDir,
		naming:  config.Naming,
		urls:    urlstrategy.NewCDNStrategy(config.URLPrefix),
	}, nil
}

// List returns stored objects whose pathname starts with prefix
func (b *Backend) List(ctx context.Context, prefix string, limit int) ([]release.StorageObject, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	prefix = cleanPrefix(prefix)

	// Only the directory the prefix points into needs walking.
	startDir := b.baseDir
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		startDir = filepath.Join(b.baseDir, filepath.FromSlash(prefix[:i]))
	}
	if _, err := b.fs.Stat(startDir); os.IsNotExist(err) {
		return []release.StorageObject{}, nil
	}

	var objects []release.StorageObject
	err := afero.Walk(b.fs, startDir, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.baseDir, filePath)
		if err != nil {
			return err
		}
		pathname := filepath.ToSlash(rel)
		if strings.HasPrefix(pathname, prefix) {
			objects = append(objects, b.storageObject(pathname, info))
		}
		return nil
	})
	if err != nil {
		return nil, &release.StorageError{Backend: backendName, Key: prefix, Op: "list", Err: err}
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Pathname < objects[j].Pathname
	})
	if limit > 0 && len(objects) > limit {
		objects = objects[:limit]
	}
	return objects, nil
}

// Head returns the object stored at exactly pathname
func (b *Backend) Head(ctx context.Context, pathname string) (*release.StorageObject, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	filePath, err := b.filePath(pathname)
	if err != nil {
		return nil, err
	}
	info, err := b.fs.Stat(filePath)
	if os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", release.ErrNotFound, pathname)
	} else if err != nil {
		return nil, &release.StorageError{Backend: backendName, Key: pathname, Op: "head", Err: err}
	}

	obj := b.storageObject(pathname, info)
	return &obj, nil
}

// Put writes the content to a file named after key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, opts release.PutOptions) (*release.StorageObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pathname := b.naming.GenerateKey(key)
	filePath, err := b.filePath(pathname)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Create directory structure if it doesn't exist
	if err := b.fs.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, &release.StorageError{Backend: backendName, Key: key, Op: "put", Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	// Public objects are world readable; the store has no other access control.
	perm := os.FileMode(0600)
	if opts.Public {
		perm = 0644
	}
	file, err := b.fs.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return nil, &release.StorageError{Backend: backendName, Key: key, Op: "put", Err: fmt.Errorf("failed to create file: %w", err)}
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		return nil, &release.StorageError{Backend: backendName, Key: key, Op: "put", Err: fmt.Errorf("failed to write file: %w", err)}
	}
	if err := file.Close(); err != nil {
		return nil, &release.StorageError{Backend: backendName, Key: key, Op: "put", Err: err}
	}

	info, err := b.fs.Stat(filePath)
	if err != nil {
		return nil, &release.StorageError{Backend: backendName, Key: key, Op: "put", Err: err}
	}
	obj := b.storageObject(pathname, info)
	return &obj, nil
}

// filePath maps a pathname to a file below the base directory.
func (b *Backend) filePath(pathname string) (string, error) {
	clean := path.Clean("/" + pathname)
	if pathname == "" || clean == "/" {
		return "", fmt.Errorf("%w: invalid pathname %q", release.ErrNotFound, pathname)
	}
	return filepath.Join(b.baseDir, filepath.FromSlash(clean[1:])), nil
}

// cleanPrefix resolves dot segments of a list prefix so the walk stays below
// the base directory. A trailing slash is kept.
func cleanPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	clean := path.Clean("/" + prefix)[1:]
	if clean != "" && strings.HasSuffix(prefix, "/") {
		clean += "/"
	}
	return clean
}

func (b *Backend) storageObject(pathname string, info os.FileInfo) release.StorageObject {
	return release.StorageObject{
		Key:        b.naming.LogicalKey(pathname),
		Pathname:   pathname,
		URL:        b.urls.PublicURL(pathname),
		Size:       info.Size(),
		UploadedAt: info.ModTime(),
	}
}
