package artifactsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skyvalley/source/pkg/release"
	"github.com/spf13/afero"
)

// Action is what a sync run does with one source file.
type Action string

const (
	ActionUpload Action = "upload"
	ActionSkip   Action = "skip"
)

// PlanEntry pairs a source file with its artifact key and the action to take.
type PlanEntry struct {
	SourceFile string
	BlobPath   string
	Action     Action
}

// KeySet is a point-in-time set of artifact keys already present in the store.
type KeySet map[string]struct{}

// NewKeySet creates a KeySet holding keys.
func NewKeySet(keys ...string) KeySet {
	set := make(KeySet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// KeysFromObjects collects the logical keys of objects.
func KeysFromObjects(objects []release.StorageObject) KeySet {
	set := make(KeySet, len(objects))
	for _, obj := range objects {
		set[obj.LogicalKey()] = struct{}{}
	}
	return set
}

// Has reports whether key is in the set.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// DefaultExcludeDirs are top-level directories of a release tree that never hold products.
var DefaultExcludeDirs = []string{"app", "scripts", "node_modules", "public"}

// Products lists the product directories directly below root, in name order.
// Hidden directories and excluded names are left out.
func (e *Engine) Products(root string) ([]string, error) {
	entries, err := afero.ReadDir(e.fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read source root: %w", err)
	}

	var products []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || e.excluded(name) {
			continue
		}
		products = append(products, name)
	}
	return products, nil
}

func (e *Engine) excluded(name string) bool {
	for _, ex := range e.opts.ExcludeDirs {
		if ex == name {
			return true
		}
	}
	return false
}

// Plan walks every product directory below root and decides, for each
// artifact file, whether it has to be uploaded. A file is skipped when its
// key is in existing; the file content is not compared.
func (e *Engine) Plan(ctx context.Context, root string, existing KeySet) ([]PlanEntry, error) {
	products, err := e.Products(root)
	if err != nil {
		return nil, err
	}

	var plan []PlanEntry
	for _, product := range products {
		productDir := filepath.Join(root, product)
		err := afero.Walk(e.fs, productDir, func(filePath string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if info.IsDir() || !release.IsArtifactFile(info.Name()) {
				return nil
			}

			rel, err := filepath.Rel(productDir, filePath)
			if err != nil {
				return err
			}
			key := product + "/" + filepath.ToSlash(rel)

			action := ActionUpload
			if existing.Has(key) {
				action = ActionSkip
			}
			plan = append(plan, PlanEntry{SourceFile: filePath, BlobPath: key, Action: action})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", productDir, err)
		}
	}
	return plan, nil
}

// contentTypeFor returns the media type stored with an artifact.
func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, release.ExtArchive):
		return "application/zip"
	case strings.HasSuffix(name, release.ExtDiskImage):
		return "application/x-apple-diskimage"
	default:
		return "application/octet-stream"
	}
}
