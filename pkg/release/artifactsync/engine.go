package artifactsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skyvalley/source/pkg/release"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Options configures a sync run.
type Options struct {
	// ExcludeDirs are top-level directory names that are not products
	// (default: DefaultExcludeDirs)
	ExcludeDirs []string

	// Concurrency is the number of uploads in flight (default: 1)
	Concurrency int

	// DryRun if true, plans and reports without uploading
	DryRun bool

	// OnProgress is called after each planned file is handled (optional)
	OnProgress func(done, total int)
}

// FileResult is the outcome for one artifact.
type FileResult struct {
	Key    string `json:"key"`
	Action Action `json:"action"`
	URL    string `json:"url,omitempty"`
}

// Report summarizes a completed sync run.
type Report struct {
	Uploaded int          `json:"uploaded"`
	Skipped  int          `json:"skipped"`
	Files    []FileResult `json:"files"`
	DryRun   bool         `json:"dry_run,omitempty"`
}

// Total returns the number of artifacts the run handled.
func (r *Report) Total() int {
	return r.Uploaded + r.Skipped
}

// Engine mirrors a tree of release artifacts into a blob store.
type Engine struct {
	store release.BlobStore
	fs    afero.Fs
	log   *slog.Logger
	opts  Options
}

// New creates an Engine reading source files from fs.
func New(store release.BlobStore, fs afero.Fs, log *slog.Logger, opts Options) *Engine {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.ExcludeDirs == nil {
		opts.ExcludeDirs = DefaultExcludeDirs
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Engine{store: store, fs: fs, log: log, opts: opts}
}

// Run lists the store once and syncs root against that snapshot. The
// snapshot is not refreshed during the run, so two concurrent runs may both
// upload the same key.
func (e *Engine) Run(ctx context.Context, root string) (*Report, error) {
	e.log.Info("Starting artifact sync", "root", root, "dry_run", e.opts.DryRun)

	objects, err := e.store.List(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing blobs: %w", err)
	}
	e.log.Info("Listed existing blobs", "count", len(objects))

	return e.Sync(ctx, root, KeysFromObjects(objects))
}

// Sync uploads every artifact below root whose key is not in existing.
// The first failing read or upload aborts the run and no report is
// returned; objects uploaded before the failure stay in the store.
func (e *Engine) Sync(ctx context.Context, root string, existing KeySet) (*Report, error) {
	plan, err := e.Plan(ctx, root, existing)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Files:  make([]FileResult, len(plan)),
		DryRun: e.opts.DryRun,
	}

	var mu sync.Mutex
	done := 0
	progress := func() {
		if e.opts.OnProgress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		done++
		e.opts.OnProgress(done, len(plan))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, entry := range plan {
		report.Files[i] = FileResult{Key: entry.BlobPath, Action: entry.Action}

		if entry.Action == ActionSkip {
			e.log.Info("Skipping artifact, already in blob store", "key", entry.BlobPath)
			report.Skipped++
			progress()
			continue
		}

		report.Uploaded++
		if e.opts.DryRun {
			e.log.Info("Would upload artifact", "key", entry.BlobPath, "file", entry.SourceFile)
			progress()
			continue
		}

		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			obj, err := e.upload(gctx, entry)
			if err != nil {
				return err
			}
			report.Files[i].URL = obj.URL
			progress()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.log.Error("Artifact sync aborted", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.log.Info("Artifact sync complete", "uploaded", report.Uploaded, "skipped", report.Skipped)
	return report, nil
}

func (e *Engine) upload(ctx context.Context, entry PlanEntry) (*release.StorageObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := e.fs.Open(entry.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", entry.SourceFile, err)
	}
	defer file.Close()

	e.log.Info("Uploading artifact", "key", entry.BlobPath)
	obj, err := e.store.Put(ctx, entry.BlobPath, file, release.PutOptions{
		Public:      true,
		ContentType: contentTypeFor(entry.BlobPath),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", entry.BlobPath, err)
	}

	e.log.Info("Uploaded artifact", "key", entry.BlobPath, "pathname", obj.Pathname, "url", obj.URL)
	return obj, nil
}
