package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/skyvalley/source/pkg/release"
	"github.com/skyvalley/source/pkg/release/artifactsync"
	"github.com/skyvalley/source/pkg/release/config"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, release.ErrConfigMissing) {
			slog.Error("Missing required configuration", "err", err)
		} else {
			slog.Error("Sync failed", "err", err)
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		root        string
		dryRun      bool
		concurrency int
	)

	flagSet := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	flagSet.StringVar(&root, "root", "", "release tree to publish (default: $SYNC_SOURCE_ROOT or .)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "report what would be uploaded without uploading")
	flagSet.IntVar(&concurrency, "concurrency", 0, "number of parallel uploads (default: $SYNC_CONCURRENCY or 1)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	_ = godotenv.Load()

	syncConfig, err := config.LoadSync()
	if err != nil {
		return err
	}
	if root != "" {
		syncConfig.SourceRoot = root
	}
	if flagSet.Changed("dry-run") {
		syncConfig.DryRun = dryRun
	}
	if concurrency > 0 {
		syncConfig.Concurrency = concurrency
	}

	logger := config.NewLogger(os.Stderr, syncConfig.Environment)
	slog.SetDefault(logger)

	store, err := syncConfig.BuildBlobStore()
	if err != nil {
		return fmt.Errorf("failed to build blob store: %w", err)
	}

	opts := syncConfig.EngineOptions()
	opts.OnProgress = func(done, total int) {
		logger.Debug("Sync progress", "done", done, "total", total)
	}
	engine := artifactsync.New(store, afero.NewOsFs(), logger, opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := engine.Run(ctx, syncConfig.SourceRoot)
	if err != nil {
		return err
	}

	logger.Info("Sync finished",
		"uploaded", report.Uploaded,
		"skipped", report.Skipped,
		"total", report.Total(),
		"dry_run", report.DryRun)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Publishes release artifacts (.zip, .delta, .dmg) from a release tree to the
blob store. Every top-level directory is a product, except hidden ones and
those listed in SYNC_EXCLUDE_DIRS. Artifacts already in the store under the
same key are skipped.

Requires BLOB_READ_WRITE_TOKEN. The store is selected by STORAGE_URL.

Usage:
  sync [flags]

Flags:
`)
	flagSet.PrintDefaults()
}
