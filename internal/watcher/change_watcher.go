package watcher

import (
	"context"
	"time"

	"github.com/conneroisu/splice/internal/logging"
)

// Invalidator drops cached content for a changed path.
type Invalidator interface {
	Invalidate(path string) bool
}

// Rebuilder runs one tolerant build.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// RebuildFunc adapts a function to Rebuilder.
type RebuildFunc func(ctx context.Context) error

// Rebuild implements Rebuilder.
func (f RebuildFunc) Rebuild(ctx context.Context) error {
	return f(ctx)
}

// ChangeWatcherConfig configures a ChangeWatcher.
type ChangeWatcherConfig struct {
	Root       string
	Extensions []string
	Debounce   time.Duration
	// Ignore lists files whose changes never trigger a rebuild.
	Ignore []string
}

// ChangeWatcher observes a fragment tree, invalidates the cache entry of
// every changed fragment immediately, and triggers one rebuild per debounced
// burst of changes.
type ChangeWatcher struct {
	config      ChangeWatcherConfig
	invalidator Invalidator
	rebuilder   Rebuilder
	logger      logging.Logger
}

// NewChangeWatcher creates a change watcher. A nil logger discards output.
func NewChangeWatcher(config ChangeWatcherConfig, invalidator Invalidator, rebuilder Rebuilder, logger logging.Logger) *ChangeWatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &ChangeWatcher{
		config:      config,
		invalidator: invalidator,
		rebuilder:   rebuilder,
		logger:      logger.WithComponent("watcher"),
	}
}

// Run watches until ctx is done. The filesystem handle is released before
// Run returns and no rebuild starts after that.
func (cw *ChangeWatcher) Run(ctx context.Context) error {
	fw, err := cw.start(ctx)
	if err != nil {
		return err
	}

	<-ctx.Done()
	cw.logger.Info(context.Background(), "Stopping file watcher")
	return fw.Stop()
}

// start wires and starts a FileWatcher over the fragment root.
func (cw *ChangeWatcher) start(ctx context.Context) (*FileWatcher, error) {
	fw, err := NewFileWatcher(cw.config.Debounce, cw.logger)
	if err != nil {
		return nil, err
	}

	fw.AddFilter(ExtensionFilter(cw.config.Extensions...))
	fw.AddFilter(NoTempFilter)
	fw.AddFilter(NoGitFilter)
	if len(cw.config.Ignore) > 0 {
		fw.AddFilter(IgnorePathsFilter(cw.config.Ignore...))
	}

	fw.AddListener(func(event ChangeEvent) {
		dropped := cw.invalidator.Invalidate(event.Path)
		cw.logger.Debug(ctx, "Fragment changed",
			"path", event.Path,
			"type", event.Type.String(),
			"was_cached", dropped,
		)
	})

	fw.AddHandler(func(ctx context.Context, events []ChangeEvent) error {
		cw.logger.Info(ctx, "Rebuilding", "changed", len(events), "first", events[0].Path)
		return cw.rebuilder.Rebuild(ctx)
	})

	if err := fw.AddRecursive(cw.config.Root); err != nil {
		_ = fw.Stop()
		return nil, err
	}

	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}

	cw.logger.Info(ctx, "Watching for changes",
		"root", cw.config.Root,
		"debounce", fw.debouncer.Delay().String(),
		"directories", len(fw.WatchList()),
	)
	return fw, nil
}
