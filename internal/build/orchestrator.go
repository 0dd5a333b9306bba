// Package build drives a full composition build: it prepares the fragment
// layout, resolves the root template, validates and writes the output, and
// reports size and timing.
package build

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	serrors "github.com/conneroisu/splice/internal/errors"
	"github.com/conneroisu/splice/internal/fragment"
	"github.com/conneroisu/splice/internal/logging"
	"github.com/conneroisu/splice/internal/resolver"
)

// Options configures an Orchestrator.
type Options struct {
	FragmentRoot string
	// Namespaces are top-level segments resolved from FragmentRoot.
	Namespaces []string
	OutputPath string
	MaxDepth   int
	Validation ValidationOptions
}

// Orchestrator runs builds. At most one build runs at a time; the fragment
// cache outlives builds so a watcher can invalidate entries between them, but
// it is cleared at the start of every build.
type Orchestrator struct {
	opts      Options
	store     *fragment.FileStore
	cache     *fragment.Cache
	writer    OutputWriter
	validator *OutputValidator
	metrics   *BuildMetrics
	logger    logging.Logger

	mutex sync.Mutex
	last  *BuildResult
}

// NewOrchestrator creates an orchestrator. A nil store reads from the OS
// filesystem and a nil logger discards output.
func NewOrchestrator(opts Options, store *fragment.FileStore, logger logging.Logger) *Orchestrator {
	if store == nil {
		store = fragment.NewFileStore(nil)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = fragment.DefaultMaxDepth
	}

	return &Orchestrator{
		opts:      opts,
		store:     store,
		cache:     fragment.NewCache(store),
		writer:    AtomicWriter{},
		validator: NewOutputValidator(opts.Validation),
		metrics:   NewBuildMetrics(),
		logger:    logger.WithComponent("build"),
	}
}

// SetWriter replaces the output writer.
func (o *Orchestrator) SetWriter(w OutputWriter) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.writer = w
}

// Cache returns the fragment cache so changed paths can be invalidated.
func (o *Orchestrator) Cache() *fragment.Cache {
	return o.cache
}

// Metrics returns the build metrics tracker.
func (o *Orchestrator) Metrics() *BuildMetrics {
	return o.metrics
}

// LastResult returns the result of the most recent build, or nil.
func (o *Orchestrator) LastResult() *BuildResult {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.last
}

// Layout returns the directories a build makes sure exist.
func (o *Orchestrator) Layout() []string {
	dirs := []string{o.opts.FragmentRoot}
	for _, ns := range o.opts.Namespaces {
		dirs = append(dirs, filepath.Join(o.opts.FragmentRoot, ns))
	}
	return dirs
}

// Build assembles rootTemplatePath and writes it to the output path.
//
// On any resolution or write failure the output file is left untouched and
// the error is returned. failFast selects how the failure is reported: a
// one-shot caller is about to exit non-zero, a watcher keeps the previous
// output and waits for the next change.
func (o *Orchestrator) Build(ctx context.Context, rootTemplatePath string, failFast bool) (*BuildResult, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	op := logging.StartOperation(o.logger, "build")
	result := &BuildResult{}

	output, err := o.assemble(ctx, rootTemplatePath)
	if err == nil {
		result.Output = output
		result.Size = len(output)
		result.Digest = digest(output)
		result.Warnings = o.validator.Validate(output)

		for _, w := range result.Warnings {
			o.logger.Warn(ctx, w, "Output validation warning", "kind", w.Kind.String())
		}

		if werr := o.writer.WriteOutput(o.opts.OutputPath, []byte(output)); werr != nil {
			err = serrors.NewWriteFailure(o.opts.OutputPath, werr)
		} else {
			result.Written = true
		}
	}

	result.Cache = o.cache.Stats()
	result.Err = err
	o.last = result

	if err != nil {
		result.Elapsed = o.reportFailure(ctx, op, err, failFast)
		o.metrics.RecordBuild(result)
		return result, err
	}

	result.Elapsed = op.End(ctx,
		"output", o.opts.OutputPath,
		"size", humanize.Bytes(uint64(result.Size)),
		"bytes", result.Size,
		"digest", result.Digest[:12],
		"warnings", len(result.Warnings),
		"fragments_read", result.Cache.Misses,
		"cache_hits", result.Cache.Hits,
	)
	o.metrics.RecordBuild(result)

	return result, nil
}

// assemble prepares the layout, resets per-build state and resolves the root
// template.
func (o *Orchestrator) assemble(ctx context.Context, rootTemplatePath string) (string, error) {
	if err := o.store.EnsureDirs(o.Layout()...); err != nil {
		return "", err
	}

	o.cache.Clear()
	guard := fragment.NewGuard(o.opts.MaxDepth)

	rules, err := fragment.NewPathRules(o.opts.FragmentRoot, o.opts.Namespaces)
	if err != nil {
		return "", err
	}

	rootText, err := o.cache.Get(rootTemplatePath)
	if err != nil {
		return "", err
	}

	res := resolver.New(o.cache, guard, rules, o.logger)
	return res.Resolve(ctx, rootText, rules.Root(), 0)
}

// reportFailure logs a failed build once and returns its duration. A
// fail-fast failure is fatal to the caller; otherwise the previous output
// stays in place.
func (o *Orchestrator) reportFailure(ctx context.Context, op *logging.PerfLogger, err error, failFast bool) time.Duration {
	fields := []interface{}{
		"code", serrors.CodeOf(err),
		"output", o.opts.OutputPath,
	}
	if chain := serrors.ChainOf(err); len(chain) > 0 {
		fields = append(fields, "chain", strings.Join(chain, " -> "))
	}

	if failFast {
		elapsed := op.Elapsed()
		op.Fatal(ctx, err, "Build failed", append(fields, "duration", elapsed.String())...)
		return elapsed
	}
	return op.EndWithError(ctx, err, append(fields, "previous_output", "kept")...)
}
