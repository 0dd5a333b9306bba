// Package cmd provides the splice command-line interface.
//
// Configuration is read, highest priority first, from:
//  1. Command-line flags (--root, --output, --log-level, ...)
//  2. SPLICE_* environment variables (SPLICE_OUTPUT_PATH, SPLICE_FRAGMENTS_ROOT, ...)
//  3. The configuration file: --config, then SPLICE_CONFIG_FILE, then .splice.yml
//  4. Built-in defaults
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/splice/internal/build"
	"github.com/conneroisu/splice/internal/config"
	"github.com/conneroisu/splice/internal/logging"
	"github.com/conneroisu/splice/internal/watcher"
)

var (
	cfgFile   string
	watchMode bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "splice",
	Short: "Assemble a single page from fragment templates",
	Long: `Splice assembles one output document from a tree of text fragments.

A fragment includes another with {{> path }}. A block directive wraps content
in a layout fragment, replacing every {{content}} placeholder in it:

  {{> partials/card.html }}<p>Body</p>{{/ partials/card.html }}

Paths under a namespace (partials/, sections/ by default) resolve from the
fragment root; any other relative path resolves from the including fragment's
directory.

Examples:
  splice                         Build once and exit
  splice --watch                 Build, then rebuild on every fragment change
  splice --root site --output public/index.html`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	var reported *reportedError
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

// reportedError is an error that has already been logged with its details.
// Execute does not print it again.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func init() {
	cobra.OnInitialize(initConfig)

	persistent := rootCmd.PersistentFlags()
	persistent.StringVar(&cfgFile, "config", "", "config file (default is .splice.yml, can also use SPLICE_CONFIG_FILE env var)")
	persistent.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	persistent.String("log-format", "text", "log format (text, json)")

	flags := rootCmd.Flags()
	flags.BoolVarP(&watchMode, "watch", "w", false, "Rebuild whenever a fragment changes")
	flags.String("root", config.DefaultFragmentRoot, "Fragment root directory")
	flags.String("template", config.DefaultRootTemplate, "Root template, relative to the fragment root")
	flags.StringP("output", "o", config.DefaultOutputPath, "Output file")
	flags.Int("max-depth", config.DefaultMaxDepth, "Maximum inclusion depth")
	flags.Duration("debounce", config.DefaultDebounce, "Quiet period before a watch rebuild")

	AddFlagValidation(persistent, "log-level", ValidateLogLevel)
	AddFlagValidation(persistent, "log-format", ValidateLogFormat)
}

// initConfig points viper at the configuration file and enables SPLICE_
// environment overrides. A missing file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("SPLICE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".splice")
	}

	viper.SetEnvPrefix("SPLICE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := SetViperBindings(cmd.Flags(), configBindings); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	orchestrator := newOrchestrator(cfg, logger)

	if watchMode {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cfg, orchestrator, logger)
	}

	if _, err := orchestrator.Build(ctx, cfg.RootTemplatePath(), true); err != nil {
		return &reportedError{err: err}
	}
	return nil
}

// runWatch performs an initial tolerant build and then rebuilds after every
// debounced burst of fragment changes until ctx is done. Build failures are
// logged and never end the watch.
func runWatch(ctx context.Context, cfg *config.Config, orchestrator *build.Orchestrator, logger logging.Logger) error {
	rootTemplate := cfg.RootTemplatePath()

	rebuild := watcher.RebuildFunc(func(ctx context.Context) error {
		_, err := orchestrator.Build(ctx, rootTemplate, false)
		snapshot := orchestrator.Metrics().Snapshot()
		logger.Info(ctx, "Build metrics",
			"builds", snapshot.TotalBuilds,
			"failed", snapshot.FailedBuilds,
			"success_rate", fmt.Sprintf("%.1f%%", orchestrator.Metrics().SuccessRate()),
			"avg_duration", snapshot.AverageDuration.String(),
			"output_changes", snapshot.OutputChanges,
			"fragments_read", snapshot.FragmentsRead,
		)
		return err
	})

	// The initial build also creates the fragment layout the watcher needs.
	_ = rebuild(ctx)

	changeWatcher := watcher.NewChangeWatcher(watcher.ChangeWatcherConfig{
		Root:       cfg.Fragments.Root,
		Extensions: cfg.Fragments.Extensions,
		Debounce:   cfg.Watch.Debounce,
		Ignore:     []string{cfg.Output.Path},
	}, orchestrator.Cache(), rebuild, logger)

	if err := changeWatcher.Run(ctx); err != nil {
		return fmt.Errorf("file watcher: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log config: %w", err)
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: out,
	}), nil
}

func newOrchestrator(cfg *config.Config, logger logging.Logger) *build.Orchestrator {
	return build.NewOrchestrator(build.Options{
		FragmentRoot: cfg.Fragments.Root,
		Namespaces:   cfg.Fragments.Namespaces,
		OutputPath:   cfg.Output.Path,
		MaxDepth:     cfg.Build.MaxDepth,
		Validation: build.ValidationOptions{
			Doctype:   cfg.Validate.Doctype,
			RootOpen:  cfg.Validate.RootOpen,
			RootClose: cfg.Validate.RootClose,
		},
	}, nil, logger)
}
