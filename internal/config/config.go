// Package config provides configuration management for splice using Viper
// for loading from a .splice.yml file, SPLICE_ environment variables and
// command-line flags.
//
// The configuration names the fragment root and its root template, the
// reserved namespace segments that resolve from the fragment root, the output
// file, the inclusion depth limit, the watch debounce window and the
// structural markers checked after assembly.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	serrors "github.com/conneroisu/splice/internal/errors"
)

// Defaults for a standard project layout.
const (
	DefaultFragmentRoot = "src/templates"
	DefaultRootTemplate = "index.html"
	DefaultOutputPath   = "dist/index.html"
	DefaultMaxDepth     = 20
	DefaultDebounce     = 100 * time.Millisecond
)

var (
	DefaultNamespaces = []string{"partials", "sections"}
	DefaultExtensions = []string{".html"}
)

type Config struct {
	Fragments FragmentsConfig `mapstructure:"fragments"`
	Output    OutputConfig    `mapstructure:"output"`
	Build     BuildConfig     `mapstructure:"build"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Validate  ValidateConfig  `mapstructure:"validate"`
	Log       LogConfig       `mapstructure:"log"`
}

type FragmentsConfig struct {
	Root         string `mapstructure:"root"`
	RootTemplate string `mapstructure:"root_template"`
	// Namespaces are top-level segments that always resolve from Root.
	Namespaces []string `mapstructure:"namespaces"`
	// Extensions are the fragment file extensions the watcher tracks.
	Extensions []string `mapstructure:"extensions"`
}

type OutputConfig struct {
	Path string `mapstructure:"path"`
}

type BuildConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type ValidateConfig struct {
	Doctype   string `mapstructure:"doctype"`
	RootOpen  string `mapstructure:"root_open"`
	RootClose string `mapstructure:"root_close"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault("fragments.root", DefaultFragmentRoot)
	viper.SetDefault("fragments.root_template", DefaultRootTemplate)
	viper.SetDefault("fragments.namespaces", DefaultNamespaces)
	viper.SetDefault("fragments.extensions", DefaultExtensions)
	viper.SetDefault("output.path", DefaultOutputPath)
	viper.SetDefault("build.max_depth", DefaultMaxDepth)
	viper.SetDefault("watch.debounce", DefaultDebounce)
	viper.SetDefault("validate.doctype", "<!DOCTYPE html>")
	viper.SetDefault("validate.root_open", "<html")
	viper.SetDefault("validate.root_close", "</html>")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func Load() (*Config, error) {
	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, serrors.NewConfigError("decoding configuration", err)
	}

	// Slices set through env vars arrive as a single comma separated string.
	if viper.IsSet("fragments.namespaces") {
		config.Fragments.Namespaces = splitList(viper.GetStringSlice("fragments.namespaces"))
	}
	if viper.IsSet("fragments.extensions") {
		config.Fragments.Extensions = splitList(viper.GetStringSlice("fragments.extensions"))
	}

	if err := validateConfig(&config); err != nil {
		return nil, serrors.NewConfigError("invalid configuration", err)
	}

	return &config, nil
}

// RootTemplatePath returns the root template joined onto the fragment root,
// unless the template is configured as an absolute path.
func (c *Config) RootTemplatePath() string {
	if filepath.IsAbs(c.Fragments.RootTemplate) {
		return c.Fragments.RootTemplate
	}
	return filepath.Join(c.Fragments.Root, c.Fragments.RootTemplate)
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateFragmentsConfig(&config.Fragments); err != nil {
		return fmt.Errorf("fragments config: %w", err)
	}

	if err := validatePath(config.Output.Path); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if config.Build.MaxDepth < 1 || config.Build.MaxDepth > 1000 {
		return fmt.Errorf("build config: max_depth %d is not in valid range 1-1000", config.Build.MaxDepth)
	}

	if config.Watch.Debounce <= 0 {
		return fmt.Errorf("watch config: debounce must be positive, got %s", config.Watch.Debounce)
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log config: unknown format %q", config.Log.Format)
	}

	return nil
}

// validateFragmentsConfig validates fragment layout values
func validateFragmentsConfig(config *FragmentsConfig) error {
	if err := validatePath(config.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}

	if err := validatePath(config.RootTemplate); err != nil {
		return fmt.Errorf("root_template: %w", err)
	}

	for _, ns := range config.Namespaces {
		if ns == "" || ns == "." || ns == ".." {
			return fmt.Errorf("invalid namespace %q", ns)
		}
		if strings.ContainsAny(ns, `/\`) {
			return fmt.Errorf("namespace %q must be a single path segment", ns)
		}
	}

	for _, ext := range config.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}

	return nil
}

// validatePath rejects empty paths and characters that never belong in one
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path")
	}

	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains NUL byte")
	}

	return nil
}
