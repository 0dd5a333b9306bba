package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/splice/internal/config"
	serrors "github.com/conneroisu/splice/internal/errors"
	"github.com/conneroisu/splice/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootBuildsOnce(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "templates")
	output := filepath.Join(dir, "dist", "index.html")

	writeFile(t, filepath.Join(root, "index.html"), "<!DOCTYPE html><html>{{> partials/nav.html }}</html>")
	writeFile(t, filepath.Join(root, "partials", "nav.html"), "<nav>home</nav>")

	_, err := executeRoot(t, "--root", root, "--output", output, "--watch=false")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><html><nav>home</nav></html>", string(data))
	assert.DirExists(t, filepath.Join(root, "sections"))
}

func TestRootFailsOnMissingFragment(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "templates")
	output := filepath.Join(dir, "dist", "index.html")

	writeFile(t, filepath.Join(root, "index.html"), "<html>{{> partials/missing.html }}</html>")

	logs, err := executeRoot(t, "--root", root, "--output", output, "--watch=false")
	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrFragmentNotFound))
	assert.Contains(t, logs, "Build failed")
	assert.NoFileExists(t, output)
}

func TestExecuteReportsBuildFailureOnce(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "templates")
	output := filepath.Join(dir, "dist", "index.html")
	writeFile(t, filepath.Join(root, "index.html"), "<html>{{> partials/missing.html }}</html>")

	viper.Reset()
	t.Cleanup(viper.Reset)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--root", root, "--output", output, "--watch=false"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrFragmentNotFound))
	assert.Equal(t, 1, strings.Count(out.String(), "missing.html fragment not found"))
	assert.NotContains(t, out.String(), "Error:")
}

func TestExecutePrintsUnreportedErrors(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	var out bytes.Buffer
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"unexpected-arg"})
	t.Cleanup(func() {
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.Error(t, Execute())
	assert.Contains(t, out.String(), "Error:")
}

func TestRunWatchIgnoresOutputInsideRoot(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "templates")
	output := filepath.Join(root, "out", "index.html")
	writeFile(t, filepath.Join(root, "index.html"), "<!DOCTYPE html><html>{{> partials/nav.html }}</html>")
	writeFile(t, filepath.Join(root, "partials", "nav.html"), "<nav>v1</nav>")

	cfg := &config.Config{
		Fragments: config.FragmentsConfig{
			Root:         root,
			RootTemplate: "index.html",
			Namespaces:   []string{"partials", "sections"},
			Extensions:   []string{".html"},
		},
		Output: config.OutputConfig{Path: output},
		Build:  config.BuildConfig{MaxDepth: 20},
		Watch:  config.WatchConfig{Debounce: 50 * time.Millisecond},
	}
	logger := logging.Nop()
	orchestrator := newOrchestrator(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, cfg, orchestrator, logger) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		return orchestrator.Metrics().Snapshot().SuccessfulBuilds == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Wait until a fragment change has been picked up.
	nav := filepath.Join(root, "partials", "nav.html")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(nav, []byte("<nav>v2</nav>"), 0644)
		data, err := os.ReadFile(output)
		return err == nil && strings.Contains(string(data), "v2")
	}, 3*time.Second, 100*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	settled := orchestrator.Metrics().Snapshot().TotalBuilds
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, settled, orchestrator.Metrics().Snapshot().TotalBuilds)
}

func TestRootRejectsBadFlags(t *testing.T) {
	_, err := executeRoot(t, "--log-level", "chatty")
	assert.Error(t, err)

	_, err = executeRoot(t, "--log-format", "xml")
	assert.Error(t, err)

	_, err = executeRoot(t, "unexpected-arg")
	assert.Error(t, err)
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := executeRoot(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])

	_, err = executeRoot(t, "version", "--format", "yaml")
	assert.Error(t, err)

	versionFormat = "text"
}

func TestSetViperBindings(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("output", "", "")
	require.NoError(t, fs.Parse([]string{"--output", "public/page.html"}))

	require.NoError(t, SetViperBindings(fs, map[string]string{
		"output":  "output.path",
		"missing": "fragments.root",
	}))
	assert.Equal(t, "public/page.html", viper.GetString("output.path"))
	assert.False(t, viper.IsSet("fragments.root"))
}

func TestRunWatchRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "templates")
	output := filepath.Join(dir, "dist", "index.html")

	// The first build fails; watch mode keeps going.
	writeFile(t, filepath.Join(root, "index.html"), "<!DOCTYPE html><html>{{> partials/nav.html }}</html>")

	cfg := &config.Config{
		Fragments: config.FragmentsConfig{
			Root:         root,
			RootTemplate: "index.html",
			Namespaces:   []string{"partials", "sections"},
			Extensions:   []string{".html"},
		},
		Output: config.OutputConfig{Path: output},
		Build:  config.BuildConfig{MaxDepth: 20},
		Watch:  config.WatchConfig{Debounce: 50 * time.Millisecond},
	}
	logger := logging.Nop()
	orchestrator := newOrchestrator(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, cfg, orchestrator, logger) }()

	require.Eventually(t, func() bool {
		return orchestrator.Metrics().Snapshot().FailedBuilds == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoFileExists(t, output)

	nav := filepath.Join(root, "partials", "nav.html")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(nav, []byte("<nav>v1</nav>"), 0644)
		data, err := os.ReadFile(output)
		return err == nil && string(data) == "<!DOCTYPE html><html><nav>v1</nav></html>"
	}, 3*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
