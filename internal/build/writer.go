package build

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// OutputWriter persists assembled output.
type OutputWriter interface {
	WriteOutput(path string, data []byte) error
}

// WriterFunc adapts a function to OutputWriter.
type WriterFunc func(path string, data []byte) error

// WriteOutput implements OutputWriter.
func (f WriterFunc) WriteOutput(path string, data []byte) error {
	return f(path, data)
}

// AtomicWriter writes through a temp file and rename, so readers see either
// the previous output or the new one and never a partial file.
type AtomicWriter struct{}

// WriteOutput implements OutputWriter.
func (AtomicWriter) WriteOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
