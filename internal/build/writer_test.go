package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriterCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dist", "nested", "index.html")

	require.NoError(t, AtomicWriter{}.WriteOutput(path, []byte("first")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	require.NoError(t, AtomicWriter{}.WriteOutput(path, []byte("second")))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriterFunc(t *testing.T) {
	var got string
	w := WriterFunc(func(path string, data []byte) error {
		got = path + ":" + string(data)
		return nil
	})
	require.NoError(t, w.WriteOutput("out", []byte("x")))
	assert.Equal(t, "out:x", got)
}
