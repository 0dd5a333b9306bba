package build

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	serrors "github.com/conneroisu/splice/internal/errors"
	"github.com/conneroisu/splice/internal/fragment"
)

// BuildResult describes one build invocation. Only the most recent result is
// kept.
type BuildResult struct {
	Output   string
	Warnings []serrors.ValidationWarning
	Elapsed  time.Duration
	Size     int
	// Digest is the hex BLAKE3 hash of Output.
	Digest string
	Cache  fragment.CacheStats
	// Written is true once Output has replaced the output file.
	Written bool
	Err     error
}

// Success reports whether the build resolved and wrote its output.
func (r *BuildResult) Success() bool {
	return r != nil && r.Err == nil && r.Written
}

func digest(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
