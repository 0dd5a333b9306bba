package build

import (
	"sync"
	"time"

	serrors "github.com/conneroisu/splice/internal/errors"
)

// MetricsSnapshot is a point-in-time copy of BuildMetrics.
type MetricsSnapshot struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	TotalDuration    time.Duration
	AverageDuration  time.Duration
	LastBuild        time.Time

	// FragmentsRead counts storage reads across all builds and CacheHits the
	// directives served from the per-build cache.
	FragmentsRead int64
	CacheHits     int64
	// OutputChanges counts successful builds whose output differed from the
	// previously written one.
	OutputChanges int64
	// FailuresByCode groups failed builds by error code.
	FailuresByCode map[string]int64
}

// BuildMetrics tracks build outcomes across a process lifetime.
type BuildMetrics struct {
	snapshot   MetricsSnapshot
	lastDigest string
	mutex      sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{
		snapshot: MetricsSnapshot{FailuresByCode: make(map[string]int64)},
	}
}

// RecordBuild records a build result in the metrics
func (bm *BuildMetrics) RecordBuild(result *BuildResult) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	s := &bm.snapshot
	s.TotalBuilds++
	s.TotalDuration += result.Elapsed
	s.AverageDuration = s.TotalDuration / time.Duration(s.TotalBuilds)
	s.LastBuild = time.Now()
	s.FragmentsRead += result.Cache.Misses
	s.CacheHits += result.Cache.Hits

	if result.Err != nil {
		s.FailedBuilds++
		code := serrors.CodeOf(result.Err)
		if code == "" {
			code = "unknown"
		}
		s.FailuresByCode[code]++
		return
	}

	s.SuccessfulBuilds++
	if result.Written && result.Digest != bm.lastDigest {
		s.OutputChanges++
		bm.lastDigest = result.Digest
	}
}

// Snapshot returns a copy of the current metrics.
func (bm *BuildMetrics) Snapshot() MetricsSnapshot {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	out := bm.snapshot
	out.FailuresByCode = make(map[string]int64, len(bm.snapshot.FailuresByCode))
	for code, n := range bm.snapshot.FailuresByCode {
		out.FailuresByCode[code] = n
	}
	return out
}

// SuccessRate returns the success rate as a percentage
func (bm *BuildMetrics) SuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.snapshot.TotalBuilds == 0 {
		return 0.0
	}

	return float64(bm.snapshot.SuccessfulBuilds) / float64(bm.snapshot.TotalBuilds) * 100.0
}
