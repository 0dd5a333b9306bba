package errors

import (
	"fmt"
	"sync"
)

// WarningKind identifies the structural check that produced a warning.
type WarningKind int

const (
	WarningMissingDoctype WarningKind = iota
	WarningMissingRootOpen
	WarningMissingRootClose
	WarningUnbalancedRoot
	WarningLeftoverDirective
)

// String returns the string representation of the kind
func (k WarningKind) String() string {
	switch k {
	case WarningMissingDoctype:
		return "missing-doctype"
	case WarningMissingRootOpen:
		return "missing-root-open"
	case WarningMissingRootClose:
		return "missing-root-close"
	case WarningUnbalancedRoot:
		return "unbalanced-root"
	case WarningLeftoverDirective:
		return "leftover-directive"
	default:
		return "unknown"
	}
}

// ValidationWarning is a non-fatal structural anomaly in assembled output.
type ValidationWarning struct {
	Kind    WarningKind
	Message string
	// Offset is the byte offset in the output, or -1 when not applicable.
	Offset int
}

// Error implements the error interface so warnings can travel as errors.
func (w ValidationWarning) Error() string {
	return w.String()
}

// String formats the warning for logs.
func (w ValidationWarning) String() string {
	if w.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", w.Kind, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// WarningCollector collects validation warnings across a build.
type WarningCollector struct {
	warnings []ValidationWarning
	mutex    sync.RWMutex
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector() *WarningCollector {
	return &WarningCollector{
		warnings: make([]ValidationWarning, 0),
	}
}

// Add adds a warning to the collector
func (wc *WarningCollector) Add(w ValidationWarning) {
	wc.mutex.Lock()
	defer wc.mutex.Unlock()
	wc.warnings = append(wc.warnings, w)
}

// Warnings returns a copy of the collected warnings.
func (wc *WarningCollector) Warnings() []ValidationWarning {
	wc.mutex.RLock()
	defer wc.mutex.RUnlock()
	result := make([]ValidationWarning, len(wc.warnings))
	copy(result, wc.warnings)
	return result
}
