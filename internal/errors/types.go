package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeResolve  ErrorType = "resolve"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// Error codes for the composition engine.
const (
	ErrCodeFragmentNotFound = "ERR_FRAGMENT_NOT_FOUND"
	ErrCodeCyclicInclusion  = "ERR_CYCLIC_INCLUSION"
	ErrCodeMaxDepthExceeded = "ERR_MAX_DEPTH_EXCEEDED"
	ErrCodeInvalidDirective = "ERR_INVALID_DIRECTIVE"
	ErrCodeWriteFailure     = "ERR_WRITE_FAILURE"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
)

// Sentinels for errors.Is comparisons. Matching is on Type and Code only.
var (
	ErrFragmentNotFound = &SpliceError{Type: ErrorTypeResolve, Code: ErrCodeFragmentNotFound}
	ErrCyclicInclusion  = &SpliceError{Type: ErrorTypeResolve, Code: ErrCodeCyclicInclusion}
	ErrMaxDepthExceeded = &SpliceError{Type: ErrorTypeResolve, Code: ErrCodeMaxDepthExceeded}
	ErrInvalidDirective = &SpliceError{Type: ErrorTypeResolve, Code: ErrCodeInvalidDirective}
	ErrWriteFailure     = &SpliceError{Type: ErrorTypeIO, Code: ErrCodeWriteFailure}
)

// SpliceError is a structured error type with context.
type SpliceError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	// Path is the fragment or output path the error concerns.
	Path string
	// Chain is the inclusion stack, outermost first, at the time of failure.
	Chain   []string
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *SpliceError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	result := strings.Join(parts, " ")

	if len(e.Chain) > 0 {
		result += " (chain: " + strings.Join(e.Chain, " -> ") + ")"
	}

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *SpliceError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *SpliceError) Is(target error) bool {
	var t *SpliceError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *SpliceError) WithContext(key string, value interface{}) *SpliceError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithChain records the inclusion chain that led to the error.
func (e *SpliceError) WithChain(chain []string) *SpliceError {
	e.Chain = append([]string(nil), chain...)

	return e
}

// NewFragmentNotFound reports a directive whose target has no backing file.
func NewFragmentNotFound(path string, cause error) *SpliceError {
	return &SpliceError{
		Type:    ErrorTypeResolve,
		Code:    ErrCodeFragmentNotFound,
		Message: "fragment not found",
		Path:    path,
		Cause:   cause,
	}
}

// NewCyclicInclusion reports a path re-entered while already on the stack.
func NewCyclicInclusion(path string, chain []string) *SpliceError {
	return (&SpliceError{
		Type:    ErrorTypeResolve,
		Code:    ErrCodeCyclicInclusion,
		Message: "cyclic inclusion",
		Path:    path,
	}).WithChain(chain)
}

// NewMaxDepthExceeded reports an inclusion deeper than limit.
func NewMaxDepthExceeded(path string, depth, limit int, chain []string) *SpliceError {
	return (&SpliceError{
		Type:    ErrorTypeResolve,
		Code:    ErrCodeMaxDepthExceeded,
		Message: fmt.Sprintf("inclusion depth %d exceeds limit %d", depth, limit),
		Path:    path,
	}).WithChain(chain).WithContext("depth", depth).WithContext("limit", limit)
}

// NewInvalidDirective reports a directive that cannot be resolved at all.
func NewInvalidDirective(ref, message string) *SpliceError {
	return &SpliceError{
		Type:    ErrorTypeResolve,
		Code:    ErrCodeInvalidDirective,
		Message: message,
		Path:    ref,
	}
}

// NewWriteFailure reports an output file that could not be persisted.
func NewWriteFailure(path string, cause error) *SpliceError {
	return &SpliceError{
		Type:    ErrorTypeIO,
		Code:    ErrCodeWriteFailure,
		Message: "failed to write output",
		Path:    path,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *SpliceError {
	return &SpliceError{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeConfigInvalid,
		Message: message,
		Cause:   cause,
	}
}

// Wrap adds the referencing fragment to an error coming out of a nested
// expansion. The wrapped error stays reachable through Unwrap.
func Wrap(err error, ref, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s %q: %w", message, ref, err)
}

// AttachChain records chain on the SpliceError in err unless it already
// carries one. Other errors are returned unchanged.
func AttachChain(err error, chain []string) error {
	var se *SpliceError
	if errors.As(err, &se) && len(se.Chain) == 0 {
		se.WithChain(chain)
	}

	return err
}

// CodeOf returns the code of the first SpliceError in err's chain, or "".
func CodeOf(err error) string {
	var se *SpliceError
	if errors.As(err, &se) {
		return se.Code
	}

	return ""
}

// ChainOf returns the inclusion chain carried by err, if any.
func ChainOf(err error) []string {
	var se *SpliceError
	if errors.As(err, &se) {
		return se.Chain
	}

	return nil
}
