package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarningKindString(t *testing.T) {
	testCases := []struct {
		kind     WarningKind
		expected string
	}{
		{WarningMissingDoctype, "missing-doctype"},
		{WarningMissingRootOpen, "missing-root-open"},
		{WarningMissingRootClose, "missing-root-close"},
		{WarningUnbalancedRoot, "unbalanced-root"},
		{WarningLeftoverDirective, "leftover-directive"},
		{WarningKind(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.kind.String())
		})
	}
}

func TestValidationWarningString(t *testing.T) {
	w := ValidationWarning{Kind: WarningLeftoverDirective, Message: "{{> partials/nav.html }}", Offset: 42}
	assert.Equal(t, "leftover-directive at offset 42: {{> partials/nav.html }}", w.String())
	assert.Equal(t, w.String(), w.Error())

	w = ValidationWarning{Kind: WarningMissingDoctype, Message: "no doctype", Offset: -1}
	assert.Equal(t, "missing-doctype: no doctype", w.String())
}

func TestWarningCollector(t *testing.T) {
	collector := NewWarningCollector()
	assert.Empty(t, collector.Warnings())
	assert.NotNil(t, collector.Warnings())

	collector.Add(ValidationWarning{Kind: WarningMissingDoctype, Offset: -1})
	collector.Add(ValidationWarning{Kind: WarningLeftoverDirective, Offset: 3})
	collector.Add(ValidationWarning{Kind: WarningLeftoverDirective, Offset: 9})

	assert.Len(t, collector.Warnings(), 3)
	assert.Equal(t, WarningLeftoverDirective, collector.Warnings()[2].Kind)

	// Returned slice is a copy
	got := collector.Warnings()
	got[0].Message = "changed"
	assert.Empty(t, collector.Warnings()[0].Message)
}

func TestSpliceErrorMessage(t *testing.T) {
	err := NewCyclicInclusion("/t/partials/a.html", []string{"/t/index.html", "/t/partials/a.html", "/t/partials/b.html"})

	msg := err.Error()
	assert.Contains(t, msg, "[ERR_CYCLIC_INCLUSION]")
	assert.Contains(t, msg, "/t/partials/a.html")
	assert.Contains(t, msg, "/t/index.html -> /t/partials/a.html -> /t/partials/b.html")
}

func TestSpliceErrorIs(t *testing.T) {
	cause := fmt.Errorf("open: no such file")
	err := NewFragmentNotFound("/t/sections/missing.html", cause)

	assert.True(t, errors.Is(err, ErrFragmentNotFound))
	assert.False(t, errors.Is(err, ErrCyclicInclusion))
	assert.True(t, errors.Is(err, cause))

	wrapped := Wrap(err, "sections/missing.html", "resolving")
	assert.True(t, errors.Is(wrapped, ErrFragmentNotFound))
	assert.Contains(t, wrapped.Error(), `"sections/missing.html"`)
	assert.Equal(t, ErrCodeFragmentNotFound, CodeOf(wrapped))
}

func TestMaxDepthExceededContext(t *testing.T) {
	chain := []string{"a", "b"}
	err := NewMaxDepthExceeded("c", 21, 20, chain)

	require.NotNil(t, err.Context)
	assert.Equal(t, 21, err.Context["depth"])
	assert.Equal(t, 20, err.Context["limit"])
	assert.Equal(t, chain, ChainOf(err))

	// Chain is copied
	chain[0] = "z"
	assert.Equal(t, "a", err.Chain[0])
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "x", "y"))
	assert.Empty(t, CodeOf(errors.New("plain")))
	assert.Nil(t, ChainOf(errors.New("plain")))
}

func TestAttachChain(t *testing.T) {
	err := NewFragmentNotFound("/t/x.html", nil)
	wrapped := Wrap(err, "x.html", "including")

	AttachChain(wrapped, []string{"/t/a.html"})
	assert.Equal(t, []string{"/t/a.html"}, ChainOf(wrapped))

	// An existing chain is kept.
	AttachChain(wrapped, []string{"/t/other.html"})
	assert.Equal(t, []string{"/t/a.html"}, ChainOf(wrapped))

	plain := errors.New("plain")
	assert.Equal(t, plain, AttachChain(plain, []string{"/t/a.html"}))
}
