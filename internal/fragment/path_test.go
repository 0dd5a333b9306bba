package fragment

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/conneroisu/splice/internal/errors"
)

func TestPathRulesResolve(t *testing.T) {
	rules, err := NewPathRules("/site", []string{"partials", "sections"})
	require.NoError(t, err)

	testCases := []struct {
		name    string
		ref     string
		baseDir string
		want    string
	}{
		{"namespace from root", "partials/nav.html", "/site/sections/docs", "/site/partials/nav.html"},
		{"namespace trimmed", "  sections/hero.html \n", "/site/other", "/site/sections/hero.html"},
		{"relative to including fragment", "item.html", "/site/sections/docs", "/site/sections/docs/item.html"},
		{"relative with dot segments", "./sub/../item.html", "/site/sections", "/site/sections/item.html"},
		{"absolute as-is", "/elsewhere/x.html", "/site", "/elsewhere/x.html"},
		{"prefix is not a namespace", "partialsX/a.html", "/site/sections", "/site/sections/partialsX/a.html"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rules.Resolve(tc.ref, tc.baseDir)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tc.want), got)
		})
	}
}

func TestPathRulesEmptyRef(t *testing.T) {
	rules, err := NewPathRules("/site", nil)
	require.NoError(t, err)

	_, err = rules.Resolve("   ", "/site")
	assert.True(t, errors.Is(err, serrors.ErrInvalidDirective))
}

func TestPathRulesConfigurableNamespaces(t *testing.T) {
	rules, err := NewPathRules("/site", []string{"layouts/"})
	require.NoError(t, err)

	assert.True(t, rules.Namespaced("layouts/base.html"))
	assert.False(t, rules.Namespaced("partials/nav.html"))
	assert.Equal(t, "/site", rules.Root())
}
