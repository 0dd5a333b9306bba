package fragment

import (
	"path/filepath"
	"strings"

	serrors "github.com/conneroisu/splice/internal/errors"
)

// PathRules turns directive path text into a cleaned absolute fragment path.
//
// Text whose first segment is a namespace resolves from the fragment root,
// absolute text is used as-is, and anything else resolves from the directory
// of the fragment containing the directive.
type PathRules struct {
	root       string
	namespaces map[string]struct{}
}

// NewPathRules creates rules for the given fragment root and namespaces.
func NewPathRules(root string, namespaces []string) (*PathRules, error) {
	cleanRoot, err := Clean(root)
	if err != nil {
		return nil, err
	}

	ns := make(map[string]struct{}, len(namespaces))
	for _, n := range namespaces {
		ns[strings.Trim(filepath.ToSlash(n), "/")] = struct{}{}
	}

	return &PathRules{root: cleanRoot, namespaces: ns}, nil
}

// Root returns the cleaned fragment root.
func (r *PathRules) Root() string {
	return r.root
}

// Namespaced reports whether ref starts with a namespace segment.
func (r *PathRules) Namespaced(ref string) bool {
	slashed := filepath.ToSlash(strings.TrimSpace(ref))
	first, _, _ := strings.Cut(slashed, "/")
	_, ok := r.namespaces[first]
	return ok
}

// Resolve returns the cleaned path for ref as written in a fragment whose
// directory is baseDir.
func (r *PathRules) Resolve(ref, baseDir string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", serrors.NewInvalidDirective(ref, "empty directive path")
	}

	var target string
	switch {
	case r.Namespaced(ref):
		target = filepath.Join(r.root, filepath.FromSlash(ref))
	case filepath.IsAbs(ref):
		target = ref
	default:
		target = filepath.Join(baseDir, filepath.FromSlash(ref))
	}

	return Clean(target)
}
