// Package resolver expands include directives in fragment text.
//
// Expansion runs in two passes over a template. The first pass replaces
// block directives (`{{> p }}body{{/ p }}`): the referenced fragment is read,
// every `{{content}}` placeholder in it is replaced with the trimmed body, and
// the result is resolved recursively from the referenced fragment's own
// directory. The second pass replaces the remaining inline directives
// (`{{> p }}`) with the recursively resolved fragment. Text produced by an
// expansion is already fully resolved and is never scanned again.
package resolver

import (
	"context"
	"path/filepath"
	"strings"

	serrors "github.com/conneroisu/splice/internal/errors"
	"github.com/conneroisu/splice/internal/fragment"
	"github.com/conneroisu/splice/internal/logging"
)

// Resolver expands directives using a cache for fragment content and a guard
// for the active inclusion stack. A Resolver belongs to one build.
type Resolver struct {
	cache  *fragment.Cache
	guard  *fragment.Guard
	rules  *fragment.PathRules
	logger logging.Logger
}

// New creates a resolver. A nil logger discards output.
func New(cache *fragment.Cache, guard *fragment.Guard, rules *fragment.PathRules, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Resolver{
		cache:  cache,
		guard:  guard,
		rules:  rules,
		logger: logger.WithComponent("resolver"),
	}
}

// segment is a run of output text. Expanded segments are final.
type segment struct {
	text     string
	expanded bool
}

// Resolve returns text with every directive expanded. baseDir is the
// directory relative paths resolve from and depth is the nesting level of
// text (0 for the root template). Any failure aborts the whole call.
func (r *Resolver) Resolve(ctx context.Context, text, baseDir string, depth int) (string, error) {
	segments, err := r.expandBlocks(ctx, text, baseDir, depth)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.Grow(len(text))
	for _, seg := range segments {
		if seg.expanded {
			out.WriteString(seg.text)
			continue
		}
		if err := r.expandInline(ctx, &out, seg.text, baseDir, depth); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

// expandBlocks is the first pass.
func (r *Resolver) expandBlocks(ctx context.Context, text, baseDir string, depth int) ([]segment, error) {
	blocks := Blocks(text)
	if len(blocks) == 0 {
		return []segment{{text: text}}, nil
	}

	segments := make([]segment, 0, 2*len(blocks)+1)
	pos := 0
	for _, b := range blocks {
		if b.Open.Start > pos {
			segments = append(segments, segment{text: text[pos:b.Open.Start]})
		}

		body := strings.TrimSpace(b.Body)
		resolved, err := r.include(ctx, b.Open.Path, baseDir, depth, &body)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment{text: resolved, expanded: true})
		pos = b.Close.End
	}
	if pos < len(text) {
		segments = append(segments, segment{text: text[pos:]})
	}
	return segments, nil
}

// expandInline is the second pass over one unexpanded segment.
func (r *Resolver) expandInline(ctx context.Context, out *strings.Builder, text, baseDir string, depth int) error {
	pos := 0
	for _, m := range Markers(text) {
		if m.Kind != MarkerOpen {
			// A stray close marker stays in the text for the validator.
			continue
		}
		out.WriteString(text[pos:m.Start])

		resolved, err := r.include(ctx, m.Path, baseDir, depth, nil)
		if err != nil {
			return err
		}
		out.WriteString(resolved)
		pos = m.End
	}
	out.WriteString(text[pos:])
	return nil
}

// include resolves one directive. body is nil for inline directives.
func (r *Resolver) include(ctx context.Context, ref, baseDir string, depth int, body *string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := r.rules.Resolve(ref, baseDir)
	if err != nil {
		return "", serrors.Wrap(err, ref, "resolving")
	}

	if err := r.guard.Enter(path); err != nil {
		return "", serrors.Wrap(err, ref, "including")
	}
	defer r.guard.Leave(path)

	content, err := r.cache.Get(path)
	if err != nil {
		return "", serrors.Wrap(serrors.AttachChain(err, r.guard.Chain()), ref, "including")
	}

	if body != nil {
		content = substituteBody(content, *body)
	}

	r.logger.Debug(ctx, "Expanding fragment",
		"ref", ref,
		"path", path,
		"depth", r.guard.Depth(),
		"block", body != nil,
	)

	resolved, err := r.Resolve(ctx, content, filepath.Dir(path), depth+1)
	if err != nil {
		return "", serrors.Wrap(err, ref, "in")
	}
	return resolved, nil
}
