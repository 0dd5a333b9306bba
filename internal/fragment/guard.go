package fragment

import (
	serrors "github.com/conneroisu/splice/internal/errors"
)

// DefaultMaxDepth is the inclusion depth limit used when none is configured.
const DefaultMaxDepth = 20

// Guard tracks the fragments being expanded on the current resolution path.
// A path may appear on the stack at most once, compared by Key, and the stack may not grow
// past the depth limit. Guard is owned by a single build and is not safe for
// concurrent use.
type Guard struct {
	stack  []string
	active map[string]struct{}
	limit  int
}

// NewGuard creates a guard with the given depth limit. A non-positive limit
// selects DefaultMaxDepth.
func NewGuard(limit int) *Guard {
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	return &Guard{
		active: make(map[string]struct{}),
		limit:  limit,
	}
}

// Enter admits path onto the stack. It fails with CyclicInclusion when path
// is already active and with MaxDepthExceeded when admitting it would exceed
// the limit. A failed Enter leaves the guard unchanged; a successful one must
// be paired with exactly one Leave.
func (g *Guard) Enter(path string) error {
	key := Key(path)
	if _, ok := g.active[key]; ok {
		return serrors.NewCyclicInclusion(path, append(g.Chain(), path))
	}

	g.stack = append(g.stack, path)
	g.active[key] = struct{}{}

	if len(g.stack) > g.limit {
		chain := g.Chain()
		g.pop()
		return serrors.NewMaxDepthExceeded(path, len(chain), g.limit, chain)
	}

	return nil
}

// Leave releases path. Releasing anything other than the top of the stack is
// a programming error and is ignored.
func (g *Guard) Leave(path string) {
	if len(g.stack) == 0 || g.stack[len(g.stack)-1] != path {
		return
	}
	g.pop()
}

func (g *Guard) pop() {
	top := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	delete(g.active, Key(top))
}

// Depth returns the number of fragments currently being expanded.
func (g *Guard) Depth() int {
	return len(g.stack)
}

// Chain returns a copy of the stack, outermost first.
func (g *Guard) Chain() []string {
	out := make([]string, len(g.stack))
	copy(out, g.stack)
	return out
}
