//go:build property

package resolver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	serrors "github.com/conneroisu/splice/internal/errors"
)

// TestResolveProperties validates termination and cycle rejection over
// generated directive graphs.
func TestResolveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: an acyclic graph within the depth limit resolves to text
	// with no directive syntax left.
	properties.Property("acyclic graphs resolve completely", prop.ForAll(
		func(nodes int, fanout int) bool {
			files := make(map[string]string, nodes)
			for i := 0; i < nodes; i++ {
				body := fmt.Sprintf("<n%d>", i)
				// Each node only references higher-numbered nodes.
				for k := 1; k <= fanout && i+k < nodes; k++ {
					body += fmt.Sprintf("{{> partials/n%d.html }}", i+k)
				}
				files[fmt.Sprintf("partials/n%d.html", i)] = body
			}

			f := newFixture(t, files, 20)
			out, err := f.resolve("{{> partials/n0.html }}")
			return err == nil && !HasMarkers(out) && f.guard.Depth() == 0
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 2),
	))

	// Property: any cycle is rejected as a cyclic inclusion.
	properties.Property("cycles are rejected", prop.ForAll(
		func(length int) bool {
			files := make(map[string]string, length)
			for i := 0; i < length; i++ {
				files[fmt.Sprintf("partials/c%d.html", i)] = fmt.Sprintf("{{> partials/c%d.html }}", (i+1)%length)
			}

			f := newFixture(t, files, 20)
			_, err := f.resolve("{{> partials/c0.html }}")
			return errors.Is(err, serrors.ErrCyclicInclusion) && f.guard.Depth() == 0
		},
		gen.IntRange(1, 15),
	))

	// Property: block substitution places the trimmed body at the placeholder.
	properties.Property("block body lands at placeholder", prop.ForAll(
		func(body string) bool {
			f := newFixture(t, map[string]string{
				"partials/w.html": "before {{content}} after",
			}, 20)
			out, err := f.resolve("{{> partials/w.html }} " + body + " {{/ partials/w.html }}")
			return err == nil && out == "before "+body+" after"
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}
