//go:build property

package link

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
)

// TestLinkProperties validates the pass invariants on generated templates
func TestLinkProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234) // For reproducible results
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: generated tokens never repeat and never occur in the source
	properties.Property("placeholders are unique and absent from source", prop.ForAll(
		func(source string, count int) bool {
			g := NewPlaceholderGenerator("index.pug", source)
			seen := make(map[string]bool, count)
			for i := 0; i < count; i++ {
				token := g.Next()
				if seen[token] || strings.Contains(source, token) {
					return false
				}
				seen[token] = true
			}
			return true
		},
		gen.AnyString(),
		gen.IntRange(1, 200),
	))

	// Property: scanning finds one pending resolution per reference and
	// leaves no require( call behind
	properties.Property("scanner replaces every reference", prop.ForAll(
		func(names []string) bool {
			var lines []string
			for i, name := range names {
				lines = append(lines, fmt.Sprintf("img(src=require('./%d-%s.png'))", i, name))
			}
			text := strings.Join(lines, "\n")
			out, pending := ScanReferences(text, NewPlaceholderGenerator("a.pug", text))
			if len(pending) != len(names) || strings.Contains(out, "require(") {
				return false
			}
			for i, pr := range pending {
				if pr.Reference != fmt.Sprintf("./%d-%s.png", i, names[i]) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	// Property: an emitted template never contains a placeholder
	properties.Property("no placeholder survives emission", prop.ForAll(
		func(names []string) bool {
			var lines []string
			for i, name := range names {
				lines = append(lines, fmt.Sprintf("img(src=require('./%d%s.png'))", i, name))
			}
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "views/index.pug", []byte(strings.Join(lines, "\n")), 0o644); err != nil {
				return false
			}
			opts := Options{Template: "views/index.pug", Context: "views", OutputPath: "out", PublicPath: "/"}
			result, err := New(opts, &fakeBuilder{}, fs, nil, nil).Run(context.Background(), nil)
			return err == nil && !ContainsPlaceholder(result.Content) && result.SubBuilds == len(names)
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
