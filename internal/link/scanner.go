package link

import (
	"regexp"
	"strings"
)

// referencePattern matches require('URL') and require("URL"); the argument
// may not contain parentheses.
var referencePattern = regexp.MustCompile(`require\(['"]([^()]*)['"]\)`)

// PendingResolution is one embedded reference awaiting its sub-build.
type PendingResolution struct {
	Placeholder  string
	Reference    string
	ResourcePath string
}

// ScanReferences replaces every embedded reference in text with a fresh
// placeholder, left to right, and returns the rewritten text with one
// PendingResolution per match in discovery order. ResourcePath is left empty
// for the resolver. With no matches the text is returned unchanged.
func ScanReferences(text string, gen *PlaceholderGenerator) (string, []PendingResolution) {
	matches := referencePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	pending := make([]PendingResolution, 0, len(matches))
	var b strings.Builder
	b.Grow(len(text))

	last := 0
	for _, m := range matches {
		token := gen.Next()
		b.WriteString(text[last:m[0]])
		b.WriteString(token)
		last = m[1]

		pending = append(pending, PendingResolution{
			Placeholder: token,
			Reference:   text[m[2]:m[3]],
		})
	}
	b.WriteString(text[last:])

	return b.String(), pending
}
