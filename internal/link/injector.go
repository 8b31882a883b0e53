package link

import (
	"strings"

	"github.com/conneroisu/puglink/internal/chunks"
)

// Block names consumers extend in their layouts.
const (
	JSBlockName  = "webpackEmitedJs"
	CSSBlockName = "webpackEmitedCss"
)

// Injector appends script and link references for a build's bundles.
type Injector struct {
	PublicPath string
	Filter     chunks.Filter
}

// Inject appends a webpackEmitedJs block and a webpackEmitedCss block to
// content. Only initial, named chunks that pass the filter contribute; files
// keep the order the build reported them in.
func (i Injector) Inject(content string, all []chunks.Chunk) string {
	var js, css strings.Builder
	js.WriteString("\nblock " + JSBlockName)
	css.WriteString("\nblock " + CSSBlockName)

	for _, chunk := range i.Filter.Apply(all) {
		for _, name := range chunk.Files {
			url := i.PublicPath + name
			if chunks.KindOf(name) == chunks.FileStyle {
				css.WriteString("\n  link(rel=\"stylesheet\" href=\"" + url + "\")")
			} else {
				js.WriteString("\n  script(src=\"" + url + "\")")
			}
		}
	}

	return content + "\n" + js.String() + "\n" + css.String() + "\n"
}
