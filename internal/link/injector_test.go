package link

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/conneroisu/puglink/internal/chunks"
)

func TestInjectorInject(t *testing.T) {
	all := []chunks.Chunk{
		{Names: []string{"app"}, Initial: chunks.Bool(true), Files: []string{"app.css", "app.bundle.js"}},
		{Names: []string{"lazy"}, Initial: chunks.Bool(false), Files: []string{"lazy.js"}},
	}

	got := Injector{PublicPath: "/static/"}.Inject("extends layout", all)

	want := "extends layout\n" +
		"\nblock webpackEmitedJs" +
		"\n  script(src=\"/static/app.bundle.js\")" +
		"\n" +
		"\nblock webpackEmitedCss" +
		"\n  link(rel=\"stylesheet\" href=\"/static/app.css\")" +
		"\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Inject() mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, got, "lazy.js")
}

func TestInjectorEmptyBundles(t *testing.T) {
	got := Injector{PublicPath: "/"}.Inject("p hi", nil)

	assert.Equal(t, 1, strings.Count(got, "block "+JSBlockName))
	assert.Equal(t, 1, strings.Count(got, "block "+CSSBlockName))
	assert.NotContains(t, got, "script(")
	assert.NotContains(t, got, "link(")
}

func TestInjectorPreservesReportedOrder(t *testing.T) {
	all := []chunks.Chunk{
		{Names: []string{"runtime"}, Initial: chunks.Bool(true), Files: []string{"runtime.js"}},
		{Names: []string{"vendor"}, Initial: chunks.Bool(true), Files: []string{"vendor.js", "vendor.css"}},
		{Names: []string{"app"}, Initial: chunks.Bool(true), Files: []string{"app.js", "app.css"}},
	}

	got := Injector{PublicPath: ""}.Inject("", all)

	assert.Less(t, strings.Index(got, "runtime.js"), strings.Index(got, "vendor.js"))
	assert.Less(t, strings.Index(got, "vendor.js"), strings.Index(got, "app.js"))
	assert.Less(t, strings.Index(got, "vendor.css"), strings.Index(got, "app.css"))
}

func TestInjectorFilter(t *testing.T) {
	all := []chunks.Chunk{
		{Names: []string{"app"}, Initial: chunks.Bool(true), Files: []string{"app.js"}},
		{Names: []string{"admin"}, Initial: chunks.Bool(true), Files: []string{"admin.js"}},
	}

	got := Injector{PublicPath: "/", Filter: chunks.Filter{Exclude: []string{"admin"}}}.Inject("", all)
	assert.Contains(t, got, "/app.js")
	assert.NotContains(t, got, "admin.js")
}
