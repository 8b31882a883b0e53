package link

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/conneroisu/puglink/internal/errors"
)

func TestResolverResolve(t *testing.T) {
	alias := map[string]string{
		"assets":  "src/assets",
		"@Shared": "lib/shared",
	}
	resolver := NewResolver("src/views/index.pug", alias, false)

	tests := []struct {
		reference string
		want      string
	}{
		{"./partial.pug", filepath.Join("src", "views", "partial.pug")},
		{"../img/logo.png", filepath.Join("src", "img", "logo.png")},
		{"/img/logo.png", filepath.Join("src", "views", "img", "logo.png")},
		{"assets/img/logo.png", filepath.Join("src", "assets", "img", "logo.png")},
		{"@shared/icon.svg", filepath.Join("lib", "shared", "icon.svg")},
		{"assets", filepath.Join("src", "assets")},
	}

	for _, tt := range tests {
		t.Run(tt.reference, func(t *testing.T) {
			got, err := resolver.Resolve(tt.reference)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolverUnmatchedAlias(t *testing.T) {
	resolver := NewResolver("src/views/index.pug", map[string]string{"assets": "src/assets"}, false)

	_, err := resolver.Resolve("images/logo.png")
	require.Error(t, err)
	assert.True(t, lerrors.HasCode(err, lerrors.ErrCodeUnresolvedAlias))
	assert.Contains(t, err.Error(), "images/logo.png")

	_, err = resolver.Resolve("logo.png")
	assert.True(t, lerrors.IsResolveError(err))
}

func TestResolverRelativeFallback(t *testing.T) {
	resolver := NewResolver("src/views/index.pug", nil, true)

	got, err := resolver.Resolve("images/logo.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("src", "views", "images", "logo.png"), got)
}

func TestResolveAllStopsAtFirstFailure(t *testing.T) {
	resolver := NewResolver("index.pug", nil, false)
	pending := []PendingResolution{
		{Reference: "./a.png"},
		{Reference: "nowhere/b.png"},
		{Reference: "./c.png"},
	}

	err := resolver.ResolveAll(pending)
	require.Error(t, err)
	assert.Equal(t, "a.png", pending[0].ResourcePath)
	assert.Empty(t, pending[2].ResourcePath)
}
