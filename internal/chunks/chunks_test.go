package chunks

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/conneroisu/puglink/internal/errors"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, FileStyle, KindOf("app.css"))
	assert.Equal(t, FileStyle, KindOf("APP.CSS"))
	assert.Equal(t, FileScript, KindOf("app.bundle.js"))
	assert.Equal(t, FileScript, KindOf("app.css.map"))
	assert.Equal(t, FileScript, KindOf("runtime"))
}

func TestFilterApply(t *testing.T) {
	all := []Chunk{
		{Names: []string{"app"}, Initial: Bool(true), Files: []string{"app.css", "app.bundle.js"}},
		{Names: []string{"lazy"}, Initial: Bool(false), Files: []string{"lazy.js"}},
		{Names: nil, Initial: Bool(true), Files: []string{"0.js"}},
		{Names: []string{"unknown"}, Files: []string{"unknown.js"}},
		{Names: []string{"vendor"}, Initial: Bool(true), Files: []string{"vendor.js"}},
		{Names: []string{"main"}, Initial: Bool(false), Entry: true, Files: []string{"main.js"}},
	}

	t.Run("initial named chunks only", func(t *testing.T) {
		got := Filter{}.Apply(all)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"app"}, got[0].Names)
		assert.Equal(t, []string{"vendor"}, got[1].Names)
		assert.Equal(t, []string{"main"}, got[2].Names)
	})

	t.Run("include list", func(t *testing.T) {
		got := Filter{Include: []string{"vendor", "lazy"}}.Apply(all)
		require.Len(t, got, 1)
		assert.Equal(t, []string{"vendor"}, got[0].Names)
	})

	t.Run("exclude list", func(t *testing.T) {
		got := Filter{Exclude: []string{"vendor"}}.Apply(all)
		require.Len(t, got, 2)
		assert.Equal(t, []string{"app"}, got[0].Names)
		assert.Equal(t, []string{"main"}, got[1].Names)
	})
}

func TestParseStats(t *testing.T) {
	data := []byte(`{
		// emitted by the bundler
		"publicPath": "/static/",
		"chunks": [
			{"names": ["app"], "initial": true, "entry": true, "files": ["app.css", "app.bundle.js"]},
			{"names": ["lazy"], "initial": false, "files": ["lazy.js"],},
		],
	}`)

	stats, err := ParseStats(data)
	require.NoError(t, err)
	assert.Equal(t, "/static/", stats.PublicPath)
	require.Len(t, stats.Chunks, 2)
	assert.True(t, stats.Chunks[0].IsInitial())
	assert.True(t, stats.Chunks[0].Entry)
	assert.False(t, stats.Chunks[1].IsInitial())
}

func TestEntryChunkIsInjected(t *testing.T) {
	stats, err := ParseStats([]byte(`{"chunks": [
		{"names": ["app"], "entry": true, "files": ["app.js"]},
		{"names": ["lazy"], "files": ["lazy.js"]},
	]}`))
	require.NoError(t, err)

	assert.Nil(t, stats.Chunks[0].Initial)
	assert.True(t, stats.Chunks[0].IsInitial())

	got := Filter{}.Apply(stats.Chunks)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"app.js"}, got[0].Files)
}

func TestParseStatsErrors(t *testing.T) {
	_, err := ParseStats([]byte(`{"chunks": [`))
	assert.True(t, lerrors.HasCode(err, lerrors.ErrCodeManifestInvalid))

	_, err = ParseStats([]byte(`{"chunks": [{"names": ["a"], "files": [""]}]}`))
	assert.True(t, lerrors.HasCode(err, lerrors.ErrCodeManifestInvalid))
}

func TestLoadManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "stats.json", []byte(`{"chunks": []}`), 0o644))

	stats, err := LoadManifest(fs, "stats.json")
	require.NoError(t, err)
	assert.Empty(t, stats.Chunks)

	_, err = LoadManifest(fs, "missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
}
