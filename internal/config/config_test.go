package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func baseViper() *viper.Viper {
	v := viper.New()
	v.Set("template", "src/views/index.pug")
	v.Set("context", "src")
	v.Set("output_path", "build")
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(baseViper())
	require.NoError(t, err)

	assert.Equal(t, "/", cfg.PublicPath)
	assert.True(t, cfg.CopyDependencies)
	assert.Equal(t, int64(DefaultInlineLimit), cfg.Assets.InlineLimit)
	assert.Equal(t, DefaultAssetName, cfg.Assets.Name)
	assert.Equal(t, DefaultHashLength, cfg.Assets.HashLength)
	assert.Equal(t, int64(DefaultCacheSize), cfg.Assets.CacheSize)
	assert.False(t, cfg.PublicPathSet)
	assert.NotNil(t, cfg.Resolve.Alias)
	assert.False(t, cfg.Resolve.RelativeFallback)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadOverrides(t *testing.T) {
	v := baseViper()
	v.Set("public_path", "/static/")
	v.Set("copy_dependencies", false)
	v.Set("assets.inline_limit", 0)
	v.Set("assets.cache_size", 0)
	v.Set("resolve.alias", map[string]string{"assets": "src/assets"})
	v.Set("resolve.relative_fallback", true)
	v.Set("chunks.exclude", []string{"vendor"})
	v.Set("hooks.after_emit", []string{"touch reload.flag"})

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "/static/", cfg.PublicPath)
	assert.True(t, cfg.PublicPathSet)
	assert.False(t, cfg.CopyDependencies)
	assert.Equal(t, int64(0), cfg.Assets.InlineLimit)
	assert.Equal(t, int64(0), cfg.Assets.CacheSize)
	assert.Equal(t, "src/assets", cfg.Resolve.Alias["assets"])
	assert.True(t, cfg.Resolve.RelativeFallback)
	assert.Equal(t, []string{"vendor"}, cfg.Chunks.Exclude)
	assert.Equal(t, []string{"touch reload.flag"}, cfg.Hooks.AfterEmit)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(v *viper.Viper)
	}{
		{"missing template", func(v *viper.Viper) { v.Set("template", "") }},
		{"missing output", func(v *viper.Viper) { v.Set("output_path", "") }},
		{"template outside context", func(v *viper.Viper) { v.Set("template", "other/index.pug") }},
		{"negative inline limit", func(v *viper.Viper) { v.Set("assets.inline_limit", -1) }},
		{"negative cache size", func(v *viper.Viper) { v.Set("assets.cache_size", -1) }},
		{"hash too short", func(v *viper.Viper) { v.Set("assets.hash_length", 2) }},
		{"name without hash", func(v *viper.Viper) { v.Set("assets.name", "[name].[ext]") }},
		{"empty alias target", func(v *viper.Viper) { v.Set("resolve.alias", map[string]string{"assets": " "}) }},
		{"bad log format", func(v *viper.Viper) { v.Set("log.format", "xml") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := baseViper()
			tt.setup(v)

			cfg, err := LoadFrom(v)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestDestinationPath(t *testing.T) {
	cfg, err := LoadFrom(baseViper())
	require.NoError(t, err)

	dest, err := cfg.DestinationPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("build", "views", "index.pug"), dest)
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg, err := LoadFrom(baseViper())
	require.NoError(t, err)

	data, err := cfg.YAML()
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, cfg.Template, decoded.Template)
	assert.Equal(t, cfg.Assets, decoded.Assets)
}

func TestLoadUsesGlobalViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("template", "index.pug")
	viper.Set("output_path", "dist")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "index.pug", cfg.Template)
	assert.Equal(t, ".", cfg.Context)
}
