// Package config provides configuration management for puglink using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files, environment variable overrides
// with the PUGLINK_ prefix and validation. It describes one linking pass: the
// template, where it is emitted, the public path prefix used for bundle URLs,
// the alias table used to resolve embedded references and the sub-builder's
// asset options.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Template         string        `mapstructure:"template" yaml:"template"`
	Context          string        `mapstructure:"context" yaml:"context"`
	OutputPath       string        `mapstructure:"output_path" yaml:"output_path"`
	PublicPath       string        `mapstructure:"public_path" yaml:"public_path"`
	Manifest         string        `mapstructure:"manifest" yaml:"manifest"`
	CopyDependencies bool          `mapstructure:"copy_dependencies" yaml:"copy_dependencies"`
	Resolve          ResolveConfig `mapstructure:"resolve" yaml:"resolve"`
	Chunks           ChunksConfig  `mapstructure:"chunks" yaml:"chunks"`
	Assets           AssetsConfig  `mapstructure:"assets" yaml:"assets"`
	Hooks            HooksConfig   `mapstructure:"hooks" yaml:"hooks"`
	Log              LogConfig     `mapstructure:"log" yaml:"log"`

	// PublicPathSet reports whether public_path was configured rather than
	// defaulted. A stats manifest's publicPath only applies when it is not.
	PublicPathSet bool `mapstructure:"-" yaml:"-"`
}

// ResolveConfig controls how embedded references map to resource paths.
// Viper lowercases keys, so alias keys are matched case-insensitively.
type ResolveConfig struct {
	Alias            map[string]string `mapstructure:"alias" yaml:"alias"`
	RelativeFallback bool              `mapstructure:"relative_fallback" yaml:"relative_fallback"`
}

type ChunksConfig struct {
	Include []string `mapstructure:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

type AssetsConfig struct {
	InlineLimit int64  `mapstructure:"inline_limit" yaml:"inline_limit"`
	Name        string `mapstructure:"name" yaml:"name"`
	HashLength  int    `mapstructure:"hash_length" yaml:"hash_length"`
	// CacheSize bounds the sub-build outcomes kept for resources referenced
	// more than once. Zero disables the cache.
	CacheSize int64 `mapstructure:"cache_size" yaml:"cache_size"`
}

type HooksConfig struct {
	AfterEmit []string `mapstructure:"after_emit" yaml:"after_emit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

const (
	DefaultInlineLimit = 8192
	DefaultAssetName   = "[name].[hash].[ext]"
	DefaultHashLength  = 8
	DefaultCacheSize   = 16 << 20
)

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle slices set via viper (workaround for viper slice handling)
	if v.IsSet("chunks.include") && len(config.Chunks.Include) == 0 {
		config.Chunks.Include = v.GetStringSlice("chunks.include")
	}
	if v.IsSet("chunks.exclude") && len(config.Chunks.Exclude) == 0 {
		config.Chunks.Exclude = v.GetStringSlice("chunks.exclude")
	}
	if v.IsSet("hooks.after_emit") && len(config.Hooks.AfterEmit) == 0 {
		config.Hooks.AfterEmit = v.GetStringSlice("hooks.after_emit")
	}
	if v.IsSet("resolve.alias") && len(config.Resolve.Alias) == 0 {
		config.Resolve.Alias = v.GetStringMapString("resolve.alias")
	}

	if config.Context == "" {
		config.Context = "."
	}
	config.PublicPathSet = v.IsSet("public_path")
	if !config.PublicPathSet {
		config.PublicPath = "/"
	}
	if !v.IsSet("copy_dependencies") {
		config.CopyDependencies = true
	}
	if !v.IsSet("assets.inline_limit") {
		config.Assets.InlineLimit = DefaultInlineLimit
	}
	if !v.IsSet("assets.cache_size") {
		config.Assets.CacheSize = DefaultCacheSize
	}
	if config.Assets.Name == "" {
		config.Assets.Name = DefaultAssetName
	}
	if config.Assets.HashLength == 0 {
		config.Assets.HashLength = DefaultHashLength
	}
	if config.Resolve.Alias == nil {
		config.Resolve.Alias = make(map[string]string)
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DestinationPath re-roots the template under the output directory,
// preserving its path relative to the context root.
func (c *Config) DestinationPath() (string, error) {
	rel, err := filepath.Rel(c.Context, c.Template)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.OutputPath, rel), nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.Template) == "" {
		return fmt.Errorf("template is required")
	}
	if strings.TrimSpace(config.OutputPath) == "" {
		return fmt.Errorf("output_path is required")
	}

	rel, err := filepath.Rel(config.Context, config.Template)
	if err != nil {
		return fmt.Errorf("template %s is not under context %s: %w", config.Template, config.Context, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("template %s is outside context %s", config.Template, config.Context)
	}

	if err := validateResolveConfig(&config.Resolve); err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	if err := validateAssetsConfig(&config.Assets); err != nil {
		return fmt.Errorf("assets config: %w", err)
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q is not one of text, json", config.Log.Format)
	}

	return nil
}

func validateResolveConfig(config *ResolveConfig) error {
	for key, target := range config.Alias {
		if key == "" || strings.Contains(key, "/") {
			return fmt.Errorf("alias key %q must be a single path segment", key)
		}
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("alias %q has an empty target", key)
		}
	}
	return nil
}

func validateAssetsConfig(config *AssetsConfig) error {
	if config.InlineLimit < 0 {
		return fmt.Errorf("inline_limit %d must not be negative", config.InlineLimit)
	}
	if config.CacheSize < 0 {
		return fmt.Errorf("cache_size %d must not be negative", config.CacheSize)
	}
	if config.HashLength < 4 || config.HashLength > 64 {
		return fmt.Errorf("hash_length %d is not in range 4-64", config.HashLength)
	}
	if !strings.Contains(config.Name, "[hash]") {
		return fmt.Errorf("asset name pattern %q must contain [hash]", config.Name)
	}
	return nil
}
