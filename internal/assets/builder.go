// Package assets implements the sub-builder that turns a referenced resource
// into a literal value: a hashed public URL for the resource, or a base64 data
// URI when the resource is small enough to inline.
package assets

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/conneroisu/puglink/internal/config"
	"github.com/conneroisu/puglink/internal/link"
	"github.com/conneroisu/puglink/internal/logging"
	"github.com/conneroisu/puglink/internal/pugdeps"
)

// Options configures a Builder.
type Options struct {
	// InlineLimit is the largest resource, in bytes, emitted as a data URI.
	// Zero disables inlining.
	InlineLimit int64
	// NamePattern names emitted copies; it understands [name], [hash] and
	// [ext].
	NamePattern string
	HashLength  int
	// Context is the root absolute include paths of pug resources resolve
	// against.
	Context string
	// CacheSize bounds, in bytes, the outcomes kept between builds of the
	// same resource. Zero disables the cache.
	CacheSize int64
	CacheTTL  time.Duration
}

// OptionsFromConfig maps the loaded configuration onto builder options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		InlineLimit: cfg.Assets.InlineLimit,
		NamePattern: cfg.Assets.Name,
		HashLength:  cfg.Assets.HashLength,
		Context:     cfg.Context,
		CacheSize:   cfg.Assets.CacheSize,
	}
}

// Builder runs file and url loader style sub-builds.
type Builder struct {
	fs     afero.Fs
	opts   Options
	cache  *Cache
	logger logging.Logger
}

var _ link.Builder = (*Builder)(nil)

// NewBuilder creates a builder reading resources from fs.
func NewBuilder(fs afero.Fs, opts Options, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.NamePattern == "" {
		opts.NamePattern = config.DefaultAssetName
	}
	if opts.HashLength <= 0 {
		opts.HashLength = config.DefaultHashLength
	}
	b := &Builder{fs: fs, opts: opts, logger: logger.WithComponent("assets")}
	if opts.CacheSize > 0 {
		b.cache = NewCache(opts.CacheSize, opts.CacheTTL)
	}
	return b
}

// Cache returns the builder's outcome cache, nil when caching is disabled.
func (b *Builder) Cache() *Cache {
	return b.cache
}

// Build reads req.Entry and emits its literal value as the asset named
// req.Name. That asset is the sub-build's only chunk file. A hashed copy of
// the resource is emitted as a side asset unless the value is inlined.
func (b *Builder) Build(ctx context.Context, req link.BuildRequest) (*link.BuildOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	isPug := filepath.Ext(req.Entry) == ".pug"

	var key string
	if b.cache != nil && !isPug {
		info, err := b.fs.Stat(req.Entry)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", req.Entry, err)
		}
		key = cacheKey(req.Entry, info, b.opts, req.PublicPath)
		if built, ok := b.cache.get(key); ok {
			b.logger.Debug(ctx, "Reused resource", "entry", req.Entry)
			return buildOutput(req, built, []string{req.Entry}), nil
		}
	}

	data, err := afero.ReadFile(b.fs, req.Entry)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.Entry, err)
	}

	deps := []string{req.Entry}
	if isPug {
		nested, err := pugdeps.NewTracker(b.fs, b.opts.Context).DependenciesOf(req.Entry, data)
		if err != nil {
			return nil, err
		}
		deps = append(deps, nested...)
	}

	var built *cachedBuild
	if value, ok := b.inline(req.Entry, data); ok {
		b.logger.Debug(ctx, "Inlined resource", "entry", req.Entry, "size", len(data))
		built = &cachedBuild{value: value}
	} else {
		name := b.assetName(req.Entry, data)
		b.logger.Debug(ctx, "Emitted resource", "entry", req.Entry, "asset", name)
		built = &cachedBuild{value: req.PublicPath + name, name: name, data: data}
	}

	if key != "" {
		b.cache.set(key, built)
	}
	return buildOutput(req, built, deps), nil
}

// buildOutput assembles the sub-build result: the chunk file named after the
// request carries the literal value, the hashed copy is a side asset.
func buildOutput(req link.BuildRequest, built *cachedBuild, deps []string) *link.BuildOutput {
	out := &link.BuildOutput{
		Assets:           make(map[string][]byte, 2),
		ChunkFiles:       []string{req.Name},
		FileDependencies: deps,
	}
	out.Assets[req.Name] = []byte(built.value)
	if built.name != "" {
		out.Assets[built.name] = built.data
	}
	return out
}

// inline returns a data URI for data when it fits the inline limit and its
// media type is known.
func (b *Builder) inline(entry string, data []byte) (string, bool) {
	if int64(len(data)) > b.opts.InlineLimit {
		return "", false
	}
	mediaType := mime.TypeByExtension(filepath.Ext(entry))
	if mediaType == "" {
		return "", false
	}
	mediaType, _, _ = strings.Cut(mediaType, ";")
	return "data:" + strings.TrimSpace(mediaType) + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

// assetName renders the name pattern for entry.
func (b *Builder) assetName(entry string, data []byte) string {
	base := filepath.Base(entry)
	ext := strings.TrimPrefix(path.Ext(base), ".")
	stem := strings.TrimSuffix(base, path.Ext(base))

	name := strings.NewReplacer(
		"[name]", stem,
		"[hash]", ContentHash(data, b.opts.HashLength),
		"[ext]", ext,
	).Replace(b.opts.NamePattern)

	if ext == "" {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// ContentHash returns the first length hex digits of data's BLAKE3 digest.
func ContentHash(data []byte, length int) string {
	sum := blake3.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if length > 0 && length < len(digest) {
		return digest[:length]
	}
	return digest
}
