// Package chunks models the output bundles a build produced for the current
// cycle and decides which of them are injected into a template.
package chunks

import (
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"

	lerrors "github.com/conneroisu/puglink/internal/errors"
)

// Chunk is one output bundle as reported by the build system.
type Chunk struct {
	// Names holds the chunk names; the first one is the chunk's name. An
	// anonymous chunk has none.
	Names []string `json:"names"`
	// Initial is nil when the build system did not say.
	Initial *bool    `json:"initial,omitempty"`
	Entry   bool     `json:"entry,omitempty"`
	Files   []string `json:"files"`
}

// Name returns the chunk's primary name and whether it has one.
func (c Chunk) Name() (string, bool) {
	if len(c.Names) == 0 || c.Names[0] == "" {
		return "", false
	}
	return c.Names[0], true
}

// IsInitial reports whether the chunk is loaded up front: it is an entry
// chunk or the build marked it initial. Unknown status is treated as not
// initial.
func (c Chunk) IsInitial() bool {
	return c.Entry || (c.Initial != nil && *c.Initial)
}

// FileKind tags an output file.
type FileKind int

const (
	FileScript FileKind = iota
	FileStyle
)

// KindOf classifies an output file name: .css is a stylesheet, everything
// else is treated as script.
func KindOf(name string) FileKind {
	if strings.EqualFold(path.Ext(name), ".css") {
		return FileStyle
	}
	return FileScript
}

// Filter selects the chunks that are injected into a template.
type Filter struct {
	Include []string
	Exclude []string
}

// Apply returns the initial, named chunks that pass the include and exclude
// lists, preserving the reported order.
func (f Filter) Apply(all []Chunk) []Chunk {
	selected := make([]Chunk, 0, len(all))
	for _, chunk := range all {
		name, ok := chunk.Name()
		if !ok {
			continue
		}
		if !chunk.IsInitial() {
			continue
		}
		if len(f.Include) > 0 && !slices.Contains(f.Include, name) {
			continue
		}
		if slices.Contains(f.Exclude, name) {
			continue
		}
		selected = append(selected, chunk)
	}
	return selected
}

// Stats is the subset of a build's stats document puglink reads.
type Stats struct {
	PublicPath string  `json:"publicPath,omitempty"`
	Chunks     []Chunk `json:"chunks"`
}

// ParseStats decodes a stats document. Comments and trailing commas are
// accepted.
func ParseStats(data []byte) (*Stats, error) {
	var stats Stats
	if err := json.Unmarshal(jsonc.ToJSON(data), &stats); err != nil {
		return nil, lerrors.NewIOError(lerrors.ErrCodeManifestInvalid, "parsing stats manifest", err)
	}
	for i, chunk := range stats.Chunks {
		for _, file := range chunk.Files {
			if strings.TrimSpace(file) == "" {
				return nil, lerrors.NewIOError(
					lerrors.ErrCodeManifestInvalid,
					fmt.Sprintf("chunk %d lists an empty file name", i),
					nil,
				)
			}
		}
	}
	return &stats, nil
}

// LoadManifest reads and parses the stats document at path.
func LoadManifest(fs afero.Fs, path string) (*Stats, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, lerrors.NewIOError(lerrors.ErrCodeManifestInvalid, "opening stats manifest", err).
			WithLocation(path, 0)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, lerrors.NewIOError(lerrors.ErrCodeManifestInvalid, "reading stats manifest", err).
			WithLocation(path, 0)
	}

	stats, err := ParseStats(data)
	if err != nil {
		if le, ok := err.(*lerrors.LinkError); ok {
			le.WithLocation(path, 0)
		}
		return nil, err
	}
	return stats, nil
}

// Bool returns a pointer to b, for building chunks in code.
func Bool(b bool) *bool {
	return &b
}
