package link

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	lerrors "github.com/conneroisu/puglink/internal/errors"
)

// Emitter writes finished artifacts under the output directory.
type Emitter struct {
	fs         afero.Fs
	context    string
	outputPath string
}

// NewEmitter creates an emitter that re-roots paths found under context into
// outputPath.
func NewEmitter(fs afero.Fs, context, outputPath string) *Emitter {
	return &Emitter{fs: fs, context: context, outputPath: outputPath}
}

// Destination returns where source is emitted. Sources outside the context
// root are rejected so nothing is written outside the output directory.
func (e *Emitter) Destination(source string) (string, error) {
	rel, err := filepath.Rel(e.context, source)
	if err != nil {
		return "", lerrors.NewEmitError(lerrors.ErrCodeEmitFailed, "template is not under context", err).
			WithLocation(source, 0)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", lerrors.NewEmitError(lerrors.ErrCodeEmitFailed, "template is outside context "+e.context, nil).
			WithLocation(source, 0)
	}
	return filepath.Join(e.outputPath, rel), nil
}

// WriteFile writes data at dest, creating intermediate directories.
func (e *Emitter) WriteFile(dest string, data []byte) error {
	if err := e.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return lerrors.NewEmitError(lerrors.ErrCodeEmitFailed, "creating output directory", err).
			WithLocation(dest, 0)
	}
	if err := afero.WriteFile(e.fs, dest, data, 0o644); err != nil {
		return lerrors.NewEmitError(lerrors.ErrCodeEmitFailed, "writing output", err).
			WithLocation(dest, 0)
	}
	return nil
}

// WriteAsset writes a sub-build side asset directly under the output
// directory.
func (e *Emitter) WriteAsset(name string, data []byte) (string, error) {
	dest := filepath.Join(e.outputPath, filepath.FromSlash(name))
	return dest, e.WriteFile(dest, data)
}
