// Package pugdeps tracks the static dependencies of a pug template (the
// files it pulls in with include and extends) and copies them next to the
// emitted template so a view engine can render it from the output directory.
package pugdeps

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	lerrors "github.com/conneroisu/puglink/internal/errors"
)

// directivePattern matches `include file`, `include:filter file` and
// `extends file` at the start of a line.
var directivePattern = regexp.MustCompile(`^\s*(include|extends)(?::[\w-]+(?:\([^)]*\))?)*\s+(\S.*?)\s*$`)

// Tracker walks include and extends directives.
type Tracker struct {
	fs      afero.Fs
	basedir string
}

// NewTracker creates a tracker. Absolute directive paths ("/layout") are
// resolved against basedir.
func NewTracker(fs afero.Fs, basedir string) *Tracker {
	return &Tracker{fs: fs, basedir: basedir}
}

// Dependencies returns every file template depends on, transitively, in
// discovery order without duplicates. The template itself is not included.
func (t *Tracker) Dependencies(template string) ([]string, error) {
	content, err := afero.ReadFile(t.fs, template)
	if err != nil {
		return nil, lerrors.ErrTemplateRead(template, err)
	}
	return t.DependenciesOf(template, content)
}

// DependenciesOf is Dependencies for a template whose content is already in
// memory.
func (t *Tracker) DependenciesOf(template string, content []byte) ([]string, error) {
	seen := map[string]bool{filepath.Clean(template): true}
	var deps []string
	if err := t.walk(template, content, seen, &deps); err != nil {
		return nil, err
	}
	return deps, nil
}

func (t *Tracker) walk(file string, content []byte, seen map[string]bool, deps *[]string) error {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	line := 0
	for scanner.Scan() {
		line++
		match := directivePattern.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}

		dep := t.resolve(file, match[2])
		if seen[dep] {
			continue
		}
		seen[dep] = true

		data, err := afero.ReadFile(t.fs, dep)
		if err != nil {
			return lerrors.NewIOError(
				lerrors.ErrCodeTemplateRead,
				fmt.Sprintf("%s %s", match[1], match[2]),
				err,
			).WithLocation(file, line)
		}
		*deps = append(*deps, dep)

		if filepath.Ext(dep) == ".pug" {
			if err := t.walk(dep, data, seen, deps); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}

func (t *Tracker) resolve(from, target string) string {
	target = strings.Trim(target, `"'`)
	if filepath.Ext(target) == "" {
		target += ".pug"
	}
	if strings.HasPrefix(target, "/") {
		return filepath.Join(t.basedir, target)
	}
	return filepath.Join(filepath.Dir(from), target)
}

// Copy copies each dependency verbatim to outputDir, keeping its path
// relative to context. It returns the destination paths.
func Copy(fs afero.Fs, deps []string, context, outputDir string) ([]string, error) {
	written := make([]string, 0, len(deps))
	for _, src := range deps {
		rel, err := filepath.Rel(context, src)
		if err != nil {
			return written, lerrors.NewIOError(lerrors.ErrCodeEmitFailed, "dependency outside context", err).
				WithLocation(src, 0)
		}
		dest := filepath.Join(outputDir, rel)

		data, err := afero.ReadFile(fs, src)
		if err != nil {
			return written, lerrors.NewIOError(lerrors.ErrCodeEmitFailed, "reading dependency", err).
				WithLocation(src, 0)
		}
		if err := fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return written, lerrors.NewIOError(lerrors.ErrCodeEmitFailed, "creating dependency directory", err).
				WithLocation(dest, 0)
		}
		if err := afero.WriteFile(fs, dest, data, 0o644); err != nil {
			return written, lerrors.NewIOError(lerrors.ErrCodeEmitFailed, "copying dependency", err).
				WithLocation(dest, 0)
		}
		written = append(written, dest)
	}
	return written, nil
}
