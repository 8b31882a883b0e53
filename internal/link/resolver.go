package link

import (
	"path/filepath"
	"strings"

	lerrors "github.com/conneroisu/puglink/internal/errors"
)

// Resolver maps an embedded reference to the resource a sub-build starts
// from.
type Resolver struct {
	templateDir      string
	alias            map[string]string
	relativeFallback bool
}

// NewResolver creates a resolver for a template. Alias keys are compared
// case-insensitively.
func NewResolver(templatePath string, alias map[string]string, relativeFallback bool) *Resolver {
	normalized := make(map[string]string, len(alias))
	for key, target := range alias {
		normalized[strings.ToLower(key)] = target
	}
	return &Resolver{
		templateDir:      filepath.Dir(templatePath),
		alias:            normalized,
		relativeFallback: relativeFallback,
	}
}

// Resolve returns the resource path for reference. References starting with
// "/" or "." are relative to the template's directory. Anything else must
// start with an alias key; when none matches the reference fails unless the
// resolver falls back to relative resolution.
func (r *Resolver) Resolve(reference string) (string, error) {
	if strings.HasPrefix(reference, "/") || strings.HasPrefix(reference, ".") {
		return filepath.Join(r.templateDir, reference), nil
	}

	key, rest, _ := strings.Cut(reference, "/")
	if target, ok := r.alias[strings.ToLower(key)]; ok {
		return filepath.Join(target, rest), nil
	}

	if r.relativeFallback {
		return filepath.Join(r.templateDir, reference), nil
	}
	return "", lerrors.ErrUnresolvedAlias(reference)
}

// ResolveAll fills in ResourcePath for every pending resolution. It stops at
// the first reference that cannot be resolved.
func (r *Resolver) ResolveAll(pending []PendingResolution) error {
	for i := range pending {
		path, err := r.Resolve(pending[i].Reference)
		if err != nil {
			return err
		}
		pending[i].ResourcePath = path
	}
	return nil
}
