package link

import "context"

// BuildRequest describes one isolated sub-build.
type BuildRequest struct {
	// Entry is the resolved resource the sub-build starts from.
	Entry string
	// Name is the original reference. The sub-build emits its result as an
	// asset with this name.
	Name       string
	PublicPath string
}

// BuildOutput is everything a finished sub-build exposes.
type BuildOutput struct {
	// Assets holds every emitted asset keyed by name. The asset named after
	// the request carries the literal value that replaces the reference.
	Assets map[string][]byte
	// ChunkFiles lists assets that belong to the sub-build's own chunks.
	// They are discarded once the literal value has been read.
	ChunkFiles       []string
	FileDependencies []string
}

// Builder runs isolated builds of single resources. Implementations must be
// safe for concurrent use.
type Builder interface {
	Build(ctx context.Context, req BuildRequest) (*BuildOutput, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, req BuildRequest) (*BuildOutput, error)

func (f BuilderFunc) Build(ctx context.Context, req BuildRequest) (*BuildOutput, error) {
	return f(ctx, req)
}
