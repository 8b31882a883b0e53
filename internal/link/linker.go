package link

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/spf13/afero"

	"github.com/conneroisu/puglink/internal/chunks"
	"github.com/conneroisu/puglink/internal/config"
	lerrors "github.com/conneroisu/puglink/internal/errors"
	"github.com/conneroisu/puglink/internal/logging"
	"github.com/conneroisu/puglink/internal/pugdeps"
)

// Options configures a Linker.
type Options struct {
	Template         string
	Context          string
	OutputPath       string
	PublicPath       string
	Alias            map[string]string
	RelativeFallback bool
	Chunks           chunks.Filter
	CopyDependencies bool
}

// OptionsFromConfig maps the loaded configuration onto linker options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Template:         cfg.Template,
		Context:          cfg.Context,
		OutputPath:       cfg.OutputPath,
		PublicPath:       cfg.PublicPath,
		Alias:            cfg.Resolve.Alias,
		RelativeFallback: cfg.Resolve.RelativeFallback,
		Chunks: chunks.Filter{
			Include: cfg.Chunks.Include,
			Exclude: cfg.Chunks.Exclude,
		},
		CopyDependencies: cfg.CopyDependencies,
	}
}

// Result describes an emitted template.
type Result struct {
	OutputPath string
	Content    string
	// FileDependencies lists every file the pass read: the template, its
	// static dependencies and everything each sub-build read.
	FileDependencies   []string
	Assets             []string
	CopiedDependencies []string
	SubBuilds          int
	Duration           time.Duration
}

// Callback receives the outcome of a pass exactly once.
type Callback func(result *Result, err error)

// Linker runs linking passes for one template configuration.
type Linker struct {
	opts     Options
	builder  Builder
	fs       afero.Fs
	logger   logging.Logger
	errs     *lerrors.ErrorHandler
	hooks    *Hooks
	emitter  *Emitter
	inflight conc.WaitGroup
	metrics  metrics
}

// New creates a Linker. Sub-builds are delegated to builder and all file
// access goes through fs.
func New(opts Options, builder Builder, fs afero.Fs, logger logging.Logger, hooks *Hooks) *Linker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if hooks == nil {
		hooks = NewHooks()
	}
	logger = logger.WithComponent("linker")
	return &Linker{
		opts:    opts,
		builder: builder,
		fs:      fs,
		logger:  logger,
		errs:    lerrors.NewErrorHandler(logger),
		hooks:   hooks,
		emitter: NewEmitter(fs, opts.Context, opts.OutputPath),
	}
}

// Hooks returns the linker's subscriber registry.
func (l *Linker) Hooks() *Hooks { return l.hooks }

// GetMetrics returns a snapshot of the linker's counters.
func (l *Linker) GetMetrics() PassMetrics { return l.metrics.snapshot() }

// Wait blocks until every dispatched sub-build and after-emit notification
// has finished.
func (l *Linker) Wait() {
	l.inflight.Wait()
}

// Run performs one pass and blocks until it has been emitted or has failed.
func (l *Linker) Run(ctx context.Context, all []chunks.Chunk) (*Result, error) {
	type outcome struct {
		result *Result
		err    error
	}
	ch := make(chan outcome, 1)
	l.Start(ctx, all, func(result *Result, err error) {
		ch <- outcome{result, err}
	})
	o := <-ch
	return o.result, o.err
}

// Start begins one pass over the template and returns once every sub-build
// has been dispatched. done is called exactly once: synchronously when the
// pass fails before dispatch or the template has no references, otherwise
// from the goroutine of the last sub-build to finish.
func (l *Linker) Start(ctx context.Context, all []chunks.Chunk, done Callback) {
	p := &pass{
		linker:  l,
		started: time.Now(),
		deps:    NewDependencySet(),
		failed:  lerrors.NewErrorCollector(),
		done:    done,
	}
	p.start(ctx, all)
}

// pass is the state of one linking pass. It owns the template buffer.
type pass struct {
	linker   *Linker
	started  time.Time
	buffer   workingCopy
	deps     *DependencySet
	static   []string
	children childAssets
	failed   *lerrors.ErrorCollector
	pending  []PendingResolution
	dest     string
	done     Callback
}

func (p *pass) start(ctx context.Context, all []chunks.Chunk) {
	l := p.linker
	opts := l.opts
	log := l.logger.With("template", opts.Template)

	source, err := afero.ReadFile(l.fs, opts.Template)
	if err != nil {
		p.finish(ctx, nil, lerrors.ErrTemplateRead(opts.Template, err))
		return
	}

	p.dest, err = l.emitter.Destination(opts.Template)
	if err != nil {
		p.finish(ctx, nil, err)
		return
	}
	p.deps.Add(opts.Template)

	p.static, err = pugdeps.NewTracker(l.fs, opts.Context).DependenciesOf(opts.Template, source)
	if err != nil {
		p.finish(ctx, nil, err)
		return
	}
	p.deps.Add(p.static...)

	injector := Injector{PublicPath: opts.PublicPath, Filter: opts.Chunks}
	content := injector.Inject(string(source), all)

	gen := NewPlaceholderGenerator(opts.Template, content)
	content, pending := ScanReferences(content, gen)

	resolver := NewResolver(opts.Template, opts.Alias, opts.RelativeFallback)
	if err := resolver.ResolveAll(pending); err != nil {
		p.finish(ctx, nil, err)
		return
	}

	p.buffer.content = content
	p.pending = pending

	if len(pending) == 0 {
		log.Debug(ctx, "No embedded references")
		p.emit(ctx)
		return
	}

	log.Debug(ctx, "Dispatching sub-builds", "count", len(pending))
	coordinator := newFanIn(len(pending), func() {
		if p.failed.HasErrors() {
			p.finish(ctx, nil, p.failed.Err())
			return
		}
		p.emit(ctx)
	})

	for _, pr := range pending {
		l.inflight.Go(func() {
			defer coordinator.done()
			p.runSubBuild(ctx, pr)
		})
	}
}

// runSubBuild builds one reference and substitutes its value.
func (p *pass) runSubBuild(ctx context.Context, pr PendingResolution) {
	l := p.linker
	req := BuildRequest{
		Entry:      pr.ResourcePath,
		Name:       pr.Reference,
		PublicPath: l.opts.PublicPath,
	}

	var (
		out *BuildOutput
		err error
		pc  panics.Catcher
	)
	pc.Try(func() { out, err = l.builder.Build(ctx, req) })
	if recovered := pc.Recovered(); recovered != nil {
		err = recovered.AsError()
	}

	if err != nil {
		l.metrics.recordSubBuild(true)
		p.failed.AddError(lerrors.ErrSubBuildFailed(pr.Reference, err).WithLocation(pr.ResourcePath, 0))
		return
	}
	if out == nil {
		l.metrics.recordSubBuild(true)
		p.failed.AddError(lerrors.ErrSubBuildNoOutput(pr.Reference).WithLocation(pr.ResourcePath, 0))
		return
	}

	p.deps.Add(out.FileDependencies...)

	source, ok := out.Assets[pr.Reference]
	if !ok {
		l.metrics.recordSubBuild(true)
		p.failed.AddError(lerrors.ErrSubBuildNoOutput(pr.Reference).WithLocation(pr.ResourcePath, 0))
		return
	}

	side := make(map[string][]byte, len(out.Assets))
	for name, data := range out.Assets {
		if name == pr.Reference || slices.Contains(out.ChunkFiles, name) {
			continue
		}
		side[name] = data
	}
	p.children.merge(side)

	l.metrics.recordSubBuild(false)
	p.buffer.substitute(pr.Placeholder, strings.TrimSpace(string(source)))
}

// emit writes the finished template and its companions.
func (p *pass) emit(ctx context.Context) {
	l := p.linker
	opts := l.opts

	content := p.buffer.String()
	if ContainsPlaceholder(content) {
		for _, pr := range p.pending {
			if strings.Contains(content, pr.Placeholder) {
				p.finish(ctx, nil, lerrors.NewInternalError(lerrors.ErrCodeInternalError,
					"reference was never substituted: "+pr.Reference, nil).WithLocation(opts.Template, 0))
				return
			}
		}
	}

	result := &Result{
		OutputPath: p.dest,
		Content:    content,
		SubBuilds:  len(p.pending),
	}

	if opts.CopyDependencies {
		copied, err := pugdeps.Copy(l.fs, p.static, opts.Context, opts.OutputPath)
		if err != nil {
			p.finish(ctx, nil, err)
			return
		}
		result.CopiedDependencies = copied
	}

	for _, name := range p.children.names() {
		assetPath, err := l.emitter.WriteAsset(name, p.children.get(name))
		if err != nil {
			p.finish(ctx, nil, err)
			return
		}
		result.Assets = append(result.Assets, assetPath)
	}

	if err := l.emitter.WriteFile(p.dest, []byte(content)); err != nil {
		p.finish(ctx, nil, err)
		return
	}

	result.FileDependencies = p.deps.Sorted()
	p.finish(ctx, result, nil)

	if l.hooks.Len() == 0 {
		return
	}
	l.inflight.Go(func() {
		_, err := l.hooks.RunAfterEmit(ctx, AfterEmitPayload{Linker: l, Result: result})
		if err != nil {
			l.errs.Handle(ctx, lerrors.WrapNotify(err, "after-emit chain"), "output", p.dest)
		}
	})
}

func (p *pass) finish(ctx context.Context, result *Result, err error) {
	l := p.linker
	duration := time.Since(p.started)
	l.metrics.recordPass(duration, err != nil)

	if err != nil {
		l.errs.Handle(ctx, err, "template", l.opts.Template, "duration", duration.String())
		p.done(nil, err)
		return
	}

	result.Duration = duration
	l.logger.Info(ctx, "Template emitted",
		"output", result.OutputPath,
		"sub_builds", result.SubBuilds,
		"dependencies", len(result.FileDependencies),
		"duration", duration.String())
	p.done(result, nil)
}
