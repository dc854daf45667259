package site

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SearchPilot/ginger/internal/assets"
	"github.com/SearchPilot/ginger/internal/config"
	"github.com/SearchPilot/ginger/internal/content"
	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/logfields"
	"github.com/SearchPilot/ginger/internal/metrics"
	"github.com/SearchPilot/ginger/internal/output"
	"github.com/SearchPilot/ginger/internal/passthrough"
	"github.com/SearchPilot/ginger/internal/render"
)

// Builder runs build passes for one set of settings. A Builder is not safe
// for concurrent Run calls; watch mode serialises them.
type Builder struct {
	settings *config.Settings
	renderer render.Renderer
	pipeline *assets.Pipeline
	copier   *passthrough.Copier
	recorder metrics.Recorder
	closers  []func() error
}

// Option customises a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// WithPipeline replaces the asset pipeline derived from settings.
func WithPipeline(p *assets.Pipeline) Option {
	return func(b *Builder) { b.pipeline = p }
}

// NewBuilder wires a Builder. The renderer is always supplied by the caller.
func NewBuilder(s *config.Settings, r render.Renderer, opts ...Option) (*Builder, error) {
	if s == nil || r == nil {
		return nil, ferrors.InternalError("builder requires settings and a renderer").Build()
	}
	b := &Builder{
		settings: s,
		renderer: r,
		copier:   passthrough.NewCopier(s.TemplatesPath(), s.CopyPatterns()),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.pipeline == nil {
		m, err := assets.NewMinifier(assets.DefaultMinifyCacheSize)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "create minifier").Fatal().Build()
		}
		pre := &assets.StylePreprocessor{}
		b.closers = append(b.closers, pre.Close)
		b.pipeline = assets.NewPipeline(assets.OptionsFromSettings(s), pre, m)
	}
	return b, nil
}

// Close releases resources held across passes.
func (b *Builder) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// buildState is the mutable state threaded through one pass.
type buildState struct {
	log    *slog.Logger
	writer *output.Writer
	pages  []content.Page
	result *Result
}

func (b *Builder) stages() []stageDef {
	var defs []stageDef
	if !b.settings.PreserveOutputOnRebuild {
		defs = append(defs, stageDef{StageClearOutput, b.stageClearOutput})
	}
	return append(defs,
		stageDef{StageBuildAssets, b.stageBuildAssets},
		stageDef{StageLoadContent, b.stageLoadContent},
		stageDef{StageRender, b.stageRender},
		stageDef{StageCopyPassthrough, b.stageCopyPassthrough},
	)
}

// Run executes one build pass.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		BuildID:        uuid.NewString(),
		StageDurations: make(map[StageName]time.Duration),
	}
	log := slog.With(logfields.BuildID(res.BuildID))
	log.Info("Rebuilding")

	root := b.settings.OutputPath()
	var staging *output.Staging
	if b.settings.AtomicOutput {
		var err error
		staging, err = output.BeginStaging(root, b.settings.PreserveOutputOnRebuild)
		if err != nil {
			return res, b.fail(log, res, start, err)
		}
		root = staging.Dir()
	}

	bs := &buildState{log: log, writer: output.NewWriter(root), result: res}
	if err := runStages(ctx, bs, b.stages(), b.recorder); err != nil {
		if staging != nil {
			staging.Abort()
		}
		return res, b.fail(log, res, start, err)
	}
	if staging != nil {
		if err := staging.Finalize(); err != nil {
			staging.Abort()
			return res, b.fail(log, res, start, err)
		}
	}

	res.Duration = time.Since(start)
	b.recorder.ObserveBuildDuration(res.Duration)
	b.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
	b.recorder.SetPagesRendered(res.PagesRendered)
	log.Info("Build complete",
		logfields.DurationMS(millis(res.Duration)),
		logfields.Pages(res.PagesRendered),
		slog.Int("copied", len(res.FilesCopied)))
	return res, nil
}

func (b *Builder) fail(log *slog.Logger, res *Result, start time.Time, err error) error {
	res.Duration = time.Since(start)
	outcome := metrics.BuildOutcomeFailed
	var se *StageError
	if errors.As(err, &se) && se.Kind == StageErrorCanceled {
		outcome = metrics.BuildOutcomeCanceled
	}
	b.recorder.ObserveBuildDuration(res.Duration)
	b.recorder.IncBuildOutcome(outcome)
	log.Error("Build failed", logfields.DurationMS(millis(res.Duration)), logfields.Error(err))
	return err
}

func (b *Builder) stageClearOutput(_ context.Context, bs *buildState) error {
	return bs.writer.Clear()
}

func (b *Builder) stageBuildAssets(_ context.Context, bs *buildState) error {
	css, err := b.pipeline.BuildCSS(bs.writer)
	if err != nil {
		return err
	}
	js, err := b.pipeline.BuildJS(bs.writer)
	if err != nil {
		return err
	}
	bs.result.Manifest = newManifest(css, js)
	bs.log.Debug("Built assets", logfields.Path(css.Path), slog.Int("js_groups", len(js)))
	return nil
}

func (b *Builder) stageLoadContent(_ context.Context, bs *buildState) error {
	pages, err := content.Load(b.settings.ContentPath())
	if err != nil {
		return err
	}
	bs.pages = pages
	bs.result.Manifest.Pages = content.Metas(pages)
	bs.log.Debug("Loaded content", logfields.Pages(len(pages)))
	return nil
}

func (b *Builder) stageRender(_ context.Context, bs *buildState) error {
	m := bs.result.Manifest
	for _, page := range bs.pages {
		tpl := page.Template(b.settings.DefaultTemplate)
		saveAs, ok := page.SaveAs()
		if !ok {
			bs.log.Warn("Page has no meta.save_as; using fallback output path",
				logfields.Path(page.Source), slog.String("save_as", saveAs))
		}
		out, err := b.renderer.Render(tpl, m.pageContext(page.Context, page.Meta))
		if err != nil {
			return withPath(err, page.Source)
		}
		written, err := bs.writer.Write(saveAs, []byte(out))
		if err != nil {
			return withPath(err, page.Source)
		}
		bs.result.PagesRendered++
		bs.log.Debug("Rendered page", logfields.Path(written), logfields.Template(tpl))
	}
	return nil
}

func (b *Builder) stageCopyPassthrough(_ context.Context, bs *buildState) error {
	copied, err := b.copier.Copy(bs.writer)
	if err != nil {
		return err
	}
	bs.result.FilesCopied = copied
	return nil
}

// withPath attaches the page descriptor to err without hiding the output path
// an IO error may already carry.
func withPath(err error, source string) error {
	ce, ok := ferrors.AsClassified(err)
	if !ok {
		return ferrors.WrapError(err, ferrors.CategoryRender, "render page").
			Fatal().
			WithContext("page", source).
			Build()
	}
	return ce.WithContext("page", source)
}
