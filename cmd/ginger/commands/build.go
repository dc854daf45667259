package commands

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/SearchPilot/ginger/internal/config"
	"github.com/SearchPilot/ginger/internal/logfields"
	"github.com/SearchPilot/ginger/internal/metrics"
	"github.com/SearchPilot/ginger/internal/render"
	"github.com/SearchPilot/ginger/internal/site"
	"github.com/SearchPilot/ginger/internal/watch"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Watch bool `short:"w" help:"Rebuild whenever the input directory changes"`
	Dev   bool `short:"d" help:"Skip minification (overrides the dev setting)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	s, err := config.Load(root.Settings)
	if err != nil {
		return err
	}
	if b.Dev {
		s.Dev = true
	}
	return RunBuild(g.ctx(), s, b.Watch)
}

// RunBuild performs one build and, when watching, keeps rebuilding on change
// until ctx is canceled. In watch mode a failed build is logged, not returned.
func RunBuild(ctx context.Context, s *config.Settings, watching bool) error {
	r, err := render.NewTemplateRenderer(s.TemplatesPath())
	if err != nil {
		return err
	}

	var (
		reg *prom.Registry
		rec metrics.Recorder = metrics.NoopRecorder{}
	)
	if watching && s.Metrics.Listen != "" {
		reg = prom.NewRegistry()
		rec = metrics.NewPrometheusRecorder(reg)
	}

	builder, err := site.NewBuilder(s, r, site.WithRecorder(rec))
	if err != nil {
		return err
	}
	defer func() {
		if err := builder.Close(); err != nil {
			slog.Warn("Failed to release build resources", logfields.Error(err))
		}
	}()

	build := func(ctx context.Context) error {
		_, err := builder.Run(ctx)
		return err
	}

	if err := build(ctx); err != nil && !watching {
		return err
	}
	if !watching {
		return nil
	}
	return watch.Run(ctx, watch.Options{Settings: s, Build: build, Registry: reg})
}
