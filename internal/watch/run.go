package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/SearchPilot/ginger/internal/config"
	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/logfields"
	"github.com/SearchPilot/ginger/internal/metrics"
	"github.com/SearchPilot/ginger/internal/output"
)

const shutdownTimeout = 5 * time.Second

// Options configures Run.
type Options struct {
	Settings *config.Settings
	Build    BuildFunc
	// Registry is served at /metrics when Settings.Metrics.Listen is set.
	Registry *prom.Registry
}

// Run watches the input tree and rebuilds on change until ctx is canceled.
// It does not perform an initial build.
func Run(ctx context.Context, opts Options) error {
	s := opts.Settings
	if s == nil {
		return ferrors.InternalError("watch requires settings").Build()
	}
	trigger, err := NewTrigger(opts.Build, TriggerConfig{
		Debounce: s.Watch.Debounce,
		MaxDelay: s.Watch.MaxDelay,
	})
	if err != nil {
		return err
	}

	stop, err := startSource(ctx, s, trigger.Notify)
	if err != nil {
		return err
	}
	defer stop()

	if s.Metrics.Listen != "" {
		srv := startMetricsServer(s.Metrics.Listen, opts.Registry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Metrics server shutdown error", logfields.Error(err))
			}
		}()
	}

	slog.Info("Watching for changes", logfields.Path(s.InputPath()))
	err = trigger.Run(ctx)
	slog.Info("Stopped watching")
	return err
}

// startSource starts the change source selected by the settings and returns
// a function that stops it.
func startSource(ctx context.Context, s *config.Settings, notify func()) (func(), error) {
	if s.Watch.PollInterval > 0 {
		p, err := NewPoller(s.InputPath(), output.ReservedPaths(s.OutputPath()), s.Watch.PollInterval, notify)
		if err != nil {
			return nil, err
		}
		if err := p.Start(); err != nil {
			_ = p.Stop()
			return nil, err
		}
		return func() {
			if err := p.Stop(); err != nil {
				slog.Warn("Poller shutdown error", logfields.Error(err))
			}
		}, nil
	}

	w, err := NewWatcher(s.InputPath(), output.ReservedPaths(s.OutputPath()), notify)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	return func() {
		_ = w.Close()
		<-done
	}, nil
}

func startMetricsServer(addr string, reg *prom.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", slog.String("addr", addr))
	return srv
}
