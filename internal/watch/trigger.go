package watch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/logfields"
)

// BuildFunc runs one build pass.
type BuildFunc func(ctx context.Context) error

// TriggerConfig tunes the rebuild trigger.
type TriggerConfig struct {
	// Debounce is the quiet window that must pass without a new request.
	Debounce time.Duration
	// MaxDelay caps how long a continuous stream of requests can postpone a build.
	MaxDelay time.Duration
	// QueueSize bounds the request channel. Requests beyond it are dropped,
	// since one queued request already guarantees a build.
	QueueSize int
}

// Trigger serialises rebuilds requested through Notify.
type Trigger struct {
	build BuildFunc
	cfg   TriggerConfig

	requests  chan struct{}
	stopped   atomic.Bool
	readyOnce sync.Once
	ready     chan struct{}
}

// NewTrigger validates cfg and returns a Trigger that calls build.
func NewTrigger(build BuildFunc, cfg TriggerConfig) (*Trigger, error) {
	if build == nil {
		return nil, ferrors.ValidationError("build function is required").Build()
	}
	if cfg.Debounce <= 0 {
		return nil, ferrors.ValidationError("debounce must be > 0").Build()
	}
	if cfg.MaxDelay < cfg.Debounce {
		cfg.MaxDelay = cfg.Debounce
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	return &Trigger{
		build:    build,
		cfg:      cfg,
		requests: make(chan struct{}, cfg.QueueSize),
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once Run is consuming requests.
func (t *Trigger) Ready() <-chan struct{} { return t.ready }

// Notify requests a rebuild. It never blocks and is a no-op after Run returns.
func (t *Trigger) Notify() {
	if t.stopped.Load() {
		return
	}
	select {
	case t.requests <- struct{}{}:
	default:
	}
}

// Run consumes requests until ctx is canceled. Builds run on this goroutine
// with a context detached from ctx, so a build in flight at cancellation
// completes before Run returns. Build errors are logged and do not stop the loop.
func (t *Trigger) Run(ctx context.Context) error {
	defer t.stopped.Store(true)
	t.readyOnce.Do(func() { close(t.ready) })

	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()
	defer quietTimer.Stop()
	defer maxTimer.Stop()

	var (
		quietC  <-chan time.Time
		maxC    <-chan time.Time
		pending int
	)

	fire := func(reason string) {
		quietTimer.Stop()
		maxTimer.Stop()
		quietC, maxC = nil, nil
		n := pending
		pending = 0
		if ctx.Err() != nil {
			return
		}
		t.runBuild(ctx, reason, n)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.requests:
			if pending == 0 {
				resetTimer(maxTimer, t.cfg.MaxDelay)
				maxC = maxTimer.C
			}
			pending++
			resetTimer(quietTimer, t.cfg.Debounce)
			quietC = quietTimer.C
		case <-quietC:
			fire("quiet")
		case <-maxC:
			fire("max_delay")
		}
	}
}

func (t *Trigger) runBuild(ctx context.Context, reason string, requests int) {
	slog.Info("Change detected; rebuilding site", slog.String("reason", reason), slog.Int("requests", requests))
	if err := t.build(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("Rebuild failed; still watching", logfields.Error(err))
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
