package watch

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/logfields"
)

// Poller detects changes by periodically fingerprinting the tree below root
// (paths, sizes and modification times) and calls notify when it differs.
type Poller struct {
	root     string
	ignore   []string
	interval time.Duration
	notify   func()

	mu        sync.Mutex
	last      string
	scheduler gocron.Scheduler
}

// NewPoller records the current fingerprint as the baseline.
func NewPoller(root string, ignore []string, interval time.Duration, notify func()) (*Poller, error) {
	if interval <= 0 {
		return nil, ferrors.ValidationError("poll interval must be > 0").Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "create poll scheduler").Fatal().Build()
	}
	p := &Poller{
		root:      absClean(root),
		ignore:    nestedIgnore(root, ignore),
		interval:  interval,
		notify:    notify,
		scheduler: s,
	}
	p.last, err = fingerprint(p.root, p.ignore)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	return p, nil
}

// Start schedules the poll job.
func (p *Poller) Start() error {
	_, err := p.scheduler.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(p.Check),
		gocron.WithName("watch-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "schedule poll job").Fatal().Build()
	}
	p.scheduler.Start()
	slog.Debug("Polling for changes", logfields.Path(p.root), slog.Duration("interval", p.interval))
	return nil
}

// Stop shuts the scheduler down, waiting for a running check.
func (p *Poller) Stop() error { return p.scheduler.Shutdown() }

// Check compares the tree against the last fingerprint and notifies on change.
func (p *Poller) Check() {
	fp, err := fingerprint(p.root, p.ignore)
	if err != nil {
		slog.Warn("Poll fingerprint failed", logfields.Error(err))
		return
	}
	p.mu.Lock()
	changed := fp != p.last
	p.last = fp
	p.mu.Unlock()
	if changed {
		slog.Debug("Change detected by poll", logfields.Path(p.root))
		p.notify()
	}
}

func fingerprint(root string, ignore []string) (string, error) {
	h := sha1.New()
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ignoredBy(ignore, p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s|%d|%d|%s\n", p, info.Size(), info.ModTime().UnixNano(), info.Mode())
		return nil
	})
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "fingerprint input tree").
			Fatal().
			WithContext("path", root).
			Build()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
