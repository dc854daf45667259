package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/logfields"
)

// Watcher forwards fsnotify events below root to a notify callback. Events
// inside any ignored directory that is nested in root are dropped.
type Watcher struct {
	fs     *fsnotify.Watcher
	root   string
	ignore []string
	notify func()
}

// NewWatcher subscribes to root and every directory below it.
func NewWatcher(root string, ignore []string, notify func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "create filesystem watcher").Fatal().Build()
	}
	w := &Watcher{fs: fw, root: absClean(root), ignore: nestedIgnore(root, ignore), notify: notify}
	if _, err := os.Stat(w.root); err != nil {
		_ = fw.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "input directory not found").
			Fatal().
			WithContext("path", root).
			Build()
	}
	w.addDirsRecursive(w.root)
	return w, nil
}

// Run forwards events until ctx is canceled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error { return w.fs.Close() }

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.notify()
}

func (w *Watcher) addDirsRecursive(root string) {
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) ignored(p string) bool { return ignoredBy(w.ignore, absClean(p)) }

func ignoredBy(ignore []string, p string) bool {
	for _, dir := range ignore {
		if isWithin(dir, p) {
			return true
		}
	}
	return false
}

// nestedIgnore returns the absolute form of every ignore path strictly inside root.
func nestedIgnore(root string, ignore []string) []string {
	r := absClean(root)
	var nested []string
	for _, p := range ignore {
		if p == "" {
			continue
		}
		i := absClean(p)
		if r != i && isWithin(r, i) {
			nested = append(nested, i)
		}
	}
	return nested
}

func isWithin(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
