package assets

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/SearchPilot/ginger/internal/config"
	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/logfields"
	"github.com/SearchPilot/ginger/internal/output"
)

// Options locates asset sources and shapes bundle names.
type Options struct {
	CSSEntry   string // stylesheet entry file
	CSSDir     string // output subdirectory for the CSS bundle
	JSRoot     string // root of the JS groups
	JSDir      string // output subdirectory for JS bundles
	CSSMask    string
	JSMask     string
	HashLength int
	Dev        bool // skip minification
}

// OptionsFromSettings derives pipeline options from the build settings.
func OptionsFromSettings(s *config.Settings) Options {
	return Options{
		CSSEntry:   s.CSSEntryPath(),
		CSSDir:     filepath.ToSlash(s.CSSDir),
		JSRoot:     s.JSSourcePath(),
		JSDir:      filepath.ToSlash(s.JSDir),
		CSSMask:    s.CSSOutputFileMask,
		JSMask:     s.JSOutputFileMask,
		HashLength: s.FilenameHashLength,
		Dev:        s.Dev,
	}
}

// Pipeline compiles, minifies, fingerprints and writes asset bundles.
type Pipeline struct {
	opts Options
	pre  Preprocessor
	min  Minifier
}

// NewPipeline wires a pipeline. The minifier is unused when opts.Dev is set.
func NewPipeline(opts Options, pre Preprocessor, min Minifier) *Pipeline {
	return &Pipeline{opts: opts, pre: pre, min: min}
}

// BuildCSS compiles the stylesheet entry and writes the CSS bundle.
func (p *Pipeline) BuildCSS(w *output.Writer) (Bundle, error) {
	entry := p.opts.CSSEntry
	if _, err := os.Stat(entry); err != nil {
		return Bundle{}, ferrors.WrapError(err, ferrors.CategoryAsset, "css entry file not found").
			Fatal().
			WithContext("path", entry).
			Build()
	}
	compiled, err := p.pre.Compile(entry)
	if err != nil {
		return Bundle{}, ferrors.WrapError(err, ferrors.CategoryAsset, "compile stylesheet").
			Fatal().
			WithContext("path", entry).
			Build()
	}
	final, err := p.finalize(MediaCSS, []byte(compiled), entry)
	if err != nil {
		return Bundle{}, err
	}
	hash := Fingerprint(final, p.opts.HashLength)
	written, err := w.Write(path.Join(p.opts.CSSDir, FormatName(p.opts.CSSMask, "", hash)), final)
	if err != nil {
		return Bundle{}, err
	}
	slog.Debug("Wrote CSS bundle", logfields.Path(written))
	return Bundle{Name: "css", Hash: hash, Path: written}, nil
}

// jsGroup is one directory's worth of JS source files.
type jsGroup struct {
	name  string
	dir   string
	files []string
}

// collectJSGroups walks root and returns the non-empty groups in walk order.
// A missing root yields no groups.
func collectJSGroups(root string) ([]*jsGroup, error) {
	var groups []*jsGroup
	byDir := map[string]*jsGroup{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		dir := filepath.Dir(p)
		g, ok := byDir[dir]
		if !ok {
			g = &jsGroup{name: filepath.Base(dir), dir: dir}
			byDir[dir] = g
			groups = append(groups, g)
		}
		g.files = append(g.files, p)
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk js sources").
			Fatal().
			WithContext("path", root).
			Build()
	}
	return groups, nil
}

// BuildJS writes one bundle per non-empty directory under the JS root and
// returns them keyed by group name. Directories without files produce no entry.
func (p *Pipeline) BuildJS(w *output.Writer) (map[string]Bundle, error) {
	groups, err := collectJSGroups(p.opts.JSRoot)
	if err != nil {
		return nil, err
	}
	bundles := make(map[string]Bundle, len(groups))
	for _, g := range groups {
		var src []byte
		for _, f := range g.files {
			data, err := os.ReadFile(f)
			if err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read js source").
					Fatal().
					WithContext("path", f).
					Build()
			}
			src = append(src, data...)
		}
		final, err := p.finalize(MediaJS, src, g.dir)
		if err != nil {
			return nil, err
		}
		hash := Fingerprint(final, p.opts.HashLength)
		written, err := w.Write(path.Join(p.opts.JSDir, FormatName(p.opts.JSMask, g.name, hash)), final)
		if err != nil {
			return nil, err
		}
		if prev, dup := bundles[g.name]; dup {
			slog.Warn("Duplicate JS group name; later directory wins",
				logfields.Group(g.name), logfields.Path(g.dir), slog.String("replaced", prev.Path))
		}
		bundles[g.name] = Bundle{Name: g.name, Hash: hash, Path: written}
		slog.Debug("Wrote JS bundle", logfields.Group(g.name), logfields.Path(written), slog.Int("files", len(g.files)))
	}
	return bundles, nil
}

func (p *Pipeline) finalize(mediatype string, src []byte, origin string) ([]byte, error) {
	if p.opts.Dev || p.min == nil {
		return src, nil
	}
	out, err := p.min.Minify(mediatype, src)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryAsset, "minify "+mediatype).
			Fatal().
			WithContext("path", origin).
			Build()
	}
	return out, nil
}
