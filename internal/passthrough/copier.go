// Package passthrough mirrors selected template-tree files into the output.
package passthrough

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/logfields"
	"github.com/SearchPilot/ginger/internal/output"
)

// Copier copies files whose base name matches one of its patterns.
type Copier struct {
	root     string
	patterns []*regexp.Regexp
}

// NewCopier returns a Copier over the tree at root.
func NewCopier(root string, patterns []*regexp.Regexp) *Copier {
	return &Copier{root: root, patterns: patterns}
}

// Match reports whether name matches any pattern.
func (c *Copier) Match(name string) bool {
	for _, re := range c.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// Copy mirrors every matching file to w at its path relative to the root and
// returns the logical paths written.
func (c *Copier) Copy(w *output.Writer) ([]string, error) {
	if len(c.patterns) == 0 {
		return nil, nil
	}
	var copied []string
	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk templates directory").
				Fatal().
				WithContext("path", p).
				Build()
		}
		if !c.Match(d.Name()) || !regularFile(p, d) {
			return nil
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		written, err := w.CopyFile(p, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		slog.Debug("Copied passthrough file", logfields.Path(written))
		copied = append(copied, written)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

// regularFile reports whether the walked entry is a regular file, following
// symlinks to their target.
func regularFile(p string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.Type().IsRegular()
	}
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
