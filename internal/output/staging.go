package output

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/logfields"
)

// Suffixes of the directories staging creates next to the output root.
const (
	StageSuffix  = "_stage"
	BackupSuffix = ".prev"
)

// ReservedPaths returns every directory a build may write: the output root
// and its staging and backup siblings.
func ReservedPaths(root string) []string {
	root = filepath.Clean(root)
	return []string{root, root + StageSuffix, root + BackupSuffix}
}

// Staging is an isolated sibling directory a build writes into before it is
// promoted to the live output root.
type Staging struct {
	root  string // live output root
	stage string // <root>_stage
}

// BeginStaging creates <root>_stage next to root. With preserve set the stage
// is seeded with a copy of the current output, so files the build does not
// overwrite survive promotion.
func BeginStaging(root string, preserve bool) (*Staging, error) {
	root = filepath.Clean(root)
	stage := root + StageSuffix
	if err := os.RemoveAll(stage); err != nil {
		return nil, ioError(err, "remove stale staging directory", stage)
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return nil, ioError(err, "create staging directory", stage)
	}
	if preserve {
		if _, err := os.Stat(root); err == nil {
			if err := copyDir(root, stage); err != nil {
				_ = os.RemoveAll(stage)
				return nil, err
			}
		}
	}
	slog.Debug("Initialized staging directory", slog.String("staging", stage), logfields.Path(root))
	return &Staging{root: root, stage: stage}, nil
}

// Dir is the directory the build should write into.
func (s *Staging) Dir() string { return s.stage }

// Finalize promotes the staging directory to the output root:
//  1. move the existing root to <root>.prev,
//  2. rename the stage to root,
//  3. remove the backup.
func (s *Staging) Finalize() error {
	if s.stage == "" {
		return ferrors.InternalError("no staging directory initialized").Build()
	}
	prev := s.root + BackupSuffix
	if err := os.RemoveAll(prev); err != nil {
		return ioError(err, "remove previous backup", prev)
	}
	backedUp := false
	if _, err := os.Stat(s.root); err == nil {
		if err := os.Rename(s.root, prev); err != nil {
			return ioError(err, "backup existing output", s.root)
		}
		backedUp = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return ioError(err, "stat output root", s.root)
	}
	if err := rename(s.stage, s.root); err != nil {
		if backedUp {
			if rerr := os.Rename(prev, s.root); rerr != nil {
				slog.Error("Failed to restore previous output", logfields.Path(s.root), logfields.Error(rerr))
			}
		}
		return ioError(err, "promote staging directory", s.stage)
	}
	s.stage = ""
	if err := os.RemoveAll(prev); err != nil {
		slog.Warn("Failed to remove previous output backup", logfields.Path(prev), logfields.Error(err))
	}
	slog.Debug("Promoted staging directory", logfields.Path(s.root))
	return nil
}

// Abort removes the staging directory after a failed build. Safe to call
// after Finalize.
func (s *Staging) Abort() {
	if s.stage == "" {
		return
	}
	dir := s.stage
	s.stage = ""
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove staging directory after abort", slog.String("staging", dir), logfields.Error(err))
	}
}

// rename is swapped in tests to simulate a failed promotion.
var rename = os.Rename
