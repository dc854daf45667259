// Package output materialises build artefacts under the output root.
package output

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
)

// Writer writes files below a fixed root directory.
type Writer struct {
	root string
}

// NewWriter returns a Writer rooted at root.
func NewWriter(root string) *Writer {
	return &Writer{root: filepath.Clean(root)}
}

// Root returns the physical output root.
func (w *Writer) Root() string { return w.root }

// Resolve maps a slash-separated logical path to a physical path inside the
// root and returns the normalised logical path. Absolute paths and paths that
// would escape the root are rejected.
func (w *Writer) Resolve(logicalPath string) (physical, normalized string, err error) {
	logicalPath = strings.ReplaceAll(logicalPath, `\`, "/")
	if logicalPath == "" || path.IsAbs(logicalPath) {
		return "", "", outsideRoot(logicalPath)
	}
	normalized = path.Clean(logicalPath)
	local := filepath.FromSlash(normalized)
	if !filepath.IsLocal(local) {
		return "", "", outsideRoot(logicalPath)
	}
	return filepath.Join(w.root, local), normalized, nil
}

func outsideRoot(p string) error {
	return ferrors.FileSystemError("output path must be relative and inside the output root").
		WithContext("path", p).
		Build()
}

// Write stores content at logicalPath, creating parent directories and
// overwriting any existing file. It returns the normalised logical path.
func (w *Writer) Write(logicalPath string, content []byte) (string, error) {
	physical, normalized, err := w.Resolve(logicalPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(physical), 0o755); err != nil {
		return "", ioError(err, "create output directory", filepath.Dir(physical))
	}
	if err := os.WriteFile(physical, content, 0o644); err != nil {
		return "", ioError(err, "write output file", physical)
	}
	return normalized, nil
}

// CopyFile copies src byte-for-byte to logicalPath, preserving the file mode.
func (w *Writer) CopyFile(src, logicalPath string) (string, error) {
	physical, normalized, err := w.Resolve(logicalPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(physical), 0o755); err != nil {
		return "", ioError(err, "create output directory", filepath.Dir(physical))
	}
	if err := copyFile(src, physical); err != nil {
		return "", err
	}
	return normalized, nil
}

// Clear removes every entry below the root. The root itself is kept (and
// created when missing).
func (w *Writer) Clear() error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(w.root, 0o755); err != nil {
				return ioError(err, "create output root", w.root)
			}
			return nil
		}
		return ioError(err, "read output root", w.root)
	}
	for _, e := range entries {
		p := filepath.Join(w.root, e.Name())
		if err := os.RemoveAll(p); err != nil {
			return ioError(err, "clear output", p)
		}
	}
	return nil
}

// copyFile copies a single file from src to dst.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return ioError(err, "open source file", src)
	}
	defer func() { _ = srcFile.Close() }()

	info, err := srcFile.Stat()
	if err != nil {
		return ioError(err, "stat source file", src)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return ioError(err, "create output file", dst)
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return ioError(err, "copy file", dst)
	}
	if err := dstFile.Close(); err != nil {
		return ioError(err, "close output file", dst)
	}
	return nil
}

// copyDir recursively copies a directory tree.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return ioError(err, "walk directory", p)
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return ioError(err, "relativise path", p)
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return ioError(err, "create directory", target)
			}
			return nil
		}
		return copyFile(p, target)
	})
}

func ioError(err error, message, p string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, message).
		Fatal().
		WithContext("path", p).
		Build()
}
