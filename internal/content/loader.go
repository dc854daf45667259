package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
)

// descriptor is the on-disk shape of a page.
type descriptor struct {
	Meta    map[string]any `yaml:"meta"`
	Context map[string]any `yaml:"context"`
}

// Load walks root and parses every regular file as a page descriptor, in
// lexical traversal order. Any parse failure aborts the load and names the
// offending file. A missing root yields no pages.
func Load(root string) ([]Page, error) {
	var pages []Page
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk content directory").
				Fatal().
				WithContext("path", p).
				Build()
		}
		if !regularFile(p, d) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		page, err := ParseFile(p)
		if err != nil {
			return err
		}
		page.Source = filepath.ToSlash(rel)
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// ParseFile reads and parses a single descriptor file.
func ParseFile(path string) (Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read page descriptor").
			Fatal().
			WithContext("path", path).
			Build()
	}
	page, err := Parse(data)
	if err != nil {
		return Page{}, ferrors.WrapError(err, ferrors.CategoryContent, "parse page descriptor").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return page, nil
}

// Parse decodes descriptor bytes. Empty input yields a page with empty meta
// and context; anything other than a mapping with mapping-valued meta and
// context is an error.
func Parse(data []byte) (Page, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return newPage(descriptor{}), nil
		}
		return Page{}, err
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		doc = doc.Content[0]
	}
	if doc.Kind == yaml.ScalarNode && doc.Tag == "!!null" {
		return newPage(descriptor{}), nil
	}
	if doc.Kind != yaml.MappingNode {
		return Page{}, fmt.Errorf("page descriptor must be a mapping, got %s", kindName(doc.Kind))
	}
	var d descriptor
	if err := doc.Decode(&d); err != nil {
		return Page{}, err
	}
	return newPage(d), nil
}

func newPage(d descriptor) Page {
	if d.Meta == nil {
		d.Meta = map[string]any{}
	}
	if d.Context == nil {
		d.Context = map[string]any{}
	}
	return Page{Meta: d.Meta, Context: d.Context}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
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
