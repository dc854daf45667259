package site

import (
	"time"

	"github.com/SearchPilot/ginger/internal/assets"
)

// Context keys injected into every page. They take precedence over the
// page's own context entries of the same name.
const (
	KeyCSSFileName = "css_file_name"
	KeyJSFileNames = "js_file_names"
	KeyPages       = "pages"
	KeyMeta        = "meta"
)

// Manifest describes what one pass produced. Rebuilt from scratch every pass.
type Manifest struct {
	CSSFile string            // URL path of the CSS bundle, with a leading slash
	JSFiles map[string]string // group name to output-relative path of its bundle
	Pages   []map[string]any  // meta of every page, in load order
}

func newManifest(css assets.Bundle, js map[string]assets.Bundle) Manifest {
	m := Manifest{CSSFile: css.URL(), JSFiles: make(map[string]string, len(js))}
	for name, b := range js {
		m.JSFiles[name] = b.Path
	}
	return m
}

// pageContext merges the manifest over a page's own context.
func (m Manifest) pageContext(pageCtx, meta map[string]any) map[string]any {
	ctx := make(map[string]any, len(pageCtx)+4)
	for k, v := range pageCtx {
		ctx[k] = v
	}
	ctx[KeyCSSFileName] = m.CSSFile
	ctx[KeyJSFileNames] = m.JSFiles
	ctx[KeyPages] = m.Pages
	ctx[KeyMeta] = meta
	return ctx
}

// Result summarises a build pass.
type Result struct {
	BuildID        string
	Manifest       Manifest
	PagesRendered  int
	FilesCopied    []string
	StageDurations map[StageName]time.Duration
	Duration       time.Duration
}
