// Package render turns a template identifier plus a context mapping into text.
package render

import (
	"bytes"
	"fmt"
	"os"

	"github.com/flosch/pongo2/v6"
	"github.com/yuin/goldmark"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
)

// Renderer abstracts the templating engine so the build can be exercised
// with a fake in tests.
type Renderer interface {
	Render(template string, ctx map[string]any) (string, error)
}

// TemplateRenderer renders Jinja-style templates from a directory with pongo2.
// Templates are re-read on every call, so a long-lived renderer picks up edits.
//
// Context values are HTML-escaped on output. Templates that emit markup held in
// a context value must mark it with the |safe filter; markdown(...) output is
// already marked safe.
type TemplateRenderer struct {
	dir string
	set *pongo2.TemplateSet
}

// NewTemplateRenderer returns a renderer whose search path is dir.
func NewTemplateRenderer(dir string) (*TemplateRenderer, error) {
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return nil, ferrors.ConfigError("templates directory not found").
			WithContext("path", dir).
			Build()
	}
	loader, err := pongo2.NewLocalFileSystemLoader(dir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "create template loader").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	set := pongo2.NewSet("ginger", loader)
	set.Globals = pongo2.Context{"markdown": markdown}
	return &TemplateRenderer{dir: dir, set: set}, nil
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(name string, ctx map[string]any) (string, error) {
	tpl, err := r.set.FromFile(name)
	if err != nil {
		return "", renderError(err, "load template", name)
	}
	if ctx == nil {
		ctx = map[string]any{}
	}
	out, err := tpl.Execute(pongo2.Context(ctx))
	if err != nil {
		return "", renderError(err, "execute template", name)
	}
	return out, nil
}

func renderError(err error, message, name string) error {
	return ferrors.WrapError(err, ferrors.CategoryRender, message).
		Fatal().
		WithContext("template", name).
		Build()
}

// markdown converts a Markdown string to HTML; exposed to templates as
// {{ markdown(text) }}.
func markdown(src any) *pongo2.Value {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(fmt.Sprint(src)), &buf); err != nil {
		return pongo2.AsValue(fmt.Sprint(src))
	}
	return pongo2.AsSafeValue(buf.String())
}
