package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
)

func newRenderer(t *testing.T, templates map[string]string) *TemplateRenderer {
	t.Helper()
	dir := t.TempDir()
	for name, body := range templates {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	r, err := NewTemplateRenderer(dir)
	require.NoError(t, err)
	return r
}

func TestTemplateRenderer_Render(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"home": "<h1>{{ title }}</h1>{% for p in pages %}[{{ p.save_as }}]{% endfor %}",
	})

	out, err := r.Render("home", map[string]any{
		"title": "Hi",
		"pages": []map[string]any{{"save_as": "index.html"}, {"save_as": "about.html"}},
	})
	require.NoError(t, err)
	require.Equal(t, "<h1>Hi</h1>[index.html][about.html]", out)
}

func TestTemplateRenderer_Inheritance(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"base.html": "<title>{% block title %}{% endblock %}</title>",
		"page.html": `{% extends "base.html" %}{% block title %}{{ meta.title }}{% endblock %}`,
	})
	out, err := r.Render("page.html", map[string]any{"meta": map[string]any{"title": "About"}})
	require.NoError(t, err)
	require.Equal(t, "<title>About</title>", out)
}

func TestTemplateRenderer_PicksUpEdits(t *testing.T) {
	r := newRenderer(t, map[string]string{"t.html": "v1"})
	out, err := r.Render("t.html", nil)
	require.NoError(t, err)
	require.Equal(t, "v1", out)

	require.NoError(t, os.WriteFile(filepath.Join(r.dir, "t.html"), []byte("v2"), 0o644))
	out, err = r.Render("t.html", nil)
	require.NoError(t, err)
	require.Equal(t, "v2", out)
}

func TestTemplateRenderer_Markdown(t *testing.T) {
	r := newRenderer(t, map[string]string{"md.html": "{{ markdown(body) }}"})
	out, err := r.Render("md.html", map[string]any{"body": "**bold**"})
	require.NoError(t, err)
	require.Contains(t, out, "<strong>bold</strong>")
}

func TestTemplateRenderer_EscapesUnlessSafe(t *testing.T) {
	r := newRenderer(t, map[string]string{"page": "{{ body }}|{{ body|safe }}"})
	out, err := r.Render("page", map[string]any{"body": "<b>x</b>"})
	require.NoError(t, err)
	require.Equal(t, "&lt;b&gt;x&lt;/b&gt;|<b>x</b>", out)
}

func TestTemplateRenderer_MissingTemplate(t *testing.T) {
	r := newRenderer(t, map[string]string{})
	_, err := r.Render("nope.html", nil)
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, ferrors.CategoryRender, ce.Category())
	name, _ := ce.Context().GetString("template")
	require.Equal(t, "nope.html", name)
}

func TestNewTemplateRenderer_MissingDir(t *testing.T) {
	_, err := NewTemplateRenderer(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "templates directory not found"))
}
