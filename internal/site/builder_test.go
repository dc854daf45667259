package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/SearchPilot/ginger/internal/config"
	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/metrics"
	"github.com/SearchPilot/ginger/internal/render"
)

type project struct {
	dir      string
	settings *config.Settings
}

func newProject(t *testing.T, extra string) *project {
	t.Helper()
	yml := "input_dir: site\noutput_dir: out\ncss_input_file: main.css\ndev: true\n" + extra
	s, err := config.Parse(strings.NewReader(yml))
	require.NoError(t, err)
	dir := t.TempDir()
	s.BaseDir = dir
	p := &project{dir: dir, settings: s}
	p.write(t, "site/templates/css/main.css", "body { color: red; }\n")
	return p
}

func (p *project) write(t *testing.T, rel, body string) {
	t.Helper()
	full := filepath.Join(p.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func (p *project) out(rel string) string {
	return filepath.Join(p.dir, "out", filepath.FromSlash(rel))
}

func (p *project) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(p.out(rel))
	require.NoError(t, err)
	return string(data)
}

func (p *project) builder(t *testing.T, r render.Renderer, opts ...Option) *Builder {
	t.Helper()
	b, err := NewBuilder(p.settings, r, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// fakeRenderer records every context it is given.
type fakeRenderer struct {
	mu    sync.Mutex
	calls []fakeCall
	err   error
}

type fakeCall struct {
	template string
	ctx      map[string]any
}

func (f *fakeRenderer) Render(name string, ctx map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{template: name, ctx: ctx})
	if f.err != nil {
		return "", f.err
	}
	return "rendered " + name, nil
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcomeLabel
	stages   []string
	pages    int
}

func (c *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *countingRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages = append(c.stages, stage)
}

func (c *countingRecorder) SetPagesRendered(n int) { c.pages = n }

func TestBuilder_EndToEnd(t *testing.T) {
	p := newProject(t, "")
	p.write(t, "site/templates/home", `<link href="{{ css_file_name }}"><h1>{{ title }}</h1>{% for pg in pages %}[{{ pg.save_as }}]{% endfor %}`)
	p.write(t, "site/templates/js/main/c.js", "var c = 1;\n")
	p.write(t, "site/content/index.yml", "meta:\n  template: home\n  save_as: index.html\ncontext:\n  title: Hi\n")

	r, err := render.NewTemplateRenderer(p.settings.TemplatesPath())
	require.NoError(t, err)
	rec := &countingRecorder{}

	res, err := p.builder(t, r, WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err)

	html := p.read(t, "index.html")
	require.Contains(t, html, "<h1>Hi</h1>")
	require.Contains(t, html, `href="`+res.Manifest.CSSFile+`"`)
	require.Contains(t, html, "[index.html]")
	require.True(t, strings.HasPrefix(res.Manifest.CSSFile, "/css/styles."))
	require.FileExists(t, p.out(strings.TrimPrefix(res.Manifest.CSSFile, "/")))
	require.Contains(t, res.Manifest.JSFiles, "main")
	js := res.Manifest.JSFiles["main"]
	require.True(t, strings.HasPrefix(js, "js/main."), js)
	require.FileExists(t, p.out(js))

	require.Equal(t, 1, res.PagesRendered)
	_, err = uuid.Parse(res.BuildID)
	require.NoError(t, err)
	require.Contains(t, res.StageDurations, StageRender)
	require.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	require.Equal(t, []string{"clear_output", "build_assets", "load_content", "render", "copy_passthrough"}, rec.stages)
	require.Equal(t, 1, rec.pages)
}

func TestBuilder_InjectedKeysTakePrecedence(t *testing.T) {
	p := newProject(t, "")
	p.write(t, "site/templates/js/vendor/a.js", "var a = 1;\n")
	p.write(t, "site/content/a.yml", `meta:
  save_as: a.html
  label: first
context:
  css_file_name: nope
  js_file_names: nope
  pages: nope
  meta: nope
  own: kept
`)
	r := &fakeRenderer{}
	res, err := p.builder(t, r).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, r.calls, 1)

	ctx := r.calls[0].ctx
	require.Equal(t, "kept", ctx["own"])
	require.Equal(t, res.Manifest.CSSFile, ctx[KeyCSSFileName])
	require.True(t, strings.HasPrefix(ctx[KeyCSSFileName].(string), "/css/"))
	jsFiles, ok := ctx[KeyJSFileNames].(map[string]string)
	require.True(t, ok)
	require.Equal(t, res.Manifest.JSFiles, jsFiles)
	require.True(t, strings.HasPrefix(jsFiles["vendor"], "js/vendor."), jsFiles["vendor"])
	require.Equal(t, map[string]any{"save_as": "a.html", "label": "first"}, ctx[KeyMeta])
	require.Equal(t, res.Manifest.Pages, ctx[KeyPages])
	require.Equal(t, "index.html", r.calls[0].template)
}

func TestBuilder_ClearRemovesStaleFiles(t *testing.T) {
	p := newProject(t, "")
	p.write(t, "out/stale.txt", "old")
	b := p.builder(t, &fakeRenderer{})

	first, err := b.Run(context.Background())
	require.NoError(t, err)
	require.NoFileExists(t, p.out("stale.txt"))

	p.write(t, "site/templates/css/main.css", "body { color: blue; }\n")
	second, err := b.Run(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, first.Manifest.CSSFile, second.Manifest.CSSFile)

	entries, err := os.ReadDir(p.out("css"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestBuilder_RepeatedBuildsAreDeterministic(t *testing.T) {
	p := newProject(t, "")
	p.write(t, "site/templates/js/vendor/a.js", "var a;\n")
	b := p.builder(t, &fakeRenderer{})

	first, err := b.Run(context.Background())
	require.NoError(t, err)
	second, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.Manifest.CSSFile, second.Manifest.CSSFile)
	require.Equal(t, first.Manifest.JSFiles, second.Manifest.JSFiles)
	require.NotEqual(t, first.BuildID, second.BuildID)
}

func TestBuilder_PreserveKeepsPreviousFiles(t *testing.T) {
	p := newProject(t, "preserve_output_on_rebuild: true\n")
	p.write(t, "out/stale.txt", "old")

	res, err := p.builder(t, &fakeRenderer{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "old", p.read(t, "stale.txt"))
	require.NotContains(t, res.StageDurations, StageClearOutput)
}

func TestBuilder_PassthroughSelectivity(t *testing.T) {
	p := newProject(t, "copy_unmodified:\n  - '.*\\.png$'\n")
	p.write(t, "site/templates/img/logo.png", "png")
	p.write(t, "site/templates/home.html", "{{ title }}")

	res, err := p.builder(t, &fakeRenderer{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"img/logo.png"}, res.FilesCopied)
	require.Equal(t, "png", p.read(t, "img/logo.png"))
	require.NoFileExists(t, p.out("home.html"))
}

func TestBuilder_MissingSaveAsUsesFallback(t *testing.T) {
	p := newProject(t, "")
	p.write(t, "site/content/a.yml", "context:\n  title: x\n")

	_, err := p.builder(t, &fakeRenderer{}).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rendered index.html", p.read(t, "missing_save_as.html"))
}

func TestBuilder_RenderFailureAborts(t *testing.T) {
	p := newProject(t, "copy_unmodified:\n  - '.*\\.png$'\n")
	p.write(t, "site/templates/logo.png", "png")
	p.write(t, "site/content/a.yml", "meta:\n  save_as: a.html\n")
	rec := &countingRecorder{}

	_, err := p.builder(t, &fakeRenderer{err: errors.New("boom")}, WithRecorder(rec)).Run(context.Background())
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageRender, se.Stage)
	require.Equal(t, StageErrorFatal, se.Kind)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	page, _ := ce.Context().GetString("page")
	require.Equal(t, "a.yml", page)

	require.NoFileExists(t, p.out("logo.png"))
	require.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeFailed}, rec.outcomes)
}

func TestBuilder_MissingCSSEntryFails(t *testing.T) {
	p := newProject(t, "")
	require.NoError(t, os.Remove(filepath.Join(p.dir, "site/templates/css/main.css")))

	_, err := p.builder(t, &fakeRenderer{}).Run(context.Background())
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageBuildAssets, se.Stage)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryAsset))
}

func TestBuilder_AtomicFailureKeepsPreviousOutput(t *testing.T) {
	p := newProject(t, "atomic_output: true\n")
	p.write(t, "site/content/a.yml", "meta:\n  save_as: a.html\n")
	r := &fakeRenderer{}
	b := p.builder(t, r)

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rendered index.html", p.read(t, "a.html"))

	r.err = errors.New("boom")
	_, err = b.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, "rendered index.html", p.read(t, "a.html"))
	require.NoDirExists(t, filepath.Join(p.dir, "out_stage"))
}

func TestBuilder_CanceledBeforeStart(t *testing.T) {
	p := newProject(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &countingRecorder{}

	_, err := p.builder(t, &fakeRenderer{}, WithRecorder(rec)).Run(ctx)
	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageErrorCanceled, se.Kind)
	require.Equal(t, StageClearOutput, se.Stage)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeCanceled}, rec.outcomes)
}

func TestNewBuilder_RequiresRenderer(t *testing.T) {
	p := newProject(t, "")
	_, err := NewBuilder(p.settings, nil)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
}
