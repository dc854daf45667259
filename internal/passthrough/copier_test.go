package passthrough

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SearchPilot/ginger/internal/output"
)

func anchored(t *testing.T, exprs ...string) []*regexp.Regexp {
	t.Helper()
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		res = append(res, regexp.MustCompile(`^(?:`+e+`)`))
	}
	return res
}

func TestCopier_CopiesOnlyMatches(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"img/logo.png":  "png-bytes",
		"img/photo.jpg": "jpg-bytes",
		"robots.txt":    "User-agent: *",
		"home.html":     "{{ title }}",
		"css/main.scss": "a{}",
	}
	for rel, body := range files {
		p := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}

	out := t.TempDir()
	// both patterns match logo.png; it must still be copied once
	c := NewCopier(src, anchored(t, `.*\.png$`, `logo`, `robots\.txt$`))
	copied, err := c.Copy(output.NewWriter(out))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"img/logo.png", "robots.txt"}, copied)

	data, err := os.ReadFile(filepath.Join(out, "img", "logo.png"))
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
	require.NoFileExists(t, filepath.Join(out, "img", "photo.jpg"))
	require.NoFileExists(t, filepath.Join(out, "home.html"))
	require.NoFileExists(t, filepath.Join(out, "css", "main.scss"))
}

func TestCopier_FollowsSymlinkedFiles(t *testing.T) {
	src := t.TempDir()
	shared := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(shared, "logo.png"), []byte("png-bytes"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "img"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(shared, "logo.png"), filepath.Join(src, "img", "logo.png")))
	require.NoError(t, os.Symlink(filepath.Join(shared, "missing.png"), filepath.Join(src, "broken.png")))

	out := t.TempDir()
	copied, err := NewCopier(src, anchored(t, `.*\.png$`)).Copy(output.NewWriter(out))
	require.NoError(t, err)
	require.Equal(t, []string{"img/logo.png"}, copied)

	info, err := os.Lstat(filepath.Join(out, "img", "logo.png"))
	require.NoError(t, err)
	require.True(t, info.Mode().IsRegular(), "the target's bytes are copied, not the link")
	data, err := os.ReadFile(filepath.Join(out, "img", "logo.png"))
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))
}

func TestCopier_NoPatternsCopiesNothing(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.png"), []byte("x"), 0o644))
	copied, err := NewCopier(src, nil).Copy(output.NewWriter(t.TempDir()))
	require.NoError(t, err)
	require.Empty(t, copied)
}

func TestCopier_MatchUsesBaseName(t *testing.T) {
	c := NewCopier("", anchored(t, `favicon`))
	require.True(t, c.Match("favicon.ico"))
	require.False(t, c.Match("old-favicon.ico"))
}
