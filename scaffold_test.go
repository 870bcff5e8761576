package infernum_test

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infernum "github.com/goliatone/go-infernum"
	"github.com/goliatone/go-infernum/pkg/config"
	"github.com/goliatone/go-infernum/pkg/dispatch"
)

func TestScaffoldFS(t *testing.T) {
	for _, name := range []string{
		"templates/layout.twig",
		"themes/default/theme.yaml",
		"themes/default/templates/message_body.twig",
		"themes/default/templates/notfound_body.twig",
		"locales/en-US/core.yaml",
	} {
		_, err := fs.Stat(infernum.ScaffoldFS(), name)
		assert.NoError(t, err, name)
	}
}

func TestWriteScaffold_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "templates", "layout.twig")
	require.NoError(t, os.MkdirAll(filepath.Dir(custom), 0o755))
	require.NoError(t, os.WriteFile(custom, []byte("mine"), 0o644))

	written, err := infernum.WriteScaffold(dir, false)
	require.NoError(t, err)
	assert.NotContains(t, written, custom)
	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))

	written, err = infernum.WriteScaffold(dir, true)
	require.NoError(t, err)
	assert.Contains(t, written, custom)
}

func TestWriteScaffold_ServesStarterSite(t *testing.T) {
	dir := t.TempDir()
	_, err := infernum.WriteScaffold(dir, false)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Core.URL = "https://example.com"
	cfg.Core.TemplatePath = filepath.Join(dir, "templates")
	cfg.Core.ThemesDir = filepath.Join(dir, "themes")
	cfg.Core.LocalesDir = filepath.Join(dir, "locales")

	app := newApp(t, cfg, infernum.WithModule("home", dispatch.ModuleFunc(func(c *dispatch.Context) error {
		return c.Render("home", nil)
	})))
	h := app.Handler()

	w := get(h, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Infernum</title>")
	assert.Contains(t, body, "<h1>Welcome to Infernum</h1>")
	assert.Contains(t, body, `href="https://example.com/themes/default/static/site.css"`)

	w = get(h, "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Not Found - Infernum</title>")
	assert.Contains(t, w.Body.String(), "Page not found")

	w = get(h, "/themes/default/static/site.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "--brand"))
}
