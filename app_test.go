package infernum_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infernum "github.com/goliatone/go-infernum"
	"github.com/goliatone/go-infernum/pkg/config"
	"github.com/goliatone/go-infernum/pkg/database"
	"github.com/goliatone/go-infernum/pkg/dispatch"
	"github.com/goliatone/go-infernum/pkg/logger"
	"github.com/goliatone/go-infernum/pkg/record"
	"github.com/goliatone/go-infernum/pkg/template/locator"
	"github.com/goliatone/go-infernum/pkg/testsupport"
	"github.com/goliatone/go-infernum/pkg/theme"
)

func siteTree(t *testing.T) string {
	t.Helper()
	return testsupport.TemplateTree(t, map[string]string{
		"templates/footer.twig": "footer",
		"mail/welcome.twig":     "welcome",

		"themes/aurora/theme.yaml": `name: aurora
tokens:
  brand: "#123456"
assets:
  prefix: themes/aurora/static
  files:
    stylesheet: aurora.css
`,
		"themes/aurora/static/aurora.css":         "body{}",
		"themes/aurora/templates/home.twig":       `{{ page_title() }}|{{ t("core.greeting", "name", "Ada") }}|{{ theme("stylesheet") }}|{{ theme_config.tokens.brand }}|{% include "@global/footer" %}`,
		"themes/aurora/templates/post.twig":       `{{ page_title() }}|{{ title }}`,
		"themes/aurora/templates/notfound_body.twig": `missing {{ module }}`,
		"themes/aurora/templates/message_body.twig":  `{{ type }}: {{ message }}`,
		"themes/plain/templates/home.twig":           `plain`,

		"locales/en-US/core.yaml": "locale: en-US\nnamespace: core\nmessages:\n  greeting: \"Hello, {name}!\"\n",
		"locales/de-DE/core.yaml": "locale: de-DE\nnamespace: core\nmessages:\n  greeting: \"Hallo, {name}!\"\n",
	})
}

func siteConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Core.SiteName = "Site"
	cfg.Core.URL = "https://example.com"
	cfg.Core.URLRewrite = true
	cfg.Core.TemplatePath = filepath.Join(root, "templates")
	cfg.Core.ThemesDir = filepath.Join(root, "themes")
	cfg.Core.Theme = "aurora"
	cfg.Core.LocalesDir = filepath.Join(root, "locales")
	cfg.Namespaces = map[string]string{"mail": filepath.Join(root, "mail")}
	return cfg
}

func newApp(t *testing.T, cfg *config.Config, opts ...infernum.Option) *infernum.Application {
	t.Helper()
	opts = append([]infernum.Option{infernum.WithLogger(logger.Test(t))}, opts...)
	app, err := infernum.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

var homeModule = dispatch.ModuleFunc(func(ctx *dispatch.Context) error {
	ctx.Page.SetTitle("Home")
	return ctx.Render("home", nil)
})

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestApplication_ServesThemedPages(t *testing.T) {
	app := newApp(t, siteConfig(siteTree(t)), infernum.WithModule("home", homeModule))
	h := app.Handler()

	w := get(h, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Home - Site|Hello, Ada!|https://example.com/themes/aurora/static/aurora.css|#123456|footer", w.Body.String())

	w = get(h, "/?lang=de-DE")
	assert.Equal(t, "Home - Site|Hallo, Ada!|https://example.com/themes/aurora/static/aurora.css|#123456|footer", w.Body.String())

	w = get(h, "/nowhere")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "missing nowhere", w.Body.String())

	assert.Equal(t, []string{"de-DE", "en-US"}, app.Messages().Locales())
	assert.Equal(t, []string{"aurora", "plain"}, app.Themes().Names())
}

func TestApplication_ThemeFiles(t *testing.T) {
	app := newApp(t, siteConfig(siteTree(t)))
	h := app.Handler()

	w := get(h, "/themes/aurora/static/aurora.css")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())

	w = get(h, "/themes/aurora/static/")
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, target := range []string{
		"/themes/aurora/templates/home.twig",
		"/themes/aurora/templates/",
		"/themes/plain/templates/home.twig",
		"/themes/aurora/static/../templates/post.twig",
		"/themes/aurora/theme.yaml",
		"/themes/aurora",
	} {
		w = get(h, target)
		assert.NotEqual(t, http.StatusOK, w.Code, target)
		assert.NotContains(t, w.Body.String(), "page_title", target)
	}
}

func TestApplication_Locate(t *testing.T) {
	root := siteTree(t)
	app := newApp(t, siteConfig(root))

	path, err := app.Locate("@mail/welcome")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "mail", "welcome.twig"), path)

	path, err = app.Locate("home")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "themes", "aurora", "templates", "home.twig"), path)

	_, err = app.Locate("../templates/footer")
	assert.ErrorIs(t, err, locator.ErrBadName)

	_, err = app.Locate("@mail/missing")
	assert.ErrorIs(t, err, locator.ErrNotFound)
}

func TestApplication_ActivateTheme(t *testing.T) {
	app := newApp(t, siteConfig(siteTree(t)))

	out, err := app.Render("post", map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "|x", out)

	require.NoError(t, app.ActivateTheme("plain", ""))
	out, err = app.Render("home", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	assert.ErrorIs(t, app.ActivateTheme("missing", ""), theme.ErrThemeNotFound)
	assert.Equal(t, "plain", app.ThemeHost().Active().Theme)
}

func TestApplication_DatabaseModule(t *testing.T) {
	root := siteTree(t)
	cfg := siteConfig(root)
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(root, "site.db"), Prefix: "inf_"}

	app := newApp(t, cfg)
	conn, ok := app.Database()
	require.True(t, ok)

	ctx := context.Background()
	_, err := conn.Exec(ctx, "CREATE TABLE "+conn.Table("posts")+" (id INTEGER PRIMARY KEY, title TEXT NOT NULL)")
	require.NoError(t, err)

	store, err := record.NewStore(conn, record.Schema{
		Table: "posts",
		Key:   "id",
		Fields: []record.Field{
			{Name: "id", Codec: record.Int},
			{Name: "title", Codec: record.String},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.Insert(ctx, map[string]any{"id": 1, "title": "First post"}))

	require.NoError(t, app.RegisterModule("post", dispatch.ModuleFunc(func(c *dispatch.Context) error {
		id, err := strconv.Atoi(c.Arg(0))
		if err != nil {
			return dispatch.ErrNotFound
		}
		rec, err := store.Find(c.Request.Context(), id)
		if errors.Is(err, record.ErrNotFound) {
			return dispatch.ErrNotFound
		}
		if err != nil {
			return err
		}
		title, _ := rec.Get("title")
		c.Page.SetTitle(title.(string))
		return c.Render("post", map[string]any{"title": title})
	})))

	h := app.Handler()
	w := get(h, "/post/1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "First post - Site|First post", w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(h, "/post/2").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/post/abc").Code)
}

func TestNew_Errors(t *testing.T) {
	root := siteTree(t)

	cfg := siteConfig(root)
	cfg.Core.Theme = "missing"
	_, err := infernum.New(context.Background(), cfg, infernum.WithLogger(logger.Nop()))
	assert.ErrorIs(t, err, theme.ErrThemeNotFound)

	cfg = siteConfig(root)
	cfg.Core.URL = "example.com"
	_, err = infernum.New(context.Background(), cfg, infernum.WithLogger(logger.Nop()))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = siteConfig(root)
	cfg.Database = config.DatabaseConfig{Driver: "oracle", DSN: "x"}
	_, err = infernum.New(context.Background(), cfg, infernum.WithLogger(logger.Nop()))
	assert.ErrorIs(t, err, database.ErrUnsupportedDriver)

	cfg = siteConfig(root)
	_, err = infernum.New(context.Background(), cfg,
		infernum.WithLogger(logger.Nop()),
		infernum.WithModule("home", homeModule),
		infernum.WithModule("home", homeModule),
	)
	assert.Error(t, err)
}

func TestNew_WithoutTheme(t *testing.T) {
	root := siteTree(t)
	cfg := siteConfig(root)
	cfg.Core.Theme = ""
	cfg.Core.LocalesDir = ""

	app := newApp(t, cfg)
	assert.Nil(t, app.ThemeHost().Active())

	_, err := app.Locate("home")
	assert.ErrorIs(t, err, locator.ErrBadName)

	out, err := app.Render("@global/footer", nil)
	require.NoError(t, err)
	assert.Equal(t, "footer", out)
}
