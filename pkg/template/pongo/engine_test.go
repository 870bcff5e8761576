package pongo_test

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-infernum/pkg/template/locator"
	"github.com/goliatone/go-infernum/pkg/template/pongo"
	"github.com/goliatone/go-infernum/pkg/testsupport"
)

type dirHost struct {
	local string
}

func (h *dirHost) TemplatePath(localOnly bool) (string, bool) {
	if !localOnly {
		return "", false
	}
	return h.local, h.local != ""
}

func newEngine(t *testing.T, local string, opts ...pongo.Option) *pongo.Engine {
	t.Helper()

	loc := locator.New(&dirHost{local: local})
	engine, err := pongo.New(append([]pongo.Option{pongo.WithLocator(loc)}, opts...)...)
	require.NoError(t, err)
	return engine
}

func TestNew_RequiresLocator(t *testing.T) {
	_, err := pongo.New()
	require.Error(t, err)
}

func TestEngine_RenderNewsList(t *testing.T) {
	loc := locator.New(&dirHost{local: filepath.Join("testdata", "site", "templates")})
	loc.RegisterNamespace("shared", filepath.Join("testdata", "shared"))

	engine, err := pongo.New(pongo.WithLocator(loc))
	require.NoError(t, err)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("news/list", map[string]any{
			"title": "News",
			"items": []map[string]any{{"title": "first"}, {"title": "second"}},
		}, w)
	})

	goldenPath := filepath.Join("testdata", "golden", "news_list.golden")
	if testsupport.WriteMaybeGolden(t, goldenPath, []byte(result)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, goldenPath)
	if diff := testsupport.CompareGolden(want, result); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, result, written)
}

func TestEngine_RenderTemplateErrorsAreTyped(t *testing.T) {
	engine := newEngine(t, testsupport.TemplateTree(t, map[string]string{
		"page.twig": "page",
	}))

	_, err := engine.RenderTemplate("missing", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, locator.ErrNotFound)

	_, err = engine.RenderTemplate("../page", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, locator.ErrBadName)
}

func TestEngine_IncludeGoesThroughLocator(t *testing.T) {
	root := testsupport.TemplateTree(t, map[string]string{
		"site/escape.twig":    `{% include "../secret" %}`,
		"site/missing.twig":   `{% include "nowhere" %}`,
		"site/undefined.twig": `{% include "@nope/x" %}`,
		"site/lazy.twig":      `{% include name %}`,
		"site/partial.twig":   `partial`,
		"secret.twig":         `secret`,
	})
	engine := newEngine(t, filepath.Join(root, "site"))

	_, err := engine.RenderTemplate("escape", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, locator.ErrBadName)

	_, err = engine.RenderTemplate("missing", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, locator.ErrNotFound)

	_, err = engine.RenderTemplate("undefined", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, locator.ErrBadName)

	out, err := engine.RenderTemplate("lazy", map[string]any{"name": "partial"})
	require.NoError(t, err)
	assert.Equal(t, "partial", out)

	_, err = engine.RenderTemplate("lazy", map[string]any{"name": "../secret"})
	require.Error(t, err)
	assert.ErrorIs(t, err, locator.ErrBadName)
}

func TestEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t, testsupport.TemplateTree(t, map[string]string{
		"env.twig": "{{ settings.env }}",
	}), pongo.WithGlobalData(map[string]any{"settings": map[string]any{"env": "dev"}}))

	out, err := engine.RenderTemplate("env", nil)
	require.NoError(t, err)
	assert.Equal(t, "dev", out)

	require.NoError(t, engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}))
	out, err = engine.RenderTemplate("env", nil)
	require.NoError(t, err)
	assert.Equal(t, "staging", out)
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t, testsupport.TemplateTree(t, map[string]string{
		"shout.twig": "{{ name|engine_test_shout }}",
	}))

	err := engine.RegisterFilter("engine_test_shout", func(input any, _ any) (any, error) {
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	require.NoError(t, err)
	require.Error(t, engine.RegisterFilter("engine_test_shout", func(any, any) (any, error) { return nil, nil }))

	out, err := engine.RenderTemplate("shout", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ADA!", out)
}

type testExtension struct {
	suffix string
}

func (testExtension) Name() string { return "engine_test" }

func (e testExtension) Filters() map[string]func(any, any) (any, error) {
	return map[string]func(any, any) (any, error){
		"engine_test_suffix": func(in any, _ any) (any, error) {
			return fmt.Sprint(in) + e.suffix, nil
		},
	}
}

func (testExtension) Functions() map[string]any {
	return map[string]any{
		"greet": func(name string) string { return "hello " + name },
	}
}

func TestEngine_Extension(t *testing.T) {
	engine := newEngine(t, testsupport.TemplateTree(t, map[string]string{
		"ext.twig": `{{ greet("ada") }} {{ "x"|engine_test_suffix }}`,
	}), pongo.WithExtension(testExtension{suffix: "-1"}))

	out, err := engine.RenderTemplate("ext", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello ada x-1", out)

	// Extending again replaces process-wide filters.
	require.NoError(t, engine.Extend(testExtension{suffix: "-2"}))
	out, err = engine.RenderString(`{{ "x"|engine_test_suffix }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "x-2", out)
}

func TestEngine_Render(t *testing.T) {
	engine := newEngine(t, testsupport.TemplateTree(t, map[string]string{
		"hello.twig": "Hello {{ name }}",
	}))

	out, err := engine.Render("hello", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", out)

	out, err = engine.Render("Hi {{ name }}", map[string]any{"name": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Bob", out)
}

func TestEngine_StructData(t *testing.T) {
	type article struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	engine := newEngine(t, testsupport.TemplateTree(t, map[string]string{
		"article.twig": "{{ title }}:{{ tags|join:\",\" }}",
	}))

	out, err := engine.RenderTemplate("article", article{Title: "Go", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "Go:a,b", out)
}

func TestEngine_CacheFollowsActiveTheme(t *testing.T) {
	root := testsupport.TemplateTree(t, map[string]string{
		"light/page.twig": "light",
		"dark/page.twig":  "dark",
	})
	host := &dirHost{local: filepath.Join(root, "light")}
	engine, err := pongo.New(pongo.WithLocator(locator.New(host)))
	require.NoError(t, err)

	out, err := engine.RenderTemplate("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "light", out)

	host.local = filepath.Join(root, "dark")
	out, err = engine.RenderTemplate("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "dark", out)
}

func TestEngine_CacheAndClear(t *testing.T) {
	root := testsupport.TemplateTree(t, map[string]string{"page.twig": "v1"})
	engine := newEngine(t, root)

	out, err := engine.RenderTemplate("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	testsupport.WriteTemplates(t, root, map[string]string{"page.twig": "v2"})
	out, err = engine.RenderTemplate("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	engine.ClearCache()
	out, err = engine.RenderTemplate("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", out)
}

func TestEngine_WithoutCache(t *testing.T) {
	root := testsupport.TemplateTree(t, map[string]string{"page.twig": "v1"})
	engine := newEngine(t, root, pongo.WithoutCache())

	_, err := engine.RenderTemplate("page", nil)
	require.NoError(t, err)

	testsupport.WriteTemplates(t, root, map[string]string{"page.twig": "v2"})
	out, err := engine.RenderTemplate("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", out)
}

func TestEngine_FS(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/home.twig": {Data: []byte(`{% include "@mail/footer" %}home`)},
		"mail/footer.twig":    {Data: []byte("footer|")},
	}
	loc := locator.New(&dirHost{local: "templates"}, locator.WithFS(fsys))
	loc.RegisterNamespace("mail", "mail")

	engine, err := pongo.New(pongo.WithLocator(loc), pongo.WithFS(fsys))
	require.NoError(t, err)

	out, err := engine.RenderTemplate("home", nil)
	require.NoError(t, err)
	assert.Equal(t, "footer|home", out)
}
