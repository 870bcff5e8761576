package i18n_test

import (
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-infernum/pkg/i18n"
)

func loadTestdata(t *testing.T) *i18n.Bundle {
	t.Helper()
	bundle, err := i18n.LoadFS(os.DirFS("testdata"))
	require.NoError(t, err)
	return bundle
}

func TestLoadFS(t *testing.T) {
	bundle := loadTestdata(t)
	assert.Equal(t, []string{"de-DE", "en-US"}, bundle.Locales())
	assert.True(t, bundle.HasLocale("de-DE"))
	assert.False(t, bundle.HasLocale("fr-FR"))
}

func TestLoadDir(t *testing.T) {
	bundle, err := i18n.LoadDir(os.DirFS("testdata/locales"))
	require.NoError(t, err)
	assert.Equal(t, []string{"de-DE", "en-US"}, bundle.Locales())

	_, err = i18n.LoadDir(os.DirFS("testdata"))
	assert.ErrorIs(t, err, i18n.ErrNoCatalogs)
}

func TestLoadFS_Errors(t *testing.T) {
	_, err := i18n.LoadFS(fstest.MapFS{})
	assert.ErrorIs(t, err, i18n.ErrNoCatalogs)

	_, err = i18n.LoadFS(fstest.MapFS{
		"locales/en-US/core.yaml": {Data: []byte("locale: de-DE\nnamespace: core\nmessages:\n  a: b\n")},
	})
	assert.ErrorIs(t, err, i18n.ErrInvalidCatalog)

	_, err = i18n.LoadFS(fstest.MapFS{
		"locales/en-US/core.yaml": {Data: []byte("locale: en-US\nnamespace: blog\nmessages:\n  a: b\n")},
	})
	assert.ErrorIs(t, err, i18n.ErrInvalidCatalog)

	_, err = i18n.LoadFS(fstest.MapFS{
		"locales/en-US/core.yaml": {Data: []byte("locale: [")},
	})
	assert.ErrorIs(t, err, i18n.ErrInvalidCatalog)
}

func TestBundle_AddRejectsDuplicateNamespace(t *testing.T) {
	bundle := i18n.NewBundle()
	require.NoError(t, bundle.Add("en-US", "core", map[string]string{"a": "b"}))
	assert.ErrorIs(t, bundle.Add("en-US", "core", map[string]string{"c": "d"}), i18n.ErrInvalidCatalog)
	assert.ErrorIs(t, bundle.Add("en-US", "x", map[string]string{" ": "d"}), i18n.ErrInvalidCatalog)
}

func TestTranslator_Translate(t *testing.T) {
	tr := i18n.NewTranslator(loadTestdata(t))

	tests := []struct {
		name   string
		locale string
		key    string
		vars   map[string]any
		want   string
	}{
		{name: "namespaced", locale: "en-US", key: "core.greeting", vars: map[string]any{"name": "Ada"}, want: "Hello, Ada!"},
		{name: "bare key searches namespaces in order", locale: "en-US", key: "greeting", want: "Welcome to the blog"},
		{name: "other locale", locale: "de-DE", key: "core.greeting", vars: map[string]any{"name": "Ada"}, want: "Hallo, Ada!"},
		{name: "falls back to base locale", locale: "de-DE", key: "core.only_english", want: "Only in English"},
		{name: "unknown locale", locale: "fr-FR", key: "blog.title", want: "Blog"},
		{name: "missing key", locale: "en-US", key: "core.nope", want: "core.nope"},
		{name: "unused placeholder stays", locale: "en-US", key: "core.greeting", want: "Hello, {name}!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Translate(tt.locale, tt.key, tt.vars))
		})
	}
}

func TestTranslator_NilBundle(t *testing.T) {
	tr := i18n.NewTranslator(nil)
	assert.Equal(t, "x {n}", tr.Translate("en-US", "x {n}", nil))
	assert.Equal(t, "x 3", tr.Translate("en-US", "x {n}", map[string]any{"n": 3}))
}

func TestFormatter_Number(t *testing.T) {
	f := i18n.NewFormatter()
	assert.Equal(t, "1,234.50", f.Number("en-US", 1234.5, 2))
	assert.Equal(t, "1.234,50", f.Number("de-DE", 1234.5, 2))
	assert.Equal(t, "1,235", f.Number("en-US", 1234.6, 0))
	assert.Equal(t, "7", f.Number("not a locale", 7, -1))
}

func TestFormatter_Money(t *testing.T) {
	f := i18n.NewFormatter()

	out, err := f.Money("en-US", 12.5, "USD")
	require.NoError(t, err)
	assert.Equal(t, "$ 12.50", out)

	_, err = f.Money("en-US", 1, "NOPE")
	assert.Error(t, err)
}

func TestFormatter_DateTime(t *testing.T) {
	when := time.Date(2024, time.March, 9, 14, 5, 0, 0, time.UTC)
	f := i18n.NewFormatter(i18n.WithLayouts("nl-NL", i18n.Layouts{Date: "2-1-2006", Time: "15.04"}))

	assert.Equal(t, "03/09/2024", f.Date("en-US", when))
	assert.Equal(t, "2:05 PM", f.Time("en-US", when))
	assert.Equal(t, "09.03.2024", f.Date("de-DE", when))
	assert.Equal(t, "9-3-2024", f.Date("nl-NL", when))
	assert.Equal(t, "14.05", f.Time("nl-NL", when))
	assert.Equal(t, "2024-03-09", f.Date("xx", when))

	tokyo := time.FixedZone("JST", 9*60*60)
	f = i18n.NewFormatter(i18n.WithLocation(tokyo))
	assert.Equal(t, "23:05", f.Time("de-DE", when))
}
