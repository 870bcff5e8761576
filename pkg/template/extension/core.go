// Package extension provides the core template filters and functions:
// text shortening, locale formatting, URL builders, translation and page
// metadata.
package extension

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-infernum/pkg/i18n"
	"github.com/goliatone/go-infernum/pkg/template"
	"github.com/goliatone/go-infernum/pkg/urls"
	"github.com/goliatone/go-infernum/pkg/view"
)

// Name identifies the core extension.
const Name = "infernum_core"

const (
	// DefaultShortenLength is the shorten limit when no length is given.
	DefaultShortenLength = 50
	// Ellipsis is appended to shortened text.
	Ellipsis = "…"
	// DefaultCurrency is used by lformat_money without an argument.
	DefaultCurrency = "USD"
)

// ErrUnsupportedValue is returned by formatting filters for inputs they
// cannot interpret.
var ErrUnsupportedValue = errors.New("extension: unsupported value")

// Config collects the services the core extension renders with. Nil
// services fall back to defaults.
type Config struct {
	URLs       *urls.Builder
	Translator *i18n.Translator
	Formatter  *i18n.Formatter
	Locale     string
	Currency   string
	Sanitizer  *bluemonday.Policy
}

// Core is the infernum_core template extension.
type Core struct {
	urls       *urls.Builder
	translator *i18n.Translator
	formatter  *i18n.Formatter
	locale     string
	currency   string
	sanitizer  *bluemonday.Policy
}

var _ template.Extension = (*Core)(nil)

// New builds the core extension.
func New(cfg Config) *Core {
	c := &Core{
		urls:       cfg.URLs,
		translator: cfg.Translator,
		formatter:  cfg.Formatter,
		locale:     strings.TrimSpace(cfg.Locale),
		currency:   strings.TrimSpace(cfg.Currency),
		sanitizer:  cfg.Sanitizer,
	}
	if c.urls == nil {
		c.urls = urls.New("", false)
	}
	if c.translator == nil {
		c.translator = i18n.NewTranslator(nil)
	}
	if c.formatter == nil {
		c.formatter = i18n.NewFormatter()
	}
	if c.locale == "" {
		c.locale = i18n.BaseLocale
	}
	if c.currency == "" {
		c.currency = DefaultCurrency
	}
	if c.sanitizer == nil {
		c.sanitizer = bluemonday.StrictPolicy()
	}
	return c
}

// Name implements template.Extension.
func (c *Core) Name() string { return Name }

// Locale returns the locale used by filters and the default t function.
func (c *Core) Locale() string { return c.locale }

// Filters implements template.Extension.
func (c *Core) Filters() map[string]func(input any, param any) (any, error) {
	return map[string]func(any, any) (any, error){
		"shorten":        c.shorten,
		"lformat_number": c.formatNumber,
		"lformat_money":  c.formatMoney,
		"lformat_time":   c.formatTime,
		"lformat_date":   c.formatDate,
	}
}

// Functions implements template.Extension. page_title and head_tags render
// empty until RequestFunctions binds them to a page.
func (c *Core) Functions() map[string]any {
	return map[string]any{
		"u": func(path string, query ...any) string {
			return c.urls.URL(path, urls.Query(query...))
		},
		"page": func(page string, query ...any) string {
			return c.urls.PageURL(page, urls.Query(query...))
		},
		"theme": func(file string) string {
			return c.urls.ThemeFileURL(file)
		},
		"t":          c.translate(c.locale),
		"page_title": func() string { return "" },
		"head_tags":  func() string { return "" },
	}
}

// RequestFunctions returns the functions bound to one response. They are
// meant to be merged into the render data, where they shadow the globals.
func (c *Core) RequestFunctions(page *view.Page, locale string) map[string]any {
	if strings.TrimSpace(locale) == "" {
		locale = c.locale
	}
	funcs := map[string]any{
		"t": c.translate(locale),
	}
	if page != nil {
		funcs["page_title"] = page.Title
		funcs["head_tags"] = page.HeadTags
	}
	return funcs
}

func (c *Core) translate(locale string) func(key string, vars ...any) string {
	return func(key string, vars ...any) string {
		return c.translator.Translate(locale, key, pairs(vars))
	}
}

func (c *Core) shorten(input any, param any) (any, error) {
	limit := DefaultShortenLength
	if param != nil {
		n, err := toInt(param)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			limit = n
		}
	}

	text := html.UnescapeString(c.sanitizer.Sanitize(toString(input)))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= limit {
		return text, nil
	}

	cut := string([]rune(text)[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + Ellipsis, nil
}

func (c *Core) formatNumber(input any, param any) (any, error) {
	n, err := toFloat(input)
	if err != nil {
		return nil, err
	}
	decimals := 0
	if param != nil {
		if decimals, err = toInt(param); err != nil {
			return nil, err
		}
	}
	return c.formatter.Number(c.locale, n, decimals), nil
}

func (c *Core) formatMoney(input any, param any) (any, error) {
	n, err := toFloat(input)
	if err != nil {
		return nil, err
	}
	code := c.currency
	if s, ok := param.(string); ok && strings.TrimSpace(s) != "" {
		code = s
	}
	return c.formatter.Money(c.locale, n, code)
}

func (c *Core) formatTime(input any, _ any) (any, error) {
	t, err := toTime(input)
	if err != nil {
		return nil, err
	}
	return c.formatter.Time(c.locale, t), nil
}

func (c *Core) formatDate(input any, _ any) (any, error) {
	t, err := toTime(input)
	if err != nil {
		return nil, err
	}
	return c.formatter.Date(c.locale, t), nil
}

func pairs(values []any) map[string]any {
	if len(values) < 2 {
		return nil
	}
	out := make(map[string]any, len(values)/2)
	for i := 0; i+1 < len(values); i += 2 {
		if key, ok := values[i].(string); ok && key != "" {
			out[key] = values[i+1]
		}
	}
	return out
}

func unsupported(kind string, v any) error {
	return fmt.Errorf("%w: %s from %T", ErrUnsupportedValue, kind, v)
}

