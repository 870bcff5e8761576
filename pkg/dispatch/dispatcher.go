// Package dispatch routes requests to modules by page path and renders
// their responses.
package dispatch

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-infernum/pkg/i18n"
	"github.com/goliatone/go-infernum/pkg/logger"
	"github.com/goliatone/go-infernum/pkg/template"
	"github.com/goliatone/go-infernum/pkg/template/locator"
	"github.com/goliatone/go-infernum/pkg/urls"
	"github.com/goliatone/go-infernum/pkg/view"
)

// PathParam is the query parameter that carries the page path.
const PathParam = "p"

// RequestFuncs returns template functions bound to one response.
type RequestFuncs func(page *view.Page, locale string) map[string]any

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRegistry sets the module registry.
func WithRegistry(r *Registry) Option {
	return func(d *Dispatcher) { d.registry = r }
}

// WithRenderer sets the template engine. Required.
func WithRenderer(r template.TemplateRenderer) Option {
	return func(d *Dispatcher) { d.renderer = r }
}

// WithRequestFuncs sets the per-response template functions.
func WithRequestFuncs(fn RequestFuncs) Option {
	return func(d *Dispatcher) { d.requestFuncs = fn }
}

// WithURLs sets the URL builder used for redirects.
func WithURLs(b *urls.Builder) Option {
	return func(d *Dispatcher) { d.urls = b }
}

// WithSiteName sets the last title part of every page.
func WithSiteName(name string) Option {
	return func(d *Dispatcher) { d.siteName = name }
}

// WithDefaultModule sets the module for the empty path.
func WithDefaultModule(name string) Option {
	return func(d *Dispatcher) {
		if strings.TrimSpace(name) != "" {
			d.defaultModule = strings.TrimSpace(name)
		}
	}
}

// WithLocales sets the locales negotiated per request.
func WithLocales(supported []string, fallback string) Option {
	return func(d *Dispatcher) {
		d.locales = append([]string(nil), supported...)
		if strings.TrimSpace(fallback) != "" {
			d.fallbackLocale = fallback
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispatcher is the front controller: it resolves the module from the
// page path and calls it with a fresh Context.
type Dispatcher struct {
	registry       *Registry
	renderer       template.TemplateRenderer
	requestFuncs   RequestFuncs
	urls           *urls.Builder
	siteName       string
	defaultModule  string
	locales        []string
	fallbackLocale string
	logger         logger.Logger
}

var _ http.Handler = (*Dispatcher)(nil)

// New builds a Dispatcher.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		defaultModule:  "home",
		fallbackLocale: i18n.BaseLocale,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.renderer == nil {
		return nil, fmt.Errorf("dispatch: renderer is required")
	}
	if d.registry == nil {
		d.registry = NewRegistry()
	}
	if d.urls == nil {
		d.urls = urls.New("", false)
	}
	return d, nil
}

// Registry returns the module registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Path
	if q := r.URL.Query(); q.Has(PathParam) {
		raw = q.Get(PathParam)
	}
	path := ParsePath(raw, d.defaultModule)

	ctx := &Context{
		Request:    r,
		Response:   w,
		Path:       path,
		Page:       view.NewPage(d.siteName),
		Locale:     i18n.ResolveLocale(r, d.locales, d.fallbackLocale),
		dispatcher: d,
	}

	module, ok := d.registry.Get(path.Module)
	if !ok {
		d.logger.Debugw("module not found", "module", path.Module, "path", path.Raw)
		d.fail(ctx, d.respondNotFound(ctx))
		return
	}

	d.logger.Debugw("dispatch", "module", path.Module, "args", path.Args, "locale", ctx.Locale)
	if err := module.Handle(ctx); err != nil {
		if errors.Is(err, ErrNotFound) && !ctx.written {
			d.fail(ctx, d.respondNotFound(ctx))
			return
		}
		d.fail(ctx, err)
	}
}

func (d *Dispatcher) respondNotFound(ctx *Context) error {
	ctx.Page.SetTitle("Not Found")
	return ctx.NotFound()
}

// fail logs err and, when nothing has been written yet, answers 500.
func (d *Dispatcher) fail(ctx *Context, err error) {
	if err == nil {
		return
	}
	fields := []any{"module", ctx.Path.Module, "path", ctx.Path.Raw, "error", err}
	switch {
	case errors.Is(err, locator.ErrNotFound), errors.Is(err, locator.ErrBadName):
		d.logger.Errorw("template error", fields...)
	default:
		d.logger.Errorw("request failed", fields...)
	}
	if !ctx.written {
		http.Error(ctx.Response, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		ctx.written = true
	}
}

func (d *Dispatcher) requestData(ctx *Context) map[string]any {
	data := map[string]any{
		"locale": ctx.Locale,
		"module": ctx.Path.Module,
		"args":   ctx.Path.Args,
	}
	if d.requestFuncs != nil {
		for name, fn := range d.requestFuncs(ctx.Page, ctx.Locale) {
			data[name] = fn
		}
	}
	return data
}

func (d *Dispatcher) pageURL(page string, query url.Values) string {
	return d.urls.PageURL(page, query)
}
