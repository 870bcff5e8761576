package pongo

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
	json "github.com/goccy/go-json"

	"github.com/goliatone/go-infernum/pkg/logger"
	"github.com/goliatone/go-infernum/pkg/template"
	"github.com/goliatone/go-infernum/pkg/template/locator"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	locator    *locator.Locator
	files      fs.FS
	templateFn map[string]any
	globalData map[string]any
	extensions []template.Extension
	noCache    bool
	logger     logger.Logger
}

// WithLocator sets the locator every template name is resolved through.
// Required.
func WithLocator(loc *locator.Locator) Option {
	return func(cfg *config) {
		cfg.locator = loc
	}
}

// WithFS reads resolved templates from files instead of the OS filesystem.
// Pair it with a locator built with locator.WithFS on the same filesystem.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.files = files
	}
}

// WithTemplateFunc registers helper functions or filters when the engine loads.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithExtension installs the filters and functions of ext.
func WithExtension(ext template.Extension) Option {
	return func(cfg *config) {
		if ext != nil {
			cfg.extensions = append(cfg.extensions, ext)
		}
	}
}

// WithoutCache parses templates on every render. Useful while editing
// templates, and when a global template includes local ones whose directory
// changes with the active theme.
func WithoutCache() Option {
	return func(cfg *config) {
		cfg.noCache = true
	}
}

// WithLogger sets the engine logger.
func WithLogger(lggr logger.Logger) Option {
	return func(cfg *config) {
		if lggr != nil {
			cfg.logger = lggr
		}
	}
}

// Engine renders pongo2 (Django/Twig syntax) templates located through a
// locator.Locator.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	loader      *Loader
	locator     *locator.Locator
	templates   map[string]*pongo2.Template
	noCache     bool
	logger      logger.Logger
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine using the provided options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{logger: logger.Nop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	if cfg.locator == nil {
		return nil, errors.New("pongo: a template locator is required")
	}

	loader := NewLoader(cfg.locator, cfg.files)
	engine := &Engine{
		templateSet: pongo2.NewSet("infernum", loader),
		loader:      loader,
		locator:     cfg.locator,
		templates:   make(map[string]*pongo2.Template),
		noCache:     cfg.noCache,
		logger:      cfg.logger,
	}

	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("pongo: apply global data: %w", err)
	}
	for name, fn := range cfg.templateFn {
		if err := engine.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("pongo: register template func %q: %w", name, err)
		}
	}
	for _, ext := range cfg.extensions {
		if err := engine.Extend(ext); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

// Locator returns the locator backing the engine.
func (e *Engine) Locator() *locator.Locator {
	return e.locator
}

// Render renders name as a template reference, or as inline template source
// when it contains template tags.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if isTemplateContent(name) {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate locates and renders the template referenced by name.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", err
	}

	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("pongo: convert data: %w", err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("pongo: execute template %q: %w", name, e.loaderCause(err))
	}

	return write(buf.String(), out)
}

// RenderString renders inline template source.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("pongo: engine is nil")
	}

	tmpl, err := e.templateSet.FromString(templateContent)
	if err != nil {
		return "", fmt.Errorf("pongo: parse template string: %w", e.loaderCause(err))
	}

	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("pongo: convert data: %w", err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("pongo: execute template string: %w", e.loaderCause(err))
	}

	return write(buf.String(), out)
}

// RegisterFilter registers a filter. pongo2 keeps filters process-wide, so a
// name can only be registered once.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("pongo: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("pongo: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, adaptFilter(name, fn))
}

// Extend installs the filters and functions of ext. Filters already
// registered under the same name are replaced.
func (e *Engine) Extend(ext template.Extension) error {
	if ext == nil {
		return nil
	}
	for name, fn := range ext.Filters() {
		if fn == nil {
			continue
		}
		var err error
		if pongo2.FilterExists(name) {
			err = pongo2.ReplaceFilter(name, adaptFilter(name, fn))
		} else {
			err = pongo2.RegisterFilter(name, adaptFilter(name, fn))
		}
		if err != nil {
			return fmt.Errorf("pongo: extension %s: filter %q: %w", ext.Name(), name, err)
		}
	}
	for name, fn := range ext.Functions() {
		if err := e.registerTemplateFunc(name, fn); err != nil {
			return fmt.Errorf("pongo: extension %s: function %q: %w", ext.Name(), name, err)
		}
	}
	e.logger.Debugw("extension installed", "extension", ext.Name())
	return nil
}

// GlobalContext merges data into the values visible to every template.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("pongo: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

// ClearCache drops every parsed template.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.templates = make(map[string]*pongo2.Template)
	e.mu.Unlock()
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	}

	if !isCallable(fn) {
		return fmt.Errorf("value of type %T is not callable", fn)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals[trimmed] = fn
	return nil
}

// getTemplate resolves name first so callers get the typed locator error,
// then parses it. Parsed templates are cached by resolved path because the
// local template directory follows the active theme.
func (e *Engine) getTemplate(name string) (*pongo2.Template, error) {
	resolved, err := e.locator.Locate(name)
	if err != nil {
		return nil, fmt.Errorf("pongo: locate template %q: %w", name, err)
	}

	if !e.noCache {
		e.mu.RLock()
		tmpl, ok := e.templates[resolved]
		e.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[resolved]; ok && !e.noCache {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("pongo: load template %q: %w", name, e.loaderCause(err))
	}
	if !e.noCache {
		e.templates[resolved] = tmpl
	}
	e.logger.Debugw("template parsed", "reference", name, "path", resolved)
	return tmpl, nil
}

// loaderCause swaps pongo2's generic "unable to resolve template" error for
// the locator or read error the loader recorded for the same file.
func (e *Engine) loaderCause(err error) error {
	var perr *pongo2.Error
	if !errors.As(err, &perr) || perr.Filename == "" {
		return err
	}
	if cause := e.loader.takeFailure(perr.Filename); cause != nil {
		return fmt.Errorf("%s: %w", perr.Error(), cause)
	}
	return err
}

func write(rendered string, out []io.Writer) (string, error) {
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func adaptFilter(name string, fn func(input any, param any) (any, error)) pongo2.FilterFunction {
	sender := "filter:" + name
	return func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: sender, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}
}

func isTemplateContent(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

// convertToContext turns render data into a pongo2.Context. Structs are
// flattened through JSON so templates address fields by their json names;
// functions pass through untouched.
func convertToContext(data any) (pongo2.Context, error) {
	var in map[string]any
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		in = v
	case map[string]any:
		in = v
	default:
		raw, err := viaJSON(v)
		if err != nil {
			return nil, err
		}
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pongo: render data of type %T is not an object", data)
		}
		in = m
	}

	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertValue(value any) (any, error) {
	if value == nil || isCallable(value) {
		return value, nil
	}

	switch v := value.(type) {
	case string, bool, int, int64, float64, time.Time:
		return v, nil
	case pongo2.Context:
		return convertMap(v)
	case map[string]any:
		return convertMap(v)
	case []any:
		return convertSlice(v)
	}

	raw, err := viaJSON(value)
	if err != nil {
		return nil, err
	}
	switch decoded := raw.(type) {
	case map[string]any:
		return convertMap(decoded)
	case []any:
		return convertSlice(decoded)
	default:
		return decoded, nil
	}
}

func convertMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertSlice(in []any) ([]any, error) {
	out := make([]any, 0, len(in))
	for _, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func viaJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
