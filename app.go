// Package infernum assembles the framework: configuration, themes, the
// template locator and engine, localization, the database connection and
// the module dispatcher.
package infernum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-infernum/pkg/config"
	"github.com/goliatone/go-infernum/pkg/database"
	"github.com/goliatone/go-infernum/pkg/dispatch"
	"github.com/goliatone/go-infernum/pkg/i18n"
	"github.com/goliatone/go-infernum/pkg/logger"
	"github.com/goliatone/go-infernum/pkg/template/extension"
	"github.com/goliatone/go-infernum/pkg/template/locator"
	"github.com/goliatone/go-infernum/pkg/template/pongo"
	"github.com/goliatone/go-infernum/pkg/theme"
	"github.com/goliatone/go-infernum/pkg/urls"
)

const (
	// ThemesRoute serves static theme files.
	ThemesRoute = "/themes/"
	// ShutdownGrace bounds the time Serve waits for open requests.
	ShutdownGrace = 5 * time.Second
)

// Option configures an Application.
type Option func(*Application)

// WithLogger sets the logger. Defaults to one built from the log level.
func WithLogger(l logger.Logger) Option {
	return func(a *Application) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithThemes registers manifests in addition to those found in the themes
// directory.
func WithThemes(manifests ...*gotheme.Manifest) Option {
	return func(a *Application) {
		a.manifests = append(a.manifests, manifests...)
	}
}

// WithDatabaseRegistry replaces the default driver registry.
func WithDatabaseRegistry(r *database.Registry) Option {
	return func(a *Application) {
		if r != nil {
			a.databases = r
		}
	}
}

// WithModule registers a module with the dispatcher.
func WithModule(name string, m dispatch.Module) Option {
	return func(a *Application) {
		a.modules = append(a.modules, namedModule{name: name, module: m})
	}
}

type namedModule struct {
	name   string
	module dispatch.Module
}

// Application owns the configured services of one site.
type Application struct {
	cfg        *config.Config
	logger     logger.Logger
	manifests  []*gotheme.Manifest
	modules    []namedModule
	catalog    *theme.Catalog
	host       *theme.Host
	locator    *locator.Locator
	bundle     *i18n.Bundle
	urls       *urls.Builder
	core       *extension.Core
	engine     *pongo.Engine
	databases  *database.Registry
	db         *database.Connection
	dispatcher *dispatch.Dispatcher
}

// New wires an Application from cfg. A nil cfg uses config.Default. The
// database is opened only when a driver is configured.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.logger == nil {
		lggr, err := newLogger(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		a.logger = lggr
	}
	if a.databases == nil {
		a.databases = database.DefaultRegistry()
	}

	steps := []func(context.Context) error{
		a.setupThemes,
		a.setupLocator,
		a.setupLocales,
		a.setupEngine,
		a.setupDatabase,
		a.setupDispatcher,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.logger.Infow("application ready",
		"site", cfg.Core.SiteName,
		"theme", cfg.Core.Theme,
		"modules", a.dispatcher.Registry().List(),
	)
	return a, nil
}

func newLogger(level string) (logger.Logger, error) {
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logger.Config{Level: lvl}.New()
}

func (a *Application) setupThemes(context.Context) error {
	core := a.cfg.Core
	a.catalog = theme.NewCatalog(core.Theme, core.ThemeVariant)

	if dir := strings.TrimSpace(core.ThemesDir); dir != "" && isDir(dir) {
		if err := a.catalog.LoadFS(os.DirFS(dir)); err != nil {
			return err
		}
	}
	for _, m := range a.manifests {
		if err := a.catalog.Register(m); err != nil {
			return err
		}
	}

	a.host = theme.NewHost(core.TemplatePath, core.ThemesDir, a.catalog)
	if strings.TrimSpace(core.Theme) == "" {
		return nil
	}
	if _, err := a.host.Activate(core.Theme, core.ThemeVariant); err != nil {
		return fmt.Errorf("infernum: activate theme: %w", err)
	}
	return nil
}

func (a *Application) setupLocator(context.Context) error {
	a.locator = locator.New(a.host,
		locator.WithExtension(a.cfg.Core.TemplateExtension),
		locator.WithLogger(a.logger.Named("locator")),
	)
	for _, name := range a.cfg.NamespaceNames() {
		a.locator.RegisterNamespace(name, a.cfg.Namespaces[name])
	}
	return nil
}

func (a *Application) setupLocales(context.Context) error {
	dir := strings.TrimSpace(a.cfg.Core.LocalesDir)
	if dir == "" {
		a.bundle = i18n.NewBundle()
		return nil
	}
	bundle, err := i18n.LoadDir(os.DirFS(dir))
	switch {
	case errors.Is(err, i18n.ErrNoCatalogs):
		a.logger.Warnw("no message catalogs found", "dir", dir)
		a.bundle = i18n.NewBundle()
	case err != nil:
		return err
	default:
		a.bundle = bundle
	}
	return nil
}

func (a *Application) setupEngine(context.Context) error {
	a.urls = urls.New(a.cfg.Core.URL, a.cfg.Core.URLRewrite, urls.WithThemeAssets(a.host.AssetURL))
	a.core = extension.New(extension.Config{
		URLs:       a.urls,
		Translator: i18n.NewTranslator(a.bundle),
		Formatter:  i18n.NewFormatter(),
		Locale:     a.cfg.Core.Locale,
	})

	engine, err := pongo.New(
		pongo.WithLocator(a.locator),
		pongo.WithExtension(a.core),
		pongo.WithGlobalData(a.globalData()),
		pongo.WithLogger(a.logger.Named("pongo")),
	)
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

func (a *Application) globalData() map[string]any {
	data := map[string]any{
		"site_name": a.cfg.Core.SiteName,
		"site_url":  a.urls.SiteURL(),
	}
	if rc := a.host.RendererConfig(); rc != nil {
		data["theme_config"] = map[string]any{
			"name":     rc.Theme,
			"variant":  rc.Variant,
			"tokens":   rc.Tokens,
			"css_vars": rc.CSSVars,
			"partials": rc.Partials,
		}
	}
	return data
}

func (a *Application) setupDatabase(ctx context.Context) error {
	db := a.cfg.Database
	if strings.TrimSpace(db.Driver) == "" {
		return nil
	}
	conn, err := a.databases.Open(ctx, db.Driver, database.Options{DSN: db.DSN, Prefix: db.Prefix})
	if err != nil {
		return err
	}
	a.db = conn
	a.logger.Infow("database connected", "driver", conn.Driver(), "prefix", conn.Prefix())
	return nil
}

func (a *Application) setupDispatcher(context.Context) error {
	d, err := dispatch.New(
		dispatch.WithRenderer(a.engine),
		dispatch.WithRequestFuncs(a.core.RequestFunctions),
		dispatch.WithURLs(a.urls),
		dispatch.WithSiteName(a.cfg.Core.SiteName),
		dispatch.WithDefaultModule(a.cfg.Core.ModulesDefault),
		dispatch.WithLocales(a.bundle.Locales(), a.cfg.Core.Locale),
		dispatch.WithLogger(a.logger.Named("dispatch")),
	)
	if err != nil {
		return err
	}
	for _, m := range a.modules {
		if err := d.Registry().Register(m.name, m.module); err != nil {
			return err
		}
	}
	a.dispatcher = d
	return nil
}

// Config returns the configuration the application was built from.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the application logger.
func (a *Application) Logger() logger.Logger { return a.logger }

// Themes returns the theme catalog.
func (a *Application) Themes() *theme.Catalog { return a.catalog }

// ThemeHost returns the host tracking the active theme.
func (a *Application) ThemeHost() *theme.Host { return a.host }

// Locator returns the template locator.
func (a *Application) Locator() *locator.Locator { return a.locator }

// Engine returns the template engine.
func (a *Application) Engine() *pongo.Engine { return a.engine }

// URLs returns the URL builder.
func (a *Application) URLs() *urls.Builder { return a.urls }

// Messages returns the loaded message catalogs.
func (a *Application) Messages() *i18n.Bundle { return a.bundle }

// Database returns the open connection, if a driver is configured.
func (a *Application) Database() (*database.Connection, bool) {
	return a.db, a.db != nil
}

// Dispatcher returns the front controller.
func (a *Application) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

// RegisterModule adds a module to the dispatcher.
func (a *Application) RegisterModule(name string, m dispatch.Module) error {
	return a.dispatcher.Registry().Register(name, m)
}

// ActivateTheme switches the active theme and drops templates cached from
// the previous one.
func (a *Application) ActivateTheme(name, variant string) error {
	if _, err := a.host.Activate(name, variant); err != nil {
		return err
	}
	a.engine.ClearCache()
	return a.engine.GlobalContext(a.globalData())
}

// Locate resolves a template reference to a file path.
func (a *Application) Locate(reference string) (string, error) {
	return a.locator.Locate(reference)
}

// Render renders a template reference with data.
func (a *Application) Render(reference string, data any, out ...io.Writer) (string, error) {
	return a.engine.RenderTemplate(reference, data, out...)
}

// Handler returns the HTTP handler: theme files below ThemesRoute, every
// other path through the dispatcher.
func (a *Application) Handler() http.Handler {
	mux := http.NewServeMux()
	if dir := strings.TrimSpace(a.cfg.Core.ThemesDir); dir != "" && isDir(dir) {
		mux.Handle(ThemesRoute, http.StripPrefix(ThemesRoute, http.FileServer(themeFiles{http.Dir(dir)})))
	}
	mux.Handle("/", a.dispatcher)
	return mux
}

// Serve listens on the configured address until ctx is done, then shuts
// down gracefully.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Infow("listening", "addr", srv.Addr, "url", a.urls.SiteURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("infernum: shutdown http server: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// themeFiles serves theme assets only. Directory indexes, manifests, dot
// files and anything below a theme's templates directory are reported as
// missing.
type themeFiles struct {
	fs http.FileSystem
}

func (t themeFiles) Open(name string) (http.File, error) {
	if !servableThemeFile(name) {
		return nil, fs.ErrNotExist
	}
	f, err := t.fs.Open(name)
	if err != nil {
		return nil, err
	}
	if info, err := f.Stat(); err == nil && info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

func servableThemeFile(name string) bool {
	segments := strings.Split(strings.Trim(path.Clean("/"+name), "/"), "/")
	if len(segments) < 2 {
		return false
	}
	if segments[1] == theme.TemplatesDir || segments[len(segments)-1] == theme.ManifestFile {
		return false
	}
	for _, seg := range segments {
		if strings.HasPrefix(seg, ".") {
			return false
		}
	}
	return true
}

func isDir(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
