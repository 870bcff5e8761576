// Package setup implements the interactive init wizard that produces a
// configuration file.
package setup

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-infernum/pkg/config"
	"github.com/goliatone/go-infernum/pkg/logger"
)

// NoDatabase is the driver option that leaves the database unconfigured.
const NoDatabase = "none"

// Option configures a Wizard.
type Option func(*Wizard)

// WithDriver sets the prompt driver. Defaults to survey on the terminal.
func WithDriver(d PromptDriver) Option {
	return func(w *Wizard) {
		if d != nil {
			w.driver = d
		}
	}
}

// WithBase sets the configuration whose values become prompt defaults.
func WithBase(cfg *config.Config) Option {
	return func(w *Wizard) {
		if cfg != nil {
			w.base = cfg
		}
	}
}

// WithThemes offers the given theme names instead of a free text prompt.
func WithThemes(names ...string) Option {
	return func(w *Wizard) { w.themes = append([]string(nil), names...) }
}

// WithDatabaseDrivers sets the selectable database drivers.
func WithDatabaseDrivers(names ...string) Option {
	return func(w *Wizard) { w.databases = append([]string(nil), names...) }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Wizard) {
		if l != nil {
			w.logger = l
		}
	}
}

// Wizard asks for the settings a new site needs.
type Wizard struct {
	driver    PromptDriver
	base      *config.Config
	themes    []string
	databases []string
	logger    logger.Logger
}

// New builds a Wizard.
func New(opts ...Option) *Wizard {
	w := &Wizard{logger: logger.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if w.driver == nil {
		w.driver = NewSurveyDriver()
	}
	if w.base == nil {
		w.base = config.Default()
	}
	return w
}

// Run asks every question and returns the resulting configuration. The
// base configuration is not modified.
func (w *Wizard) Run(ctx context.Context) (*config.Config, error) {
	cfg := *w.base
	cfg.Namespaces = cloneMap(w.base.Namespaces)

	if err := w.driver.Info(ctx, "Configure a new Infernum site."); err != nil {
		return nil, err
	}

	var err error
	if cfg.Core.SiteName, err = w.driver.Input(ctx, InputConfig{
		Message:   "Site name",
		Default:   cfg.Core.SiteName,
		Validator: required("site name"),
	}); err != nil {
		return nil, err
	}
	if cfg.Core.URL, err = w.driver.Input(ctx, InputConfig{
		Message:   "Site URL",
		Default:   cfg.Core.URL,
		Help:      "Absolute URL the site is served from, e.g. https://example.com",
		Validator: absoluteURL,
	}); err != nil {
		return nil, err
	}
	if cfg.Core.URLRewrite, err = w.driver.Confirm(ctx, ConfirmConfig{
		Message: "Use rewritten page URLs (/blog/post instead of /?p=blog/post)?",
		Default: cfg.Core.URLRewrite,
	}); err != nil {
		return nil, err
	}
	if cfg.Core.TemplatePath, err = w.driver.Input(ctx, InputConfig{
		Message:   "Template directory",
		Default:   cfg.Core.TemplatePath,
		Validator: required("template directory"),
	}); err != nil {
		return nil, err
	}
	if cfg.Core.Theme, err = w.askTheme(ctx, cfg.Core.Theme); err != nil {
		return nil, err
	}
	if err := w.askDatabase(ctx, &cfg.Database); err != nil {
		return nil, err
	}

	cfg.Core.SiteName = strings.TrimSpace(cfg.Core.SiteName)
	cfg.Core.URL = strings.TrimRight(strings.TrimSpace(cfg.Core.URL), "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w.logger.Debugw("setup complete", "site", cfg.Core.SiteName, "theme", cfg.Core.Theme, "driver", cfg.Database.Driver)
	return &cfg, nil
}

func (w *Wizard) askTheme(ctx context.Context, current string) (string, error) {
	if len(w.themes) == 0 {
		return w.driver.Input(ctx, InputConfig{
			Message: "Theme (leave empty for none)",
			Default: current,
		})
	}
	idx, err := w.driver.Select(ctx, SelectConfig{
		Message:      "Theme",
		Options:      w.themes,
		DefaultIndex: indexOf(w.themes, current),
	})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(w.themes) {
		return current, nil
	}
	return w.themes[idx], nil
}

func (w *Wizard) askDatabase(ctx context.Context, db *config.DatabaseConfig) error {
	if len(w.databases) == 0 {
		return nil
	}
	options := append([]string{NoDatabase}, w.databases...)
	defaultIndex := indexOf(options, db.Driver)
	if defaultIndex < 0 {
		defaultIndex = 0
	}

	idx, err := w.driver.Select(ctx, SelectConfig{
		Message:      "Database driver",
		Options:      options,
		DefaultIndex: defaultIndex,
	})
	if err != nil {
		return err
	}
	if idx <= 0 || idx >= len(options) {
		*db = config.DatabaseConfig{}
		return nil
	}
	db.Driver = options[idx]

	if db.DSN, err = w.driver.Password(ctx, InputConfig{
		Message:   "Database DSN",
		Default:   db.DSN,
		Help:      "Connection string or file path for " + db.Driver,
		Validator: required("dsn"),
	}); err != nil {
		return err
	}
	db.Prefix, err = w.driver.Input(ctx, InputConfig{
		Message: "Table prefix",
		Default: db.Prefix,
	})
	return err
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func absoluteURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", s)
	}
	return nil
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
