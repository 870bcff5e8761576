// Package config loads the application settings from layered YAML files and
// INFERNUM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-infernum/pkg/logger"
)

var (
	// ErrConfigNotFound is returned when a listed config file does not exist.
	ErrConfigNotFound = errors.New("config: file not found")
	// ErrInvalidConfig is returned when the merged settings fail validation.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

type CoreConfig struct {
	SiteName          string `mapstructure:"site_name" yaml:"site_name"`
	URL               string `mapstructure:"url" yaml:"url"`
	URLRewrite        bool   `mapstructure:"url_rewrite" yaml:"url_rewrite"`
	TemplatePath      string `mapstructure:"template_path" yaml:"template_path"`
	ThemesDir         string `mapstructure:"themes_dir" yaml:"themes_dir"`
	Theme             string `mapstructure:"theme" yaml:"theme"`
	ThemeVariant      string `mapstructure:"theme_variant" yaml:"theme_variant,omitempty"`
	TemplateExtension string `mapstructure:"template_extension" yaml:"template_extension"`
	Locale            string `mapstructure:"locale" yaml:"locale"`
	LocalesDir        string `mapstructure:"locales_dir" yaml:"locales_dir,omitempty"`
	ModulesDefault    string `mapstructure:"modules_default" yaml:"modules_default"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver,omitempty"`
	DSN    string `mapstructure:"dsn" yaml:"dsn,omitempty"` // Secret: may carry credentials
	Prefix string `mapstructure:"prefix" yaml:"prefix,omitempty"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Config is the merged application configuration.
type Config struct {
	Core       CoreConfig        `mapstructure:"core" yaml:"core"`
	Database   DatabaseConfig    `mapstructure:"database" yaml:"database"`
	HTTP       HTTPConfig        `mapstructure:"http" yaml:"http"`
	Log        LogConfig         `mapstructure:"log" yaml:"log"`
	Namespaces map[string]string `mapstructure:"namespaces" yaml:"namespaces,omitempty"`
}

var defaults = map[string]any{
	"core.site_name":          "Infernum",
	"core.url":                "http://localhost:8080",
	"core.url_rewrite":        false,
	"core.template_path":      "templates",
	"core.themes_dir":         "themes",
	"core.theme":              "default",
	"core.template_extension": ".twig",
	"core.locale":             "en-US",
	"core.modules_default":    "home",
	"http.addr":               ":8080",
	"log.level":               "info",
}

var envBindings = map[string][]string{
	"core.site_name":          {"INFERNUM_SITE_NAME"},
	"core.url":                {"INFERNUM_URL", "INFERNUM_SITE_URL"},
	"core.url_rewrite":        {"INFERNUM_URL_REWRITE"},
	"core.template_path":      {"INFERNUM_TEMPLATE_PATH"},
	"core.themes_dir":         {"INFERNUM_THEMES_DIR"},
	"core.theme":              {"INFERNUM_THEME"},
	"core.theme_variant":      {"INFERNUM_THEME_VARIANT"},
	"core.template_extension": {"INFERNUM_TEMPLATE_EXTENSION"},
	"core.locale":             {"INFERNUM_LOCALE"},
	"core.locales_dir":        {"INFERNUM_LOCALES_DIR"},
	"core.modules_default":    {"INFERNUM_MODULES_DEFAULT"},
	"database.driver":         {"INFERNUM_DATABASE_DRIVER"},
	"database.dsn":            {"INFERNUM_DATABASE_DSN", "DATABASE_URL"},
	"database.prefix":         {"INFERNUM_DATABASE_PREFIX"},
	"http.addr":               {"INFERNUM_HTTP_ADDR"},
	"log.level":               {"INFERNUM_LOG_LEVEL"},
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load merges files in order over the defaults, applies environment
// overrides and validates the result. Later files win.
func Load(files ...string) (*Config, error) {
	v := newViper()
	if err := bindEnvs(v); err != nil {
		return nil, fmt.Errorf("config: bind env: %w", err)
	}

	for i, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, file)
		}
		v.SetConfigFile(file)

		var err error
		if i == 0 {
			err = v.ReadInConfig()
		} else {
			err = v.MergeInConfig()
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write stores cfg as YAML at path, creating parent directories.
func Write(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Core.URL) != "" {
		u, err := url.Parse(c.Core.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: core.url %q must be an absolute URL", ErrInvalidConfig, c.Core.URL)
		}
	}
	if strings.TrimSpace(c.Core.TemplateExtension) == "" {
		return fmt.Errorf("%w: core.template_extension is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Core.ModulesDefault) == "" {
		return fmt.Errorf("%w: core.modules_default is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Database.DSN) != "" && strings.TrimSpace(c.Database.Driver) == "" {
		return fmt.Errorf("%w: database.driver is required when a dsn is set", ErrInvalidConfig)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// NamespaceNames returns the configured template namespaces, sorted.
func (c *Config) NamespaceNames() []string {
	names := make([]string, 0, len(c.Namespaces))
	for name := range c.Namespaces {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)
		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}
	return nil
}
