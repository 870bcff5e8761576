package theme

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
)

// TemplatesDir is the directory inside a theme that holds its templates.
const TemplatesDir = "templates"

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostFS checks theme directories inside fsys instead of the OS
// filesystem.
func WithHostFS(fsys fs.FS) HostOption {
	return func(h *Host) {
		h.fsys = fsys
	}
}

// Host tracks the active theme selection and answers template path queries
// for the locator.
type Host struct {
	mu           sync.RWMutex
	templatePath string
	themesDir    string
	selector     gotheme.ThemeSelector
	active       *gotheme.Selection
	fsys         fs.FS
}

// NewHost returns a Host whose global templates live in templatePath and
// whose themes live in themesDir/<theme>.
func NewHost(templatePath, themesDir string, selector gotheme.ThemeSelector, opts ...HostOption) *Host {
	h := &Host{
		templatePath: strings.TrimSpace(templatePath),
		themesDir:    strings.TrimSpace(themesDir),
		selector:     selector,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Activate selects the theme and variant used for the following lookups.
func (h *Host) Activate(name, variant string) (*gotheme.Selection, error) {
	if h.selector == nil {
		return nil, fmt.Errorf("%w: no selector configured", ErrThemeNotFound)
	}
	selection, err := h.selector.Select(name, variant)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.active = selection
	h.mu.Unlock()
	return selection, nil
}

// Active returns the current selection, or nil before Activate succeeds.
func (h *Host) Active() *gotheme.Selection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active
}

// TemplatePath returns the global template directory, or with localOnly the
// template directory of the active theme. A variant directory inside it
// takes precedence when present.
func (h *Host) TemplatePath(localOnly bool) (string, bool) {
	if !localOnly {
		return h.templatePath, h.templatePath != ""
	}

	active := h.Active()
	if active == nil || active.Theme == "" || h.themesDir == "" {
		return "", false
	}

	dir := h.join(h.themesDir, active.Theme, TemplatesDir)
	if active.Variant != "" {
		if variantDir := h.join(dir, active.Variant); h.isDir(variantDir) {
			return variantDir, true
		}
	}
	return dir, true
}

// AssetURL returns the site-relative path of a theme file. Keys declared in
// the manifest assets resolve through the variant and the asset prefix;
// other names are addressed inside the theme directory.
func (h *Host) AssetURL(file string) string {
	file = strings.TrimLeft(strings.TrimSpace(file), "/")
	active := h.Active()
	if active == nil || file == "" {
		return ""
	}

	prefix := ""
	if m := active.Manifest; m != nil {
		prefix = m.Assets.Prefix
		resolved := m.Assets.Files[file]
		if v, ok := m.Variants[active.Variant]; ok {
			if v.Assets.Prefix != "" {
				prefix = v.Assets.Prefix
			}
			if f, ok := v.Assets.Files[file]; ok {
				resolved = f
			}
		}
		if resolved != "" {
			if prefix == "" {
				prefix = path.Join("themes", active.Theme)
			}
			return path.Join(prefix, resolved)
		}
	}
	if prefix != "" {
		return path.Join(prefix, file)
	}
	return path.Join("themes", active.Theme, file)
}

// RendererConfig flattens the active selection into the values templates
// read: merged tokens, CSS variables, template overrides and the asset
// resolver.
func (h *Host) RendererConfig() *gotheme.RendererConfig {
	active := h.Active()
	if active == nil {
		return nil
	}

	cfg := &gotheme.RendererConfig{
		Theme:    active.Theme,
		Variant:  active.Variant,
		Partials: map[string]string{},
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
		AssetURL: h.AssetURL,
	}
	if m := active.Manifest; m != nil {
		merge(cfg.Tokens, m.Tokens)
		merge(cfg.Partials, m.Templates)
		if v, ok := m.Variants[active.Variant]; ok {
			merge(cfg.Tokens, v.Tokens)
			merge(cfg.Partials, v.Templates)
		}
	}
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}
	return cfg
}

func merge(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}

func (h *Host) join(elem ...string) string {
	if h.fsys != nil {
		return path.Join(elem...)
	}
	return filepath.Join(elem...)
}

func (h *Host) isDir(dir string) bool {
	var (
		info fs.FileInfo
		err  error
	)
	if h.fsys != nil {
		info, err = fs.Stat(h.fsys, strings.TrimPrefix(path.Clean(dir), "/"))
	} else {
		info, err = os.Stat(dir)
	}
	return err == nil && info.IsDir()
}
