// Package i18n loads message catalogs and formats numbers, money and dates
// for a locale.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en-US"

const (
	// CatalogGlob matches catalog files inside a catalog filesystem.
	CatalogGlob = "locales/*/*.yaml"
	// DirGlob matches catalog files inside a locales directory.
	DirGlob = "*/*.yaml"
)

var (
	// ErrNoCatalogs is returned when a filesystem holds no catalog file.
	ErrNoCatalogs = errors.New("i18n: no catalog files found")
	// ErrInvalidCatalog is returned for malformed or misplaced catalog files.
	ErrInvalidCatalog = errors.New("i18n: invalid catalog")
)

type catalogFile struct {
	Locale    string            `yaml:"locale"`
	Namespace string            `yaml:"namespace"`
	Messages  map[string]string `yaml:"messages"`
}

type localeCatalog struct {
	namespaces map[string]map[string]string
}

// Bundle holds the messages of every loaded locale, grouped by namespace.
type Bundle struct {
	mu      sync.RWMutex
	locales map[string]*localeCatalog
}

// NewBundle returns an empty bundle.
func NewBundle() *Bundle {
	return &Bundle{locales: map[string]*localeCatalog{}}
}

// LoadFS reads every locales/<locale>/<namespace>.yaml file of fsys.
func LoadFS(fsys fs.FS) (*Bundle, error) {
	return load(fsys, CatalogGlob)
}

// LoadDir reads every <locale>/<namespace>.yaml file of a locales
// directory.
func LoadDir(fsys fs.FS) (*Bundle, error) {
	return load(fsys, DirGlob)
}

func load(fsys fs.FS, pattern string) (*Bundle, error) {
	paths, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("i18n: glob catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, ErrNoCatalogs
	}
	sort.Strings(paths)

	bundle := NewBundle()
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("i18n: read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, p, err)
		}
		if err := bundle.addFile(p, file); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

func (b *Bundle) addFile(p string, file catalogFile) error {
	locale := strings.TrimSpace(file.Locale)
	namespace := strings.TrimSpace(file.Namespace)

	if dirLocale := path.Base(path.Dir(p)); locale != dirLocale {
		return fmt.Errorf("%w: %s: locale %q must match directory %q", ErrInvalidCatalog, p, locale, dirLocale)
	}
	if fileNS := strings.TrimSuffix(path.Base(p), path.Ext(p)); namespace != fileNS {
		return fmt.Errorf("%w: %s: namespace %q must match file name %q", ErrInvalidCatalog, p, namespace, fileNS)
	}
	return b.Add(locale, namespace, file.Messages)
}

// Add registers messages for locale under namespace. Registering the same
// namespace twice for a locale is an error.
func (b *Bundle) Add(locale, namespace string, messages map[string]string) error {
	locale = strings.TrimSpace(locale)
	namespace = strings.TrimSpace(namespace)
	if locale == "" || namespace == "" {
		return fmt.Errorf("%w: locale and namespace are required", ErrInvalidCatalog)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	catalog, ok := b.locales[locale]
	if !ok {
		catalog = &localeCatalog{namespaces: map[string]map[string]string{}}
		b.locales[locale] = catalog
	}
	if _, exists := catalog.namespaces[namespace]; exists {
		return fmt.Errorf("%w: namespace %q already defined for %q", ErrInvalidCatalog, namespace, locale)
	}

	copied := make(map[string]string, len(messages))
	for key, value := range messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("%w: blank message key in %s/%s", ErrInvalidCatalog, locale, namespace)
		}
		copied[key] = value
	}
	catalog.namespaces[namespace] = copied
	return nil
}

// HasLocale reports whether locale has any catalog.
func (b *Bundle) HasLocale(locale string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns the loaded locales, sorted.
func (b *Bundle) Locales() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.locales))
	for locale := range b.locales {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Message looks key up in locale, then in BaseLocale. Keys are either
// "namespace.key" or a bare key searched in every namespace of the locale.
func (b *Bundle) Message(locale, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	locale = strings.TrimSpace(locale)

	b.mu.RLock()
	defer b.mu.RUnlock()

	if msg, ok := b.lookup(locale, key); ok {
		return msg, true
	}
	if locale != BaseLocale {
		return b.lookup(BaseLocale, key)
	}
	return "", false
}

func (b *Bundle) lookup(locale, key string) (string, bool) {
	catalog, ok := b.locales[locale]
	if !ok {
		return "", false
	}
	if ns, rest, found := strings.Cut(key, "."); found {
		if messages, ok := catalog.namespaces[ns]; ok {
			if msg, ok := messages[rest]; ok {
				return msg, true
			}
		}
	}

	names := make([]string, 0, len(catalog.namespaces))
	for ns := range catalog.namespaces {
		names = append(names, ns)
	}
	sort.Strings(names)
	for _, ns := range names {
		if msg, ok := catalog.namespaces[ns][key]; ok {
			return msg, true
		}
	}
	return "", false
}
