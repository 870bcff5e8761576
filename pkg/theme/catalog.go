// Package theme selects the active site theme and exposes its template
// directory and assets to the rest of the application.
package theme

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
)

var (
	// ErrInvalidManifest is returned when registering a nil or unnamed manifest.
	ErrInvalidManifest = errors.New("theme: invalid manifest")
	// ErrThemeNotFound is returned when selecting an unregistered theme.
	ErrThemeNotFound = errors.New("theme: theme not found")
	// ErrVariantNotFound is returned when a theme has no such variant.
	ErrVariantNotFound = errors.New("theme: variant not found")
)

// Catalog stores theme manifests by name and selects among them.
type Catalog struct {
	mu             sync.RWMutex
	manifests      map[string]*gotheme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ gotheme.ThemeSelector = (*Catalog)(nil)

// NewCatalog returns an empty catalog. Empty arguments to Select resolve to
// defaultTheme and defaultVariant.
func NewCatalog(defaultTheme, defaultVariant string) *Catalog {
	return &Catalog{
		manifests:      make(map[string]*gotheme.Manifest),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
}

// Register adds or replaces a manifest.
func (c *Catalog) Register(manifest *gotheme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return ErrInvalidManifest
	}
	c.mu.Lock()
	c.manifests[strings.TrimSpace(manifest.Name)] = manifest
	c.mu.Unlock()
	return nil
}

// Manifest returns the manifest registered under name.
func (c *Catalog) Manifest(name string) (*gotheme.Manifest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.manifests[strings.TrimSpace(name)]
	return m, ok
}

// Names returns the registered theme names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.manifests))
	for name := range c.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select implements gotheme.ThemeSelector.
func (c *Catalog) Select(name, variant string, _ ...gotheme.QueryOption) (*gotheme.Selection, error) {
	name = strings.TrimSpace(name)
	variant = strings.TrimSpace(variant)

	defaulted := name == ""
	if defaulted {
		name = c.defaultTheme
	}

	manifest, ok := c.Manifest(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}

	if variant == "" && c.defaultVariant != "" {
		if _, has := manifest.Variants[c.defaultVariant]; has || defaulted {
			variant = c.defaultVariant
		}
	}
	if variant != "" {
		if _, has := manifest.Variants[variant]; !has {
			return nil, fmt.Errorf("%w: %q has no variant %q", ErrVariantNotFound, name, variant)
		}
	}

	return &gotheme.Selection{
		Theme:    name,
		Variant:  variant,
		Manifest: manifest,
	}, nil
}
