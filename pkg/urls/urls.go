// Package urls builds site, page and theme-file URLs.
package urls

import (
	"net/url"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	// RewritePattern addresses pages as path segments below the site root.
	RewritePattern = "{site}/{page}"
	// QueryPattern addresses pages through the "p" query parameter.
	QueryPattern = "{site}/?p={page}"
)

// Option configures a Builder.
type Option func(*Builder)

// WithPagePattern overrides the page URL pattern. Patterns use {site} and
// {page} placeholders.
func WithPagePattern(pattern string) Option {
	return func(b *Builder) {
		if strings.TrimSpace(pattern) != "" {
			b.pagePattern = fasttemplate.New(pattern, "{", "}")
		}
	}
}

// WithThemeAssets sets the resolver used by ThemeFileURL.
func WithThemeAssets(resolve func(file string) string) Option {
	return func(b *Builder) {
		b.themeAsset = resolve
	}
}

// Builder turns site-relative paths and page names into absolute URLs.
type Builder struct {
	site        string
	rewrite     bool
	pagePattern *fasttemplate.Template
	themeAsset  func(string) string
}

// New returns a Builder for the site rooted at siteURL. With rewrite on, page
// URLs look like "/blog/post"; otherwise "/?p=blog/post".
func New(siteURL string, rewrite bool, opts ...Option) *Builder {
	b := &Builder{
		site:    strings.TrimRight(strings.TrimSpace(siteURL), "/"),
		rewrite: rewrite,
	}
	pattern := QueryPattern
	if rewrite {
		pattern = RewritePattern
	}
	b.pagePattern = fasttemplate.New(pattern, "{", "}")

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// SiteURL returns the site root without a trailing slash.
func (b *Builder) SiteURL() string {
	return b.site
}

// URL appends path to the site root and adds the encoded query.
func (b *Builder) URL(path string, query url.Values) string {
	result := b.site + path
	if encoded := query.Encode(); encoded != "" {
		result += "?" + encoded
	}
	return result
}

// PageURL returns the URL of a module page.
func (b *Builder) PageURL(page string, query url.Values) string {
	result := b.pagePattern.ExecuteString(map[string]any{
		"site": b.site,
		"page": escapePage(page),
	})
	if encoded := query.Encode(); encoded != "" {
		if strings.Contains(result, "?") {
			result += "&" + encoded
		} else {
			result += "?" + encoded
		}
	}
	return result
}

// ThemeFileURL returns the URL of a file shipped with the active theme.
// Without a theme resolver the file is addressed below /themes.
func (b *Builder) ThemeFileURL(file string) string {
	file = strings.TrimLeft(file, "/")
	if b.themeAsset != nil {
		if resolved := b.themeAsset(file); resolved != "" {
			if strings.HasPrefix(resolved, "http://") || strings.HasPrefix(resolved, "https://") {
				return resolved
			}
			return b.site + "/" + strings.TrimLeft(resolved, "/")
		}
	}
	return b.site + "/themes/" + file
}

// Query builds url.Values from alternating key/value pairs as passed from
// templates, e.g. page("blog", "id", 3). A trailing key without value is
// ignored.
func Query(pairs ...any) url.Values {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok || key == "" {
			continue
		}
		values.Add(key, toString(pairs[i+1]))
	}
	return values
}

func escapePage(page string) string {
	parts := strings.Split(strings.Trim(page, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
