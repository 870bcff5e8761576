// Package view holds per-request page state shared between modules and
// templates.
package view

import (
	"html"
	"sort"
	"strings"
	"sync"
)

// DefaultTitleSeparator joins title parts.
const DefaultTitleSeparator = " - "

// HeadTag is an element emitted inside <head>, such as a meta or link tag.
type HeadTag struct {
	Name       string
	Attributes map[string]string
}

// Page collects the title and head tags of the page being rendered.
type Page struct {
	mu        sync.Mutex
	siteName  string
	separator string
	parts     []string
	headTags  []HeadTag
}

// NewPage returns a Page whose title ends with siteName.
func NewPage(siteName string) *Page {
	return &Page{siteName: siteName, separator: DefaultTitleSeparator}
}

// SetSeparator changes the string placed between title parts.
func (p *Page) SetSeparator(sep string) {
	p.mu.Lock()
	p.separator = sep
	p.mu.Unlock()
}

// SetTitle replaces all title parts.
func (p *Page) SetTitle(parts ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parts = p.parts[:0]
	p.appendLocked(parts)
}

// AppendTitle adds a more specific part in front of the current title.
func (p *Page) AppendTitle(part string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appendLocked([]string{part})
}

func (p *Page) appendLocked(parts []string) {
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			p.parts = append(p.parts, part)
		}
	}
}

// Title returns the title parts, most specific first, followed by the site
// name.
func (p *Page) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	all := make([]string, 0, len(p.parts)+1)
	for i := len(p.parts) - 1; i >= 0; i-- {
		all = append(all, p.parts[i])
	}
	if p.siteName != "" {
		all = append(all, p.siteName)
	}
	return strings.Join(all, p.separator)
}

// AddHeadTag queues a tag for HeadTags.
func (p *Page) AddHeadTag(name string, attrs map[string]string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	copied := make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	p.mu.Lock()
	p.headTags = append(p.headTags, HeadTag{Name: name, Attributes: copied})
	p.mu.Unlock()
}

// HeadTags renders the queued tags as escaped HTML, one per line.
func (p *Page) HeadTags() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	for _, tag := range p.headTags {
		b.WriteString("<")
		b.WriteString(html.EscapeString(tag.Name))

		keys := make([]string, 0, len(tag.Attributes))
		for k := range tag.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(" ")
			b.WriteString(html.EscapeString(k))
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(tag.Attributes[k]))
			b.WriteString(`"`)
		}
		b.WriteString(">\n")
	}
	return b.String()
}
