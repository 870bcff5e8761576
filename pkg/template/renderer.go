package template

import (
	"io"
)

// TemplateRenderer is the seam between request handling and a concrete
// template engine. Names passed to Render and RenderTemplate are template
// references as understood by the locator ("page/body", "@admin/list").
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

// Extension contributes filters and global functions to an engine.
type Extension interface {
	Name() string
	Filters() map[string]func(input any, param any) (any, error)
	Functions() map[string]any
}
