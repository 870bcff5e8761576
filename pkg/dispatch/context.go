package dispatch

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-infernum/pkg/view"
)

const (
	// MessageTemplate renders ShowMessage pages.
	MessageTemplate = "message_body"
	// NotFoundTemplate renders 404 pages.
	NotFoundTemplate = "notfound_body"
)

// ErrNotFound can be returned by modules to answer with the not-found page.
var ErrNotFound = errors.New("dispatch: page not found")

var messageTypes = map[string]bool{"info": true, "success": true, "warning": true, "error": true}

// Context carries the state of one request through a module.
type Context struct {
	Request  *http.Request
	Response http.ResponseWriter
	Path     Path
	Page     *view.Page
	Locale   string

	dispatcher *Dispatcher
	status     int
	written    bool
}

// Arg returns the i-th path argument or "".
func (c *Context) Arg(i int) string { return c.Path.Arg(i) }

// Status sets the HTTP status used by the next Render.
func (c *Context) Status(code int) *Context {
	c.status = code
	return c
}

// Written reports whether a response has been sent.
func (c *Context) Written() bool { return c.written }

// Render executes the template reference with data plus the per-request
// functions and writes the result as HTML.
func (c *Context) Render(name string, data map[string]any) error {
	payload := make(map[string]any, len(data)+8)
	maps.Copy(payload, c.dispatcher.requestData(c))
	maps.Copy(payload, data)

	out, err := c.dispatcher.renderer.RenderTemplate(name, payload)
	if err != nil {
		return fmt.Errorf("dispatch: render %s: %w", name, err)
	}

	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	c.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response.WriteHeader(status)
	_, err = c.Response.Write([]byte(out))
	c.written = true
	return err
}

// ShowMessage renders the message page. kind is one of info, success,
// warning or error; anything else is shown as info.
func (c *Context) ShowMessage(message, kind string) error {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !messageTypes[kind] {
		kind = "info"
	}
	return c.Render(MessageTemplate, map[string]any{
		"message": message,
		"type":    kind,
	})
}

// NotFound renders the not-found page with status 404.
func (c *Context) NotFound() error {
	return c.Status(http.StatusNotFound).Render(NotFoundTemplate, nil)
}

// Redirect answers with a 303 to the page URL.
func (c *Context) Redirect(page string, query url.Values) {
	target := c.dispatcher.pageURL(page, query)
	http.Redirect(c.Response, c.Request, target, http.StatusSeeOther)
	c.written = true
}
