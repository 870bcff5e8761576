package pongo

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-infernum/pkg/template/locator"
)

// Loader is a pongo2.TemplateLoader that resolves every template name through
// a Locator. References are rooted at a namespace or the local template
// directory, never at the including template, so Abs keeps the name as is.
type Loader struct {
	locator *locator.Locator
	fsys    fs.FS

	mu       sync.Mutex
	failures map[string]error
}

var _ pongo2.TemplateLoader = (*Loader)(nil)

// NewLoader returns a Loader reading files from the OS filesystem, or from
// fsys when it is not nil.
func NewLoader(loc *locator.Locator, fsys fs.FS) *Loader {
	return &Loader{
		locator:  loc,
		fsys:     fsys,
		failures: make(map[string]error),
	}
}

// Abs implements pongo2.TemplateLoader.
func (l *Loader) Abs(_, name string) string {
	return name
}

// Get implements pongo2.TemplateLoader.
func (l *Loader) Get(name string) (io.Reader, error) {
	resolved, err := l.locator.Locate(name)
	if err != nil {
		l.recordFailure(name, err)
		return nil, err
	}

	data, err := l.read(resolved)
	if err != nil {
		l.recordFailure(name, err)
		return nil, err
	}
	l.clearFailure(name)
	return bytes.NewReader(data), nil
}

func (l *Loader) read(resolved string) ([]byte, error) {
	if l.fsys != nil {
		name := strings.TrimPrefix(path.Clean(resolved), "/")
		return fs.ReadFile(l.fsys, name)
	}
	return os.ReadFile(resolved)
}

// maxFailures bounds the failure table; it is reset when full.
const maxFailures = 256

// takeFailure returns and forgets the last error Get produced for name.
// pongo2 replaces loader errors with a generic message, so the engine uses
// this to report the original cause.
func (l *Loader) takeFailure(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.failures[name]
	delete(l.failures, name)
	return err
}

func (l *Loader) pendingFailures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}

func (l *Loader) recordFailure(name string, err error) {
	l.mu.Lock()
	if len(l.failures) >= maxFailures {
		clear(l.failures)
	}
	l.failures[name] = err
	l.mu.Unlock()
}

func (l *Loader) clearFailure(name string) {
	l.mu.Lock()
	delete(l.failures, name)
	l.mu.Unlock()
}
