package locator

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-infernum/pkg/logger"
)

// GlobalNamespace is registered at construction with the host's global
// template directory.
const GlobalNamespace = "global"

// DefaultExtension is appended to every resolved template name.
const DefaultExtension = ".twig"

// Host supplies the template directories of the running application.
// TemplatePath(false) returns the global directory, TemplatePath(true) the
// directory of the active theme or site. The boolean is false when the
// directory is not configured.
type Host interface {
	TemplatePath(localOnly bool) (string, bool)
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(localOnly bool) (string, bool)

// TemplatePath implements Host.
func (f HostFunc) TemplatePath(localOnly bool) (string, bool) {
	return f(localOnly)
}

// Option configures a Locator.
type Option func(*Locator)

// WithExtension overrides the template file suffix.
func WithExtension(ext string) Option {
	return func(l *Locator) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		l.extension = trimmed
	}
}

// WithFS checks template existence against fsys instead of the OS
// filesystem. Base paths are then interpreted relative to the root of fsys.
func WithFS(fsys fs.FS) Option {
	return func(l *Locator) {
		l.fsys = fsys
	}
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(lggr logger.Logger) Option {
	return func(l *Locator) {
		if lggr != nil {
			l.logger = lggr
		}
	}
}

// WithSymlinkCheck rejects resolved files whose real location, after
// following symlinks, lies outside the real base directory. Only applies to
// the OS filesystem.
func WithSymlinkCheck() Option {
	return func(l *Locator) {
		l.symlinkCheck = true
	}
}

// Locator turns template references such as "page/body" or "@admin/list"
// into file paths below a registered base directory.
type Locator struct {
	mu         sync.RWMutex
	namespaces map[string]string

	host         Host
	extension    string
	fsys         fs.FS
	symlinkCheck bool
	logger       logger.Logger
}

// New builds a Locator for host and registers the global namespace from
// host.TemplatePath(false). The global entry exists even when the host has no
// global directory configured.
func New(host Host, options ...Option) *Locator {
	l := &Locator{
		namespaces: make(map[string]string),
		host:       host,
		extension:  DefaultExtension,
		logger:     logger.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}

	global := ""
	if host != nil {
		global, _ = host.TemplatePath(false)
	}
	l.namespaces[GlobalNamespace] = global
	return l
}

// Extension returns the suffix appended to resolved names.
func (l *Locator) Extension() string {
	return l.extension
}

// RegisterNamespace maps name to basePath. Registering an existing name
// replaces its base path. The directory is not checked here.
func (l *Locator) RegisterNamespace(name, basePath string) {
	name = strings.TrimSpace(name)
	if name == "" {
		l.logger.Debugw("ignoring namespace without name", "base", basePath)
		return
	}

	l.mu.Lock()
	l.namespaces[name] = basePath
	l.mu.Unlock()

	l.logger.Debugw("namespace registered", "namespace", name, "base", basePath)
}

// Namespace returns the base path registered for name.
func (l *Locator) Namespace(name string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	base, ok := l.namespaces[name]
	return base, ok
}

// IsNamespaceDefined reports whether name has been registered.
func (l *Locator) IsNamespaceDefined(name string) bool {
	_, ok := l.Namespace(name)
	return ok
}

// Namespaces returns a copy of the namespace table.
func (l *Locator) Namespaces() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.namespaces))
	for name, base := range l.namespaces {
		out[name] = base
	}
	return out
}

// LocalPath returns the host's current local template directory.
func (l *Locator) LocalPath() (string, bool) {
	if l.host == nil {
		return "", false
	}
	base, ok := l.host.TemplatePath(true)
	if !ok || base == "" {
		return "", false
	}
	return base, true
}

// Locate resolves reference to the path of an existing template file.
// Failures are *BadNameError for unusable references and *NotFoundError when
// the computed file does not exist.
func (l *Locator) Locate(reference string) (string, error) {
	template := normalizeSeparators(reference)

	if strings.IndexByte(template, 0) >= 0 {
		return "", badName(template, "a template name cannot contain NUL bytes")
	}

	template = strings.TrimPrefix(template, "/")
	if template == "" {
		return "", badName(reference, "a template name cannot be empty")
	}
	if !withinRoot(template) {
		return "", badName(template, "looks like you try to load a template outside configured directories")
	}

	var base, name string
	if strings.HasPrefix(template, "@") {
		pos := strings.IndexByte(template, '/')
		if pos < 0 {
			return "", badName(template, `malformed namespaced template name, expecting "@namespace/template_name"`)
		}
		namespace := template[1:pos]
		name = template[pos+1:]
		if strings.Trim(name, "/") == "" {
			return "", badName(template, "a template name cannot be empty")
		}

		// "@ns/../x" passes the walk above because the namespace counts as a
		// segment; the name alone must stay below the namespace base too.
		if !withinRoot(name) {
			return "", badName(template, "looks like you try to load a template outside configured directories")
		}

		var ok bool
		base, ok = l.Namespace(namespace)
		if !ok {
			return "", badName(template, "the template namespace \""+namespace+"\" is not defined")
		}
		if base == "" {
			return "", badName(template, "the template namespace \""+namespace+"\" has no template path")
		}
	} else {
		var ok bool
		base, ok = l.LocalPath()
		if !ok {
			return "", badName(template, "there is no local template path defined")
		}
		name = template
	}

	filename := base + "/" + name + l.extension

	if !l.exists(filename) {
		l.logger.Debugw("template not found", "reference", template, "base", base)
		return "", &NotFoundError{Reference: template, Base: base, Path: filename}
	}
	if l.symlinkCheck && l.fsys == nil {
		if err := checkRealPath(base, filename); err != nil {
			return "", badName(template, err.Error())
		}
	}

	l.logger.Debugw("template located", "reference", template, "path", filename)
	return filename, nil
}

func (l *Locator) exists(filename string) bool {
	if l.fsys != nil {
		name := strings.TrimPrefix(path.Clean(filename), "/")
		if name == "" {
			name = "."
		}
		info, err := fs.Stat(l.fsys, name)
		return err == nil && !info.IsDir()
	}
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

// normalizeSeparators turns backslashes into slashes and collapses runs of
// slashes.
func normalizeSeparators(reference string) string {
	s := strings.ReplaceAll(reference, `\`, "/")
	if !strings.Contains(s, "//") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// withinRoot walks the segments of name keeping a running depth and reports
// false as soon as the depth drops below zero.
func withinRoot(name string) bool {
	depth := 0
	for _, part := range strings.Split(name, "/") {
		switch part {
		case "..":
			depth--
		case ".":
		default:
			depth++
		}
		if depth < 0 {
			return false
		}
	}
	return true
}

var errOutsideBase = errors.New("resolved template lies outside its base directory")

func checkRealPath(base, filename string) error {
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return err
	}
	realFile, err := filepath.EvalSymlinks(filename)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(realBase, realFile)
	if err != nil {
		return err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errOutsideBase
	}
	return nil
}
