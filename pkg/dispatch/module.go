package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Module handles the requests addressed to one page path prefix.
type Module interface {
	Handle(ctx *Context) error
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func(ctx *Context) error

// Handle implements Module.
func (f ModuleFunc) Handle(ctx *Context) error { return f(ctx) }

// Registry stores modules by name.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module. Duplicate names return an error.
func (r *Registry) Register(name string, module Module) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("dispatch: module name is required")
	}
	if module == nil {
		return fmt.Errorf("dispatch: module %q is nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("dispatch: module %q already registered", name)
	}
	r.modules[name] = module
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(name string, module Module) {
	if err := r.Register(name, module); err != nil {
		panic(err)
	}
}

// Get returns the module registered under name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// List returns the registered module names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
