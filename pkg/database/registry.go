// Package database opens SQL connections through a registry of named
// drivers and buffers query results.
package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Options describe the database to connect to. A non-empty DSN is passed to
// the driver unchanged; otherwise the driver builds one from the fields.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Prefix   string
	DSN      string
}

func (o Options) validate() error {
	if strings.TrimSpace(o.DSN) == "" && strings.TrimSpace(o.Database) == "" {
		return ErrInvalidDatabase
	}
	return nil
}

// Driver opens connections for one backend.
type Driver interface {
	Name() string
	Open(ctx context.Context, opts Options) (*Connection, error)
}

// Registry stores drivers by lower-cased name.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry returns a registry holding drivers.
func NewRegistry(drivers ...Driver) *Registry {
	r := &Registry{drivers: make(map[string]Driver)}
	for _, d := range drivers {
		r.MustRegister(d)
	}
	return r
}

// DefaultRegistry returns a registry with the sqlite, postgres and ramsql
// drivers.
func DefaultRegistry() *Registry {
	return NewRegistry(SQLite(), Postgres(), RamSQL())
}

// Register adds a driver by its Name(). Duplicate names return an error.
func (r *Registry) Register(driver Driver) error {
	if driver == nil {
		return fmt.Errorf("database: driver is required")
	}
	name := strings.ToLower(strings.TrimSpace(driver.Name()))
	if name == "" {
		return ErrInvalidDriver
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("database: driver %q already registered", name)
	}
	r.drivers[name] = driver
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(driver Driver) {
	if err := r.Register(driver); err != nil {
		panic(err)
	}
}

// Get returns the driver registered under name, ignoring case.
func (r *Registry) Get(name string) (Driver, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, ErrInvalidDriver
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	driver, ok := r.drivers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, key)
	}
	return driver, nil
}

// List returns the registered driver names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open validates opts and connects through the named driver.
func (r *Registry) Open(ctx context.Context, name string, opts Options) (*Connection, error) {
	driver, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return driver.Open(ctx, opts)
}
