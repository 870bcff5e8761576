package main

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-infernum/pkg/setup"
)

// DefaultConfigFile is read when no config file is given and it exists.
const DefaultConfigFile = "infernum.yaml"

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout io.Writer
	Stderr io.Writer
	// Prompt drives the init wizard. Nil uses the terminal.
	Prompt setup.PromptDriver
	// Vars replaces the process environment when not nil.
	Vars map[string]string
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// runtimeEnv holds process settings that are not part of the site
// configuration.
type runtimeEnv struct {
	ConfigFiles []string `env:"INFERNUM_CONFIG" envSeparator:","`
	Addr        string   `env:"INFERNUM_ADDR"`
	Verbose     bool     `env:"INFERNUM_VERBOSE"`
}

func (e *Environment) runtime() (runtimeEnv, error) {
	var out runtimeEnv
	opts := env.Options{}
	if e.Vars != nil {
		opts.Environment = e.Vars
	}
	if err := env.ParseWithOptions(&out, opts); err != nil {
		return out, fmt.Errorf("%w: parse env: %v", ErrUsage, err)
	}
	return out, nil
}
