package main

import (
	"errors"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/goliatone/go-infernum/pkg/config"
	"github.com/goliatone/go-infernum/pkg/database"
	"github.com/goliatone/go-infernum/pkg/setup"
	"github.com/goliatone/go-infernum/pkg/template/locator"
	"github.com/goliatone/go-infernum/pkg/theme"
)

// Exit codes follow Unix conventions: 0=success, 1=general, 2=usage.
const (
	ExitSuccess  = 0
	ExitGeneral  = 1
	ExitUsage    = 2
	ExitNotFound = 3 // template or file not found
	ExitBadName  = 4 // template reference rejected
	ExitAborted  = 130
)

var (
	// ErrUsage reports invalid arguments.
	ErrUsage = errors.New("usage error")
	// ErrOutputExists is returned by init when the target file exists.
	ErrOutputExists = errors.New("output file exists (use --force)")
)

// exitCodeFor maps err to an exit code. Callers wrap with %w.
func exitCodeFor(err error) int {
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return ExitSuccess
	case errors.Is(err, setup.ErrAborted):
		return ExitAborted
	case errors.Is(err, locator.ErrBadName):
		return ExitBadName
	case errors.Is(err, locator.ErrNotFound),
		errors.Is(err, os.ErrNotExist):
		return ExitNotFound
	case errors.Is(err, ErrUsage),
		errors.Is(err, ErrOutputExists),
		errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, theme.ErrThemeNotFound),
		errors.Is(err, theme.ErrVariantNotFound),
		errors.Is(err, database.ErrUnsupportedDriver):
		return ExitUsage
	default:
		return ExitGeneral
	}
}
