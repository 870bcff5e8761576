package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	configs  []string
	theme    string
	logLevel string
	verbose  bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringArrayVarP(&f.configs, "config", "c", nil, "config file (repeatable, later files win)")
	fs.StringVar(&f.theme, "theme", "", "override the active theme")
	fs.StringVar(&f.logLevel, "log-level", "", "override the log level")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")
}

type serveFlags struct {
	common commonFlags
	addr   string
}

type locateFlags struct {
	common commonFlags
}

type renderFlags struct {
	common commonFlags
	data   map[string]string
	output string
}

type initFlags struct {
	output   string
	force    bool
	scaffold bool
	base     []string
}

func newFlagSet(name string, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(os.Stderr) }
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func parseServeFlags(args []string) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", printUsage)
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (overrides http.addr)")
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func parseLocateFlags(args []string) (*locateFlags, []string, error) {
	f := &locateFlags{}
	fs := newFlagSet("locate", printUsage)
	addCommonFlags(fs, &f.common)
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func parseRenderFlags(args []string) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := newFlagSet("render", printUsage)
	addCommonFlags(fs, &f.common)
	fs.StringToStringVarP(&f.data, "set", "s", nil, "template variable as key=value (repeatable)")
	fs.StringVarP(&f.output, "output", "o", "", "output file (stdout if empty)")
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func parseInitFlags(args []string) (*initFlags, []string, error) {
	f := &initFlags{}
	fs := newFlagSet("init", printUsage)
	fs.StringVarP(&f.output, "output", "o", DefaultConfigFile, "config file to write")
	fs.BoolVarP(&f.force, "force", "f", false, "overwrite an existing file")
	fs.BoolVar(&f.scaffold, "scaffold", false, "write a starter theme and templates next to the config file")
	fs.StringArrayVarP(&f.base, "config", "c", nil, "config file providing the defaults (repeatable)")
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, strings.TrimLeft(`
Usage: infernum <command> [flags]

Commands:
  serve              run the HTTP front controller
  locate <ref>       print the file a template reference resolves to
  render <ref>       render a template to stdout
  init               write a config file interactively (--scaffold adds a starter site)
  version            print the version

Common flags:
  -c, --config file  config file (repeatable, later files win)
      --theme name   override the active theme
      --log-level l  override the log level
  -v, --verbose      log at debug level

Environment:
  INFERNUM_CONFIG    comma separated config files
  INFERNUM_ADDR      listen address for serve
  INFERNUM_*         site settings, e.g. INFERNUM_THEME, DATABASE_URL
`, "\n"))
}
