package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	infernum "github.com/goliatone/go-infernum"
	"github.com/goliatone/go-infernum/pkg/config"
	"github.com/goliatone/go-infernum/pkg/database"
	"github.com/goliatone/go-infernum/pkg/logger"
	"github.com/goliatone/go-infernum/pkg/setup"
	"github.com/goliatone/go-infernum/pkg/theme"
)

func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, _, err := parseServeFlags(args)
	if err != nil {
		return err
	}
	rt, err := env.runtime()
	if err != nil {
		return err
	}

	app, err := openApp(ctx, &flags.common, rt)
	if err != nil {
		return err
	}
	defer app.Close()

	switch {
	case flags.addr != "":
		app.Config().HTTP.Addr = flags.addr
	case rt.Addr != "":
		app.Config().HTTP.Addr = rt.Addr
	}
	return app.Serve(ctx)
}

func runLocate(ctx context.Context, args []string, env *Environment) error {
	flags, refs, err := parseLocateFlags(args)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("%w: locate needs at least one template reference", ErrUsage)
	}
	rt, err := env.runtime()
	if err != nil {
		return err
	}

	app, err := openApp(ctx, &flags.common, rt)
	if err != nil {
		return err
	}
	defer app.Close()

	var failed error
	for _, ref := range refs {
		path, err := app.Locate(ref)
		if err != nil {
			fmt.Fprintln(env.Stderr, err)
			if failed == nil {
				failed = err
			}
			continue
		}
		fmt.Fprintln(env.Stdout, path)
	}
	if failed != nil {
		return fmt.Errorf("locate: %w", failed)
	}
	return nil
}

func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, refs, err := parseRenderFlags(args)
	if err != nil {
		return err
	}
	if len(refs) != 1 {
		return fmt.Errorf("%w: render needs exactly one template reference", ErrUsage)
	}
	rt, err := env.runtime()
	if err != nil {
		return err
	}

	app, err := openApp(ctx, &flags.common, rt)
	if err != nil {
		return err
	}
	defer app.Close()

	data := make(map[string]any, len(flags.data))
	for k, v := range flags.data {
		data[k] = v
	}
	out, err := app.Render(refs[0], data)
	if err != nil {
		return fmt.Errorf("render %s: %w", refs[0], err)
	}

	if flags.output != "" {
		if err := os.WriteFile(flags.output, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(env.Stdout, out)
	return err
}

func runInit(ctx context.Context, args []string, env *Environment) error {
	flags, _, err := parseInitFlags(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(flags.output); err == nil && !flags.force {
		return fmt.Errorf("%w: %s", ErrOutputExists, flags.output)
	}

	base := config.Default()
	if len(flags.base) > 0 {
		if base, err = config.Load(flags.base...); err != nil {
			return err
		}
	}

	opts := []setup.Option{
		setup.WithBase(base),
		setup.WithDatabaseDrivers(database.DefaultRegistry().List()...),
	}
	if names := themeNames(base.Core.ThemesDir); len(names) > 0 {
		opts = append(opts, setup.WithThemes(names...))
	}
	if env.Prompt != nil {
		opts = append(opts, setup.WithDriver(env.Prompt))
	}

	cfg, err := setup.New(opts...).Run(ctx)
	if err != nil {
		return err
	}
	if err := config.Write(flags.output, cfg); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Configuration written to %s\n", flags.output)

	if flags.scaffold {
		written, err := infernum.WriteScaffold(filepath.Dir(flags.output), flags.force)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "Starter site: %d files written\n", len(written))
	}
	return nil
}

// openApp loads the configuration from flags, the runtime environment or
// the default file, applies flag overrides and builds the application.
func openApp(ctx context.Context, flags *commonFlags, rt runtimeEnv) (*infernum.Application, error) {
	files := flags.configs
	if len(files) == 0 {
		files = rt.ConfigFiles
	}
	if len(files) == 0 {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			files = []string{DefaultConfigFile}
		}
	}

	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if flags.theme != "" {
		cfg.Core.Theme = flags.theme
	}
	switch {
	case flags.verbose || rt.Verbose:
		cfg.Log.Level = "debug"
	case flags.logLevel != "":
		cfg.Log.Level = flags.logLevel
	}

	lvl, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	lggr, err := logger.Config{Level: lvl}.New()
	if err != nil {
		return nil, err
	}
	return infernum.New(ctx, cfg, infernum.WithLogger(lggr))
}

func themeNames(dir string) []string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	manifests, err := theme.LoadManifests(os.DirFS(dir))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(manifests))
	for _, m := range manifests {
		names = append(names, m.Name)
	}
	return names
}
