package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	vitel "github.com/pumped-fn/vitel-go"
	"github.com/pumped-fn/vitel-go/config"
	"github.com/pumped-fn/vitel-go/extensions"
	"github.com/pumped-fn/vitel-go/filters"
	"github.com/pumped-fn/vitel-go/internal/cli"
	"github.com/pumped-fn/vitel-go/internal/ctxlog"
	"github.com/pumped-fn/vitel-go/manifest"
)

const readyTimeout = 5 * time.Second

func main() {
	slog.SetDefault(ctxlog.New("info", cli.LogFormat(os.Stderr), os.Stderr))

	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outW, logW io.Writer, args []string) error {
	settings, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	cfg, err := config.Load(settings.ConfigPath)
	if err != nil {
		return err
	}
	if settings.LogLevel != "" {
		cfg.Log.Level = settings.LogLevel
	}
	if settings.LogFormat != "" {
		cfg.Log.Format = settings.LogFormat
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
		if f, ok := logW.(*os.File); ok {
			cfg.Log.Format = cli.LogFormat(f)
		}
	}

	app, err := newApp(cfg, logW, append(cfg.Manifest, settings.Manifests...))
	if err != nil {
		return err
	}
	defer dispose(app)

	switch settings.Command {
	case cli.CmdDirectory:
		if settings.Format == "yaml" {
			return extensions.DumpYAML(outW, app)
		}
		fmt.Fprintln(outW, extensions.RenderTree(app))
		return nil

	case cli.CmdFilter:
		fn, ok := app.Registry().LookupFilter(settings.Filter)
		if !ok {
			return &cli.ExitError{Code: 2, Message: fmt.Sprintf("unknown filter %q (have %v)", settings.Filter, app.Registry().FilterNames())}
		}
		out, err := fn(settings.Value, settings.Options)
		if err != nil {
			return fmt.Errorf("filter %s: %w", settings.Filter, err)
		}
		fmt.Fprintln(outW, out)
		return nil
	}
	return nil
}

// dispose releases the app's extensions, logging a failure since the command
// result has already been decided
func dispose(app *vitel.App) {
	if err := app.Dispose(); err != nil {
		app.Logger().Error("Dispose failed", "error", err)
	}
}

// newApp builds an installed app with the stock filters and every declared
// service realized and ready
func newApp(cfg config.Config, logW io.Writer, manifests []string) (*vitel.App, error) {
	var debugHandler slog.Handler = extensions.NewHumanHandler(logW, slog.LevelError)
	if cfg.Log.Format == "json" {
		debugHandler = slog.NewJSONHandler(logW, nil)
	}

	opts := append(cfg.AppOptions(logW),
		vitel.WithExtension(extensions.NewLoggingExtension(nil)),
		vitel.WithExtension(extensions.NewDirectoryDebugExtension(debugHandler)),
	)
	app := vitel.NewApp(opts...)

	if err := vitel.Install(app, cfg.InstallOptions()...); err != nil {
		return nil, err
	}
	if err := filters.Register(app, cfg.FilterDefaults()); err != nil {
		return nil, err
	}

	if len(manifests) > 0 {
		m, err := manifest.Load(app.Context(), manifests...)
		if err != nil {
			return nil, err
		}
		if err := manifest.Apply(app, catalog(), m); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(app.Context(), readyTimeout)
	defer cancel()
	if err := app.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("waiting for services: %w", err)
	}
	return app, nil
}
