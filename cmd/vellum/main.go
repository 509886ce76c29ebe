// Command vellum runs editor commands against HTML fragments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	e := envFromContext(ctx)

	var err error
	e.configPath = cmd.String("config")
	if e.cfg, err = config.Load(e.configPath); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}

	logging := e.cfg.Logging
	if cmd.Bool("debug") {
		logging.Level = "debug"
		logging.Development = true
	}
	if e.log, err = logging.Build(); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	e.redirectStdLog()

	e.log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", version), zap.String("runtime", runtime.Version()))
	if e.configPath == "" {
		e.log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	e.log.Debug("Program ended", zap.Duration("elapsed", e.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	e.close()
	return nil
}

var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	e := envFromContext(ctx)
	if e.cfg != nil {
		e.log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            "vellum",
		Usage:           "runs rich-text editor commands on HTML fragments",
		Version:         version + " (" + runtime.Version() + ") : " + commit,
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML or TOML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log at debug level with a development logger"},
		},
		Commands: []*cli.Command{
			{
				Name:         "insert-image",
				Usage:        "Inserts or updates an image at the selection of an HTML fragment",
				OnUsageError: usageErrorHandler,
				Action:       insertImage,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "src", Usage: "image `URL`; skips the interactive form"},
					&cli.StringFlag{Name: "alt", Usage: "accessible label `TEXT`, used with --src"},
					&cli.StringFlag{Name: "script", Usage: "answer the form with the Lua `FILE` defining present(request)"},
					&cli.IntFlag{Name: "repeat", Value: 1, Usage: "run the command `N` times as one undoable change"},
					&cli.BoolFlag{Name: "no-resolve", Usage: "do not resolve inserted images"},
					&cli.BoolFlag{Name: "selection", Usage: "write selection markers to the output"},
				},
				ArgsUsage: "SOURCE [DESTINATION]",
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    HTML fragment; the selection is marked with <!--|--> (caret) or
    <!--[--> ... <!--]--> (extent). Without markers the caret is at the start.

DESTINATION:
    file to write the result to, if absent - STDOUT
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	e := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		e.log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data []byte
		err  error
	)
	if cmd.Bool("default") {
		data = config.Defaults()
	} else if data, err = config.Dump(e.cfg); err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}
	return writeOutput(cmd.Args().Get(0), data)
}

func writeOutput(fname string, data []byte) error {
	if fname == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(fname, data, 0o644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", fname, err)
	}
	return nil
}
