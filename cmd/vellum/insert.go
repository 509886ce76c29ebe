package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/vellum/internal/config"
	"github.com/dshills/vellum/internal/document"
	"github.com/dshills/vellum/internal/editor"
	"github.com/dshills/vellum/internal/image"
	"github.com/dshills/vellum/internal/interaction"
	"github.com/dshills/vellum/internal/interaction/script"
	"github.com/dshills/vellum/internal/interaction/term"
	"github.com/dshills/vellum/internal/resource"
)

func insertImage(ctx context.Context, cmd *cli.Command) (err error) {
	e := envFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return errors.New("no SOURCE specified")
	}
	if cmd.Args().Len() > 2 {
		e.log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read source: %w", err)
	}
	doc, err := document.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unable to parse '%s': %w", src, err)
	}
	defer doc.Close()

	gateway, closeGateway, err := prepareGateway(cmd, e)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeGateway())
	}()

	opts := []editor.Option{
		editor.WithGateway(gateway),
		editor.WithImageSettings(e.cfg.ImageSettings()),
		editor.WithMaxHistory(e.cfg.History.MaxEntries),
		editor.WithLogger(e.log),
		editor.OnChange(func() { e.log.Debug("Document changed", zap.String("doc", doc.ID().String())) }),
	}

	var observer *resource.Observer
	if !cmd.Bool("no-resolve") {
		observer = newObserver(e.cfg, filepath.Dir(src), e.log)
		defer observer.Close()
		opts = append(opts, editor.WithObserver(observer))
	}

	ed := editor.New(doc, opts...)

	if e.configPath != "" {
		w, err := config.Watch(e.configPath, func(c *config.Config) {
			ed.SetImageSettings(c.ImageSettings())
		}, config.WithWatchLogger(e.log))
		if err != nil {
			e.log.Warn("Configuration will not be reloaded", zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	repeat := max(cmd.Int("repeat"), 1)
	err = ed.History().Transaction(ed.Localization().Title, func() error {
		for range repeat {
			if err := ed.Execute(ctx, image.ToolName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if observer != nil {
		observer.Wait()
	}

	if !ed.History().CanUndo() {
		e.log.Info("Nothing inserted")
	}

	var out string
	if cmd.Bool("selection") {
		out = doc.RenderSelection()
	} else {
		out = doc.String()
	}
	return writeOutput(dst, []byte(out))
}

// prepareGateway picks the gateway from the flags: fixed values, a script
// or the terminal form.
func prepareGateway(cmd *cli.Command, e *env) (interaction.Gateway, func() error, error) {
	noop := func() error { return nil }

	if ref := cmd.String("src"); ref != "" {
		return interaction.Prefilled(interaction.Values{
			interaction.KeyTargetReference: ref,
			interaction.KeyAccessibleLabel: cmd.String("alt"),
		}), noop, nil
	}
	if path := cmd.String("script"); path != "" {
		g, err := script.Load(path, script.WithLogger(e.log))
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load script: %w", err)
		}
		return g, g.Close, nil
	}
	return term.New(term.WithLogger(e.log)), noop, nil
}

func newObserver(cfg *config.Config, srcDir string, log *zap.Logger) *resource.Observer {
	base := cfg.Image.BaseDir
	if base == "" || base == "." {
		base = srcDir
	}
	resolver := resource.NewResolver(resource.WithBaseDir(base))
	return resource.NewObserver(resolver,
		resource.WithLogger(log),
		resource.WithTimeout(cfg.Image.ResolveTimeout),
		resource.OnSettle(func(s resource.Settled) {
			if s.Err != nil {
				log.Warn("Image did not load", zap.Error(s.Err))
			}
		}),
	)
}
