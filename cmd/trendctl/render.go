package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	trending "github.com/goliatone/go-trending/components/trending"
)

type renderCmd struct {
	Panel string `help:"Render only this panel id as a fragment."`
	Out   string `short:"o" type:"path" help:"Write HTML to this file instead of stdout."`
	Title string `default:"Trending" help:"Board page title."`
}

func (cmd *renderCmd) Run(ctx context.Context, g *globals, logger *slog.Logger) error {
	svc, _, err := g.loadService(ctx, logger)
	if err != nil {
		return err
	}
	templates, err := trending.NewTemplateRenderer()
	if err != nil {
		return fail("template renderer: %w", err)
	}
	controller := trending.NewController(svc, templates, trending.WithPageTitle(cmd.Title))

	var out io.Writer = os.Stdout
	if cmd.Out != "" {
		f, err := os.Create(cmd.Out) //nolint:gosec
		if err != nil {
			return fail("create %s: %w", cmd.Out, err)
		}
		defer f.Close()
		out = f
	}
	if cmd.Panel != "" {
		return controller.RenderPanel(ctx, trending.ID(cmd.Panel), g.Locale, out)
	}
	if err := controller.RenderBoard(ctx, g.Locale, out); err != nil {
		return err
	}
	if cmd.Out != "" {
		logger.Info("rendered board", "file", cmd.Out, "panels", len(svc.Panels()))
	}
	return nil
}
