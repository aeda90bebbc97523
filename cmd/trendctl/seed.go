package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	trending "github.com/goliatone/go-trending/components/trending"
)

type seedCmd struct {
	DryRun bool `name:"dry-run" help:"Validate the manifest and list the panels without writing."`
}

// Run creates the manifest panels on the backend, last first so the
// head-insert of CreatePanel leaves them in document order, then persists
// that order as one batch.
func (cmd *seedCmd) Run(ctx context.Context, g *globals, logger *slog.Logger) error {
	doc, err := g.manifest()
	if err != nil {
		return err
	}
	if cmd.DryRun {
		for i, panel := range doc.Panels {
			fmt.Printf("%d. %s (%s, %d units)\n", i+1, panel.Name, panel.Period, len(panel.UnitIDs))
		}
		return nil
	}
	b, err := g.backend(logger, time.Now())
	if err != nil {
		return err
	}
	if !b.remote {
		logger.Info("no backend configured; manifest loaded into memory only", "panels", len(doc.Panels))
		return nil
	}
	created, err := seedPanels(ctx, b.store, doc.Panels)
	if err != nil {
		return err
	}
	logger.Info("seeded panels", "count", len(created), "backend", b.name)
	return nil
}

func seedPanels(ctx context.Context, store trending.PanelStore, panels []trending.Panel) ([]trending.Panel, error) {
	created := make([]trending.Panel, len(panels))
	for i := len(panels) - 1; i >= 0; i-- {
		panel := panels[i].Clone()
		panel.ID = ""
		out, err := store.CreatePanel(ctx, panel)
		if err != nil {
			return nil, fail("create panel %q: %w", panel.Name, err)
		}
		created[i] = out
	}
	order := make([]trending.PanelOrder, len(created))
	for i, panel := range created {
		order[i] = trending.PanelOrder{ID: panel.ID, Order: i}
	}
	if err := store.ReorderPanels(ctx, order); err != nil {
		return nil, fail("reorder panels: %w", err)
	}
	return created, nil
}
