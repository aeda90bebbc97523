package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	trending "github.com/goliatone/go-trending/components/trending"
	"github.com/goliatone/go-trending/pkg/opsapi"
)

// demoManifest seeds the in-memory store when no manifest or backend is set.
const demoManifest = `version: "1"
name: Demo board
units:
  - id: "1"
    name: North plant
    creation_date: "2024-01-01"
    columns:
      - {id: "10", name: Throughput}
      - {id: "11", name: Rejects}
  - id: "2"
    name: South plant
    creation_date: "2024-02-15"
    columns:
      - {id: "20", name: Throughput}
panels:
  - name: Weekly throughput
    period: Weekly
    unit_ids: ["1", "2"]
    view_mode: LineChart
    col_span: 2
  - name: Rejects today
    period: Today
    aggregation_type: Total
    unit_ids: ["1"]
    unit_column_id: "11"
    view_mode: Value
samples:
  days: 45
  hours: 24
  base: 120
  jitter: 40
  seed: 7
`

// backend bundles the collaborators a service is built from.
type backend struct {
	store  trending.PanelStore
	units  trending.UnitSource
	data   trending.DataSource
	name   string
	remote bool
}

func (g *globals) backend(logger *slog.Logger, now time.Time) (backend, error) {
	if g.APIURL != "" {
		client, err := opsapi.NewHTTPClient(opsapi.HTTPConfig{
			BaseURL: g.APIURL,
			Token:   g.APIToken,
			Locale:  g.Locale,
			OnUnauthorized: func(ctx context.Context) {
				logger.WarnContext(ctx, "backend rejected credentials; token cleared")
			},
		})
		if err != nil {
			return backend{}, err
		}
		repo := opsapi.NewRepository(client)
		return backend{store: repo, units: repo, data: repo, name: g.APIURL, remote: true}, nil
	}
	doc, err := g.manifest()
	if err != nil {
		return backend{}, err
	}
	store := trending.NewInMemoryStore()
	doc.Apply(store, now)
	logger.Debug("loaded manifest", "source", doc.Source, "units", len(doc.Units), "panels", len(doc.Panels))
	return backend{store: store, units: store, data: store, name: doc.Name}, nil
}

func (g *globals) manifest() (*trending.BoardManifest, error) {
	if g.Manifest == "" {
		doc, err := trending.DecodeManifest(strings.NewReader(demoManifest))
		if err != nil {
			return nil, err
		}
		doc.Source = "builtin"
		return doc, nil
	}
	return trending.ReadManifest(g.Manifest)
}

func (g *globals) options(b backend, logger *slog.Logger) trending.Options {
	return trending.Options{
		Store:      b.store,
		Units:      b.units,
		Data:       b.data,
		Telemetry:  trending.NewSlogTelemetry(logger),
		Policy:     parsePolicy(g.Policy),
	}
}

// loadService builds a service, loads the board and runs the first refresh.
// Refresh failures are logged per panel and do not abort the command.
func (g *globals) loadService(ctx context.Context, logger *slog.Logger) (*trending.Service, backend, error) {
	b, err := g.backend(logger, time.Now())
	if err != nil {
		return nil, backend{}, err
	}
	svc := trending.NewService(g.options(b, logger))
	if err := svc.Load(ctx); err != nil {
		return nil, backend{}, err
	}
	if err := svc.RefreshAll(ctx); err != nil {
		logger.WarnContext(ctx, "refresh failed for some panels", "error", err)
	}
	return svc, b, nil
}

func parsePolicy(value string) trending.PersistPolicy {
	switch value {
	case "retry-once":
		return trending.PersistRetryOnce
	case "revert":
		return trending.PersistRevert
	default:
		return trending.PersistKeep
	}
}
