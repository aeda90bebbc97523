package opsapi

import (
	"context"

	trending "github.com/goliatone/go-trending/components/trending"
)

// Repository adapts a Client into the trending collaborator interfaces.
type Repository struct {
	client Client
}

var (
	_ trending.PanelStore = (*Repository)(nil)
	_ trending.UnitSource = (*Repository)(nil)
	_ trending.DataSource = (*Repository)(nil)
)

// NewRepository wraps client.
func NewRepository(client Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) ListPanels(ctx context.Context) ([]trending.Panel, error) {
	return r.client.ListPanels(ctx)
}

func (r *Repository) CreatePanel(ctx context.Context, panel trending.Panel) (trending.Panel, error) {
	return r.client.CreatePanel(ctx, panel)
}

func (r *Repository) UpdatePanel(ctx context.Context, panel trending.Panel) error {
	return r.client.UpdatePanel(ctx, panel)
}

func (r *Repository) DeletePanel(ctx context.Context, id trending.ID) error {
	return r.client.DeletePanel(ctx, id)
}

func (r *Repository) ReorderPanels(ctx context.Context, order []trending.PanelOrder) error {
	return r.client.ReorderPanels(ctx, order)
}

func (r *Repository) ListUnits(ctx context.Context) ([]trending.Unit, error) {
	return r.client.ListUnits(ctx)
}

func (r *Repository) ListColumns(ctx context.Context, unitID trending.ID) ([]trending.Column, error) {
	return r.client.ListColumns(ctx, unitID)
}

// ListSamples fetches cells for window. An open-start window asks the
// backend for all time.
func (r *Repository) ListSamples(ctx context.Context, unitID trending.ID, window trending.DateRange) ([]trending.RawSample, error) {
	return r.client.ListCells(ctx, unitID, window.Start, window.End)
}
