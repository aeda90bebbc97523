package opsapi

import (
	"context"

	trending "github.com/goliatone/go-trending/components/trending"
)

// PanelClient manages persisted trending panels.
type PanelClient interface {
	ListPanels(ctx context.Context) ([]trending.Panel, error)
	CreatePanel(ctx context.Context, panel trending.Panel) (trending.Panel, error)
	UpdatePanel(ctx context.Context, panel trending.Panel) error
	DeletePanel(ctx context.Context, id trending.ID) error
	ReorderPanels(ctx context.Context, order []trending.PanelOrder) error
}

// UnitClient lists units and their columns.
type UnitClient interface {
	ListUnits(ctx context.Context) ([]trending.Unit, error)
	ListColumns(ctx context.Context, unitID trending.ID) ([]trending.Column, error)
}

// CellClient fetches raw hourly samples. A zero start means all time.
type CellClient interface {
	ListCells(ctx context.Context, unitID trending.ID, start, end trending.Date) ([]trending.RawSample, error)
}

// Client is a convenience union for backends that serve every endpoint.
type Client interface {
	PanelClient
	UnitClient
	CellClient
}
