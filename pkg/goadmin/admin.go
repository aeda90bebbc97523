package goadmin

import (
	"context"
	"errors"

	trendingpkg "github.com/goliatone/go-trending/pkg/trending"
)

// MenuBuilder ensures the trending board entry exists within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures board link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires the trending service into an admin shell.
type Config struct {
	EnableTrending  bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Service         *trendingpkg.Service
	DefaultMenuItem MenuItem
	// LoadOnBootstrap loads panels and runs the first refresh.
	LoadOnBootstrap bool
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

// New creates an Admin helper that can seed the trending menu entry.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableTrending && cfg.Service == nil {
		return nil, errors.New("goadmin: trending service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Trending"
	}
	if cfg.DefaultMenuItem.Route == "" {
		cfg.DefaultMenuItem.Route = "admin.trending"
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "chart-line"
	}
	return &Admin{cfg: cfg}, nil
}

// Trending exposes the configured service when enabled.
func (a *Admin) Trending() *trendingpkg.Service {
	if !a.cfg.EnableTrending {
		return nil
	}
	return a.cfg.Service
}

// Bootstrap seeds the menu entry and optionally loads the board.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableTrending {
		return nil
	}
	if a.cfg.MenuBuilder != nil {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.DefaultMenuItem); err != nil {
			return err
		}
	}
	if a.cfg.LoadOnBootstrap {
		return a.cfg.Service.Load(ctx)
	}
	return nil
}
