package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-trending/components/trending/gorouter"
	"github.com/goliatone/go-trending/pkg/goadmin"
	trendingpkg "github.com/goliatone/go-trending/pkg/trending"
)

const (
	defaultAddr     = ":8080"
	defaultBasePath = "/admin"
	defaultTitle    = "Trending"
)

type serveCmd struct {
	Addr         string        `default:":8080" help:"Listen address."`
	BasePath     string        `name:"base-path" default:"/admin" help:"Route prefix for the board."`
	Title        string        `default:"Trending" help:"Board page title."`
	RefreshEvery time.Duration `name:"refresh-every" help:"Refresh every panel on this interval (0 disables)."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *globals, logger *slog.Logger) error {
	b, err := g.backend(logger, time.Now())
	if err != nil {
		return err
	}
	stack, err := trendingpkg.NewStack(trendingpkg.StackConfig{
		Options:    g.options(b, logger),
		PageTitle:  cmd.Title,
		EventsPath: cmd.BasePath + "/trending/ws",
	})
	if err != nil {
		return err
	}

	admin, err := goadmin.New(goadmin.Config{
		EnableTrending:  true,
		Service:         stack.Service,
		MenuBuilder:     logMenuBuilder{logger: logger},
		LoadOnBootstrap: true,
	})
	if err != nil {
		return err
	}
	if err := admin.Bootstrap(ctx); err != nil {
		return err
	}
	if err := stack.Service.RefreshAll(ctx); err != nil {
		logger.WarnContext(ctx, "initial refresh failed for some panels", "error", err)
	}

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: stack.Controller,
		API:        stack.Executor,
		Broadcast:  stack.Broadcast,
		BasePath:   cmd.BasePath,
	}); err != nil {
		return err
	}

	if cmd.RefreshEvery > 0 {
		go refreshLoop(ctx, stack.Service, cmd.RefreshEvery, logger)
	}

	logger.Info("trending board ready",
		"addr", cmd.Addr,
		"page", cmd.BasePath+"/trending",
		"backend", b.name,
		"remote", b.remote,
	)
	return server.Serve(cmd.Addr)
}

func refreshLoop(ctx context.Context, svc *trendingpkg.Service, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.RefreshAll(ctx); err != nil {
				logger.WarnContext(ctx, "scheduled refresh failed", "error", err)
			}
		}
	}
}

type logMenuBuilder struct {
	logger *slog.Logger
}

func (b logMenuBuilder) EnsureMenuItem(ctx context.Context, menuCode string, item goadmin.MenuItem) error {
	b.logger.DebugContext(ctx, "menu item ensured", "menu", menuCode, "label", item.Label, "route", item.Route)
	return nil
}
