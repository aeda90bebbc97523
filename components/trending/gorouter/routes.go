package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	trending "github.com/goliatone/go-trending/components/trending"
	"github.com/goliatone/go-trending/components/trending/commands"
	"github.com/goliatone/go-trending/components/trending/httpapi"
	"github.com/goliatone/go-trending/components/trending/queries"
)

// ActorResolver extracts the acting identity from a request.
type ActorResolver func(router.Context) commands.Actor

// Config wires go-router with the trending controller, API executor and
// broadcast hook.
type Config[T any] struct {
	Router        router.Router[T]
	Controller    *trending.Controller
	API           httpapi.Executor
	Broadcast     *trending.BroadcastHook
	ActorResolver ActorResolver
	BasePath      string
	Routes        RouteConfig
}

// RouteConfig customizes the relative paths used for trending endpoints.
type RouteConfig struct {
	HTML      string
	Fragment  string
	Panels    string
	PanelID   string
	Move      string
	Refresh   string
	Resize    string
	ViewMode  string
	Toggle    string
	WebSocket string
}

// Register mounts trending routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	resolver := cfg.ActorResolver
	if resolver == nil {
		resolver = defaultActorResolver
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		var buf bytes.Buffer
		if err := cfg.Controller.RenderBoard(ctx.Context(), inferLocale(ctx), &buf); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.Fragment, router.WrapHandler(func(ctx router.Context) error {
		var buf bytes.Buffer
		id := trending.ID(ctx.Param("id"))
		if err := cfg.Controller.RenderPanel(ctx.Context(), id, inferLocale(ctx), &buf); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	if cfg.API != nil {
		registerAPI(group, cfg.API, resolver, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, resolver ActorResolver, routes RouteConfig) {
	r.Get(routes.Panels, router.WrapHandler(func(ctx router.Context) error {
		panels, err := api.Board(ctx.Context(), queries.BoardInput{Locale: inferLocale(ctx)})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, panels)
	}))

	r.Post(routes.Panels, router.WrapHandler(func(ctx router.Context) error {
		input := commands.CreatePanelInput{Actor: resolver(ctx), Locale: inferLocale(ctx)}
		var panel trending.Panel
		input.Result = &panel
		if err := api.Create(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, panel)
	}))

	r.Post(routes.Move, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.MovePanelInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Actor = resolver(ctx)
		var order []trending.PanelOrder
		payload.Result = &order
		if err := api.Move(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, order)
	}))

	r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.RefreshPanelInput
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &payload); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		if err := api.Refresh(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}))

	r.Get(routes.PanelID, router.WrapHandler(func(ctx router.Context) error {
		refresh, _ := strconv.ParseBool(ctx.Query("refresh"))
		snap, err := api.Series(ctx.Context(), queries.SeriesInput{PanelID: trending.ID(ctx.Param("id")), Refresh: refresh})
		if err != nil && snap.Panel.ID == "" {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Put(routes.PanelID, router.WrapHandler(func(ctx router.Context) error {
		var payload map[string]any
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		var snap trending.Snapshot
		err := api.Update(ctx.Context(), commands.UpdatePanelInput{
			Actor:   resolver(ctx),
			PanelID: trending.ID(ctx.Param("id")),
			Payload: payload,
			Result:  &snap,
		})
		if err != nil {
			if snap.Panel.ID == "" {
				return respondError(ctx, httpapi.StatusFor(err), err)
			}
			return ctx.JSON(http.StatusBadGateway, map[string]any{
				"snapshot": snap,
				"error":    httpapi.ErrorBody{Error: err.Error(), Message: trending.UserMessage(err)},
			})
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Delete(routes.PanelID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("panel id is required"))
		}
		if err := api.Remove(ctx.Context(), commands.RemovePanelInput{Actor: resolver(ctx), PanelID: trending.ID(id)}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusNoContent, map[string]string{"status": "removed"})
	}))

	r.Post(routes.Resize, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ResizePanelInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Actor = resolver(ctx)
		payload.PanelID = trending.ID(ctx.Param("id"))
		var span trending.Span
		payload.Result = &span
		if err := api.Resize(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"panel_id": payload.PanelID, "col_span": span})
	}))

	r.Post(routes.ViewMode, router.WrapHandler(func(ctx router.Context) error {
		id := trending.ID(ctx.Param("id"))
		var mode trending.ViewMode
		if err := api.CycleViewMode(ctx.Context(), commands.CycleViewModeInput{Actor: resolver(ctx), PanelID: id, Result: &mode}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"panel_id": id, "view_mode": mode, "icons": mode.Icons()})
	}))

	r.Post(routes.Toggle, router.WrapHandler(func(ctx router.Context) error {
		var snap trending.Snapshot
		input := commands.ToggleUnitInput{
			PanelID: trending.ID(ctx.Param("id")),
			UnitID:  trending.ID(ctx.Param("unit")),
			Result:  &snap,
		}
		if err := api.ToggleUnit(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *trending.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultActorResolver(ctx router.Context) commands.Actor {
	var actor commands.Actor
	if v, ok := ctx.Locals("actor_id").(string); ok {
		actor.ActorID = v
	}
	if v, ok := ctx.Locals("user_id").(string); ok {
		actor.UserID = v
	}
	if v, ok := ctx.Locals("tenant_id").(string); ok {
		actor.TenantID = v
	}
	if actor.ActorID == "" {
		actor.ActorID = ctx.Header(httpapi.HeaderActorID)
	}
	if actor.UserID == "" {
		actor.UserID = ctx.Header(httpapi.HeaderUserID)
	}
	if actor.TenantID == "" {
		actor.TenantID = ctx.Header(httpapi.HeaderTenantID)
	}
	return actor
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return locale
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		if lang := parseAcceptLanguage(header); lang != "" {
			return lang
		}
	}
	return ""
}

// parseAcceptLanguage returns the first language tag of the header, keeping
// its region so regional catalogs such as es-MX still match.
func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = strings.TrimSpace(token[:idx])
		}
		if token != "" && token != "*" {
			return token
		}
	}
	return ""
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, httpapi.ErrorBody{Error: err.Error(), Message: trending.UserMessage(err)})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/trending"
	}
	if routes.Fragment == "" {
		routes.Fragment = "/trending/panels/:id/_fragment"
	}
	if routes.Panels == "" {
		routes.Panels = "/trending/panels"
	}
	if routes.PanelID == "" {
		routes.PanelID = "/trending/panels/:id"
	}
	if routes.Move == "" {
		routes.Move = "/trending/panels/move"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/trending/panels/refresh"
	}
	if routes.Resize == "" {
		routes.Resize = "/trending/panels/:id/resize"
	}
	if routes.ViewMode == "" {
		routes.ViewMode = "/trending/panels/:id/view-mode"
	}
	if routes.Toggle == "" {
		routes.Toggle = "/trending/panels/:id/units/:unit/toggle"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/trending/ws"
	}
	return routes
}
