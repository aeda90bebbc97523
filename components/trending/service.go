package trending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-trending/pkg/activity"
)

const activityObjectType = "trending_panel"

// Options configures the trending Service. Every collaborator is provided via
// interface so applications can swap implementations freely.
type Options struct {
	Store      PanelStore
	Units      UnitSource
	Data       DataSource
	Hook       EventHook
	Telemetry  Telemetry
	Translator TranslationService
	Validator  PanelValidator
	Renderer   *ChartRenderer
	Clock      func() time.Time
	Policy     PersistPolicy

	MaxConcurrentFetches int
	ResizeThreshold      float64

	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
}

// Service exposes every panel operation used by commands and transports.
type Service struct {
	opts     Options
	board    *Board
	activity *activity.Emitter
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Hook == nil {
		opts.Hook = noopEventHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Renderer == nil {
		opts.Renderer = NewChartRenderer(WithRendererTranslator(opts.Translator))
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	board := NewBoard(BoardOptions{
		Store:                opts.Store,
		Units:                opts.Units,
		Data:                 opts.Data,
		Hook:                 opts.Hook,
		Telemetry:            opts.Telemetry,
		Translator:           opts.Translator,
		Clock:                opts.Clock,
		Policy:               opts.Policy,
		MaxConcurrentFetches: opts.MaxConcurrentFetches,
		ResizeThreshold:      opts.ResizeThreshold,
	})
	return &Service{
		opts:     opts,
		board:    board,
		activity: activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
	}
}

// Board exposes the underlying board for gesture-level access.
func (s *Service) Board() *Board {
	return s.board
}

// Load fetches units and panels from the collaborators.
func (s *Service) Load(ctx context.Context) error {
	return s.board.Load(ctx)
}

// Panels returns the panels in display order.
func (s *Service) Panels() []Panel {
	return s.board.Panels()
}

// Units returns the loaded unit catalog.
func (s *Service) Units() []Unit {
	return s.board.Units()
}

// Columns returns the columns of a unit straight from the data source.
func (s *Service) Columns(ctx context.Context, unitID ID) ([]Column, error) {
	if s.opts.Data == nil {
		return nil, errMissingDataSource
	}
	return s.opts.Data.ListColumns(ctx, unitID)
}

// Snapshot returns the current state of a panel without fetching.
func (s *Service) Snapshot(id ID) (Snapshot, error) {
	c, err := s.board.Coordinator(id)
	if err != nil {
		return Snapshot{}, err
	}
	return c.Snapshot(), nil
}

// CreatePanelRequest captures the data required to create a panel.
type CreatePanelRequest struct {
	Locale string
}

// CreatePanel inserts a new panel at the head of the board.
func (s *Service) CreatePanel(ctx context.Context, req CreatePanelRequest) (Panel, error) {
	panel, err := s.board.Create(ctx, req.Locale)
	if err != nil {
		return Panel{}, err
	}
	s.emitActivity(ctx, "trending.panel.create", panel.ID, map[string]any{
		"name": panel.Name,
	})
	return panel, nil
}

// PanelPatch is a partial panel update. Nil fields are left untouched;
// ClearColumn resets the column filter to all columns.
type PanelPatch struct {
	Name            *string          `json:"name,omitempty"`
	AggregationType *AggregationType `json:"aggregationType,omitempty"`
	Period          *Period          `json:"period,omitempty"`
	ViewMode        *ViewMode        `json:"viewMode,omitempty"`
	UnitIDs         *[]ID            `json:"unitIds,omitempty"`
	UnitColumnID    *ID              `json:"unitColumnId,omitempty"`
	ClearColumn     bool             `json:"-"`
	CustomStartDate *Date            `json:"customStartDate,omitempty"`
	CustomEndDate   *Date            `json:"customEndDate,omitempty"`
	ColSpan         *Span            `json:"colSpan,omitempty"`
	ShowInfo        *bool            `json:"showInfo,omitempty"`
}

// Fields lists the payload keys carried by the patch.
func (p PanelPatch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.AggregationType != nil, "aggregationType")
	add(p.Period != nil, "period")
	add(p.ViewMode != nil, "viewMode")
	add(p.UnitIDs != nil, "unitIds")
	add(p.UnitColumnID != nil || p.ClearColumn, "unitColumnId")
	add(p.CustomStartDate != nil, "customStartDate")
	add(p.CustomEndDate != nil, "customEndDate")
	add(p.ColSpan != nil, "colSpan")
	add(p.ShowInfo != nil, "showInfo")
	return out
}

// DecodePanelPatch validates payload against the panel schema and decodes it.
// A null unitColumnId clears the column filter; a null aggregation or period
// is ignored.
func (s *Service) DecodePanelPatch(payload map[string]any) (PanelPatch, error) {
	if err := s.opts.Validator.Validate(payload); err != nil {
		return PanelPatch{}, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return PanelPatch{}, fmt.Errorf("trending: marshal panel patch: %w", err)
	}
	var patch PanelPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		return PanelPatch{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if raw, ok := payload["unitColumnId"]; ok && (raw == nil || raw == ColumnAll) {
		patch.UnitColumnID = nil
		patch.ClearColumn = true
	}
	return patch, nil
}

// UpdatePanel applies patch to the panel. Display edits persist one by one;
// filter edits persist together and trigger a single refetch. The returned
// snapshot reflects the optimistic state even when persistence failed.
func (s *Service) UpdatePanel(ctx context.Context, id ID, patch PanelPatch) (Snapshot, error) {
	c, err := s.board.Coordinator(id)
	if err != nil {
		return Snapshot{}, err
	}
	var errs []error
	if patch.Name != nil {
		errs = append(errs, c.Rename(ctx, *patch.Name))
	}
	if patch.ShowInfo != nil {
		errs = append(errs, c.SetShowInfo(ctx, *patch.ShowInfo))
	}
	if patch.ViewMode != nil {
		errs = append(errs, c.SetViewMode(ctx, *patch.ViewMode))
	}
	if patch.ColSpan != nil {
		errs = append(errs, c.SetSpan(ctx, *patch.ColSpan))
	}
	if patch.AggregationType != nil {
		errs = append(errs, c.SetAggregation(ctx, *patch.AggregationType))
	}
	if patch.UnitColumnID != nil || patch.ClearColumn {
		errs = append(errs, c.SetColumn(ctx, patch.UnitColumnID))
	}
	errs = append(errs, c.SetFilters(ctx, FilterChange{
		Units:       patch.UnitIDs,
		Period:      patch.Period,
		CustomStart: patch.CustomStartDate,
		CustomEnd:   patch.CustomEndDate,
	}))
	err = errors.Join(errs...)

	s.emitActivity(ctx, "trending.panel.update", id, map[string]any{
		"fields": patch.Fields(),
	})
	return c.Snapshot(), err
}

// DeletePanel removes a panel.
func (s *Service) DeletePanel(ctx context.Context, id ID) error {
	if id == "" {
		return errPanelIDRequired
	}
	if err := s.board.Delete(ctx, id); err != nil {
		return err
	}
	s.emitActivity(ctx, "trending.panel.delete", id, nil)
	return nil
}

// MovePanel drags id onto target's slot and persists the new order.
func (s *Service) MovePanel(ctx context.Context, id, target ID) ([]PanelOrder, error) {
	order, err := s.board.Move(ctx, id, target)
	if err != nil {
		return order, err
	}
	s.emitActivity(ctx, "trending.panel.reorder", id, map[string]any{
		"target": string(target),
		"count":  len(order),
	})
	return order, nil
}

// ResizePanel runs a complete resize gesture with the given cumulative
// horizontal displacement.
func (s *Service) ResizePanel(ctx context.Context, id ID, dx float64) (Span, error) {
	before, err := s.board.Coordinator(id)
	if err != nil {
		return 0, err
	}
	from := before.Panel().ColSpan
	if err := s.board.BeginResize(id); err != nil {
		return 0, err
	}
	_, moveErr := s.board.ResizeMove(ctx, dx)
	span, err := s.board.EndResize()
	if err != nil {
		return 0, err
	}
	if span != from {
		s.emitActivity(ctx, "trending.panel.resize", id, map[string]any{
			"from": int(from),
			"to":   int(span),
		})
	}
	return span, moveErr
}

// CycleViewMode advances the panel view mode and persists it.
func (s *Service) CycleViewMode(ctx context.Context, id ID) (ViewMode, error) {
	c, err := s.board.Coordinator(id)
	if err != nil {
		return "", err
	}
	mode, err := c.CycleViewMode(ctx)
	s.emitActivity(ctx, "trending.panel.view_mode", id, map[string]any{"mode": string(mode)})
	return mode, err
}

// ToggleUnit flips a unit in the panel visibility mask. Not persisted.
func (s *Service) ToggleUnit(_ context.Context, id, unit ID) (Snapshot, error) {
	c, err := s.board.Coordinator(id)
	if err != nil {
		return Snapshot{}, err
	}
	return c.ToggleUnit(unit), nil
}

// RefreshPanel refetches one panel.
func (s *Service) RefreshPanel(ctx context.Context, id ID) (Snapshot, error) {
	c, err := s.board.Coordinator(id)
	if err != nil {
		return Snapshot{}, err
	}
	return c.Refresh(ctx)
}

// RefreshAll refetches every panel.
func (s *Service) RefreshAll(ctx context.Context) error {
	return s.board.RefreshAll(ctx)
}

// RenderPanel renders a panel in its current mode for locale.
func (s *Service) RenderPanel(ctx context.Context, id ID, locale string) (RenderedPanel, error) {
	c, err := s.board.Coordinator(id)
	if err != nil {
		return RenderedPanel{}, err
	}
	return s.render(ctx, c.Snapshot(), locale)
}

// RenderBoard renders every panel in display order.
func (s *Service) RenderBoard(ctx context.Context, locale string) ([]RenderedPanel, error) {
	panels := s.board.Panels()
	out := make([]RenderedPanel, 0, len(panels))
	for _, panel := range panels {
		rendered, err := s.RenderPanel(ctx, panel.ID, locale)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	s.recordTelemetry(ctx, "trending.board.render", map[string]any{
		"panels": len(out),
		"locale": locale,
	})
	return out, nil
}

func (s *Service) render(ctx context.Context, snap Snapshot, locale string) (RenderedPanel, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	return s.opts.Renderer.Render(ctx, RenderInput{
		Panel:      snap.Panel,
		Aggregates: snap.Aggregates,
		Hidden:     snap.Hidden,
		Units:      s.board.Units(),
		Locale:     locale,
	})
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) emitActivity(ctx context.Context, verb string, id ID, meta map[string]any) {
	if !s.activity.Enabled() {
		return
	}
	actor := activityContextFrom(ctx)
	err := s.activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    actor.ActorID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		ObjectType: activityObjectType,
		ObjectID:   string(id),
		Metadata:   meta,
		OccurredAt: s.opts.Clock().UTC(),
	})
	if err != nil {
		s.recordTelemetry(ctx, "trending.activity.error", map[string]any{
			"verb":  verb,
			"error": err.Error(),
		})
	}
}

// ActivityContext captures actor/user/tenant identifiers for activity events.
type ActivityContext struct {
	ActorID  string
	UserID   string
	TenantID string
}

type activityContextKey struct{}

// ContextWithActivity stores activity context on ctx.
func ContextWithActivity(ctx context.Context, meta ActivityContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, activityContextKey{}, meta)
}

func activityContextFrom(ctx context.Context) ActivityContext {
	if meta, ok := ctx.Value(activityContextKey{}).(ActivityContext); ok {
		return meta
	}
	return ActivityContext{}
}
