package trending

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// BoardOptions configures a Board.
type BoardOptions struct {
	Store                PanelStore
	Units                UnitSource
	Data                 DataSource
	Hook                 EventHook
	Telemetry            Telemetry
	Translator           TranslationService
	Clock                func() time.Time
	Policy               PersistPolicy
	MaxConcurrentFetches int
	// ResizeThreshold is the horizontal displacement in pixels that triggers
	// one span step.
	ResizeThreshold float64
}

// Board is the ordered collection of panels. Each panel is owned by its own
// Coordinator; the board only owns their order.
type Board struct {
	opts BoardOptions

	mu     sync.Mutex
	panels []*Coordinator
	units  []Unit
	drag   *dragState
	resize *resizeState
}

type dragState struct {
	id       ID
	original []ID
}

type resizeState struct {
	coordinator *Coordinator
	machine     *SpanMachine
	tracker     *ResizeTracker
}

// NewBoard builds an empty board. Call Load to populate it.
func NewBoard(opts BoardOptions) *Board {
	if opts.Hook == nil {
		opts.Hook = noopEventHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ResizeThreshold <= 0 {
		opts.ResizeThreshold = DefaultResizeThreshold
	}
	return &Board{opts: opts}
}

func (b *Board) coordinatorOptions() CoordinatorOptions {
	return CoordinatorOptions{
		Store:                b.opts.Store,
		Data:                 b.opts.Data,
		Hook:                 b.opts.Hook,
		Telemetry:            b.opts.Telemetry,
		Clock:                b.opts.Clock,
		Policy:               b.opts.Policy,
		MaxConcurrentFetches: b.opts.MaxConcurrentFetches,
	}
}

// Load replaces the board content with the stored panels, ordered by their
// persisted order, and refreshes the unit catalog.
func (b *Board) Load(ctx context.Context) error {
	if b.opts.Store == nil {
		return errMissingPanelStore
	}
	var units []Unit
	if b.opts.Units != nil {
		list, err := b.opts.Units.ListUnits(ctx)
		if err != nil {
			return fmt.Errorf("trending: list units: %w", err)
		}
		units = list
	}
	panels, err := b.opts.Store.ListPanels(ctx)
	if err != nil {
		return fmt.Errorf("trending: list panels: %w", err)
	}
	sort.SliceStable(panels, func(i, j int) bool { return panels[i].Order < panels[j].Order })

	coordinators := make([]*Coordinator, 0, len(panels))
	for i, panel := range panels {
		panel.Order = i
		coordinators = append(coordinators, NewCoordinator(panel, units, b.coordinatorOptions()))
	}

	b.mu.Lock()
	b.panels = coordinators
	b.units = units
	b.drag = nil
	b.resize = nil
	b.mu.Unlock()

	b.opts.Telemetry.Record(ctx, "trending.board.load", map[string]any{
		"panels": len(coordinators),
		"units":  len(units),
	})
	return nil
}

// Units returns the unit catalog loaded with the board.
func (b *Board) Units() []Unit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.units)
}

// SetUnits replaces the unit catalog on the board and on every panel.
func (b *Board) SetUnits(units []Unit) {
	b.mu.Lock()
	b.units = slices.Clone(units)
	panels := slices.Clone(b.panels)
	b.mu.Unlock()
	for _, c := range panels {
		c.SetCatalog(units)
	}
}

// Panels returns the panels in display order.
func (b *Board) Panels() []Panel {
	b.mu.Lock()
	coordinators := slices.Clone(b.panels)
	b.mu.Unlock()
	out := make([]Panel, 0, len(coordinators))
	for i, c := range coordinators {
		panel := c.Panel()
		panel.Order = i
		out = append(out, panel)
	}
	return out
}

// Order returns the panel ids in display order.
func (b *Board) Order() []ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orderLocked()
}

func (b *Board) orderLocked() []ID {
	ids := make([]ID, 0, len(b.panels))
	for _, c := range b.panels {
		ids = append(ids, c.ID())
	}
	return ids
}

// Coordinator returns the coordinator owning id.
func (b *Board) Coordinator(id ID) (*Coordinator, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx := b.indexLocked(id); idx >= 0 {
		return b.panels[idx], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, id)
}

// Panel returns the current configuration of id.
func (b *Board) Panel(id ID) (Panel, error) {
	c, err := b.Coordinator(id)
	if err != nil {
		return Panel{}, err
	}
	return c.Panel(), nil
}

func (b *Board) indexLocked(id ID) int {
	for i, c := range b.panels {
		if c.ID() == id {
			return i
		}
	}
	return -1
}

// Create persists a new panel with the localized default name and inserts it
// at the head of the board. Aggregation, period and column start unset.
func (b *Board) Create(ctx context.Context, locale string) (Panel, error) {
	if b.opts.Store == nil {
		return Panel{}, errMissingPanelStore
	}
	draft := Panel{
		Name:     DefaultPanelName(ctx, b.opts.Translator, locale),
		ViewMode: ViewLineChart,
		UnitIDs:  []ID{},
		ColSpan:  MinSpan,
	}
	created, err := b.opts.Store.CreatePanel(ctx, draft)
	if err != nil {
		return Panel{}, fmt.Errorf("trending: create panel: %w", err)
	}
	if created.ID == "" {
		return Panel{}, errPanelIDRequired
	}

	b.mu.Lock()
	c := NewCoordinator(created, b.units, b.coordinatorOptions())
	b.panels = append([]*Coordinator{c}, b.panels...)
	b.renumberLocked()
	b.mu.Unlock()

	panel := c.Panel()
	b.opts.Telemetry.Record(ctx, "trending.panel.create", map[string]any{"panel_id": string(panel.ID)})
	_ = b.opts.Hook.PanelUpdated(ctx, PanelEvent{PanelID: panel.ID, Reason: EventCreate})
	return panel, nil
}

// Delete removes the panel locally and then from the store. With
// PersistRevert a failed delete puts the panel back in its slot.
func (b *Board) Delete(ctx context.Context, id ID) error {
	b.mu.Lock()
	idx := b.indexLocked(id)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPanelNotFound, id)
	}
	removed := b.panels[idx]
	b.panels = slices.Delete(b.panels, idx, idx+1)
	b.renumberLocked()
	b.mu.Unlock()

	if b.opts.Store == nil {
		return nil
	}
	err := b.opts.Store.DeletePanel(ctx, id)
	if err != nil && b.opts.Policy == PersistRetryOnce {
		err = b.opts.Store.DeletePanel(ctx, id)
	}
	if err != nil {
		err = fmt.Errorf("trending: delete panel %s: %w", id, err)
		if b.opts.Policy == PersistRevert {
			b.mu.Lock()
			b.panels = slices.Insert(b.panels, min(idx, len(b.panels)), removed)
			b.renumberLocked()
			b.mu.Unlock()
		}
		b.notice(ctx, id, "delete", err)
		return err
	}
	b.opts.Telemetry.Record(ctx, "trending.panel.delete", map[string]any{"panel_id": string(id)})
	_ = b.opts.Hook.PanelUpdated(ctx, PanelEvent{PanelID: id, Reason: EventDelete})
	return nil
}

// BeginDrag starts a reorder gesture for id. A drag already in progress is
// abandoned in its current order.
func (b *Board) BeginDrag(id ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrPanelNotFound, id)
	}
	b.drag = &dragState{id: id, original: b.orderLocked()}
	return nil
}

// DragEnter splices the dragged panel into target's slot immediately. The
// dragged panel takes target's former index; every other panel keeps its
// relative order.
func (b *Board) DragEnter(target ID) ([]ID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drag == nil {
		return nil, ErrNoDragInProgress
	}
	from := b.indexLocked(b.drag.id)
	to := b.indexLocked(target)
	if to < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, target)
	}
	if from < 0 {
		id := b.drag.id
		b.drag = nil
		return nil, fmt.Errorf("%w: %s", ErrPanelNotFound, id)
	}
	if from != to {
		dragged := b.panels[from]
		b.panels = slices.Delete(b.panels, from, from+1)
		b.panels = slices.Insert(b.panels, to, dragged)
	}
	return b.orderLocked(), nil
}

// CancelDrag restores the relative order from before BeginDrag. Panels
// created or deleted while dragging stay created or deleted.
func (b *Board) CancelDrag() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drag == nil {
		return
	}
	b.restoreOrderLocked(b.drag.original)
	b.drag = nil
}

// EndDrag finishes the gesture and persists the full order in one batch.
func (b *Board) EndDrag(ctx context.Context) ([]PanelOrder, error) {
	b.mu.Lock()
	if b.drag == nil {
		b.mu.Unlock()
		return nil, ErrNoDragInProgress
	}
	drag := b.drag
	b.drag = nil
	b.renumberLocked()
	order := b.panelOrderLocked()
	b.mu.Unlock()

	if err := b.persistOrder(ctx, order); err != nil {
		if b.opts.Policy == PersistRevert {
			b.mu.Lock()
			b.restoreOrderLocked(drag.original)
			b.mu.Unlock()
		}
		b.notice(ctx, drag.id, "order", err)
		return order, err
	}
	b.opts.Telemetry.Record(ctx, "trending.board.reorder", map[string]any{
		"panel_id": string(drag.id),
		"panels":   len(order),
	})
	_ = b.opts.Hook.PanelUpdated(ctx, PanelEvent{PanelID: drag.id, Reason: EventReorder})
	return order, nil
}

// Move is a complete drag of id onto target, as issued by non-pointer
// clients.
func (b *Board) Move(ctx context.Context, id, target ID) ([]PanelOrder, error) {
	if err := b.BeginDrag(id); err != nil {
		return nil, err
	}
	if _, err := b.DragEnter(target); err != nil {
		b.CancelDrag()
		return nil, err
	}
	return b.EndDrag(ctx)
}

func (b *Board) persistOrder(ctx context.Context, order []PanelOrder) error {
	if b.opts.Store == nil {
		return nil
	}
	err := b.opts.Store.ReorderPanels(ctx, order)
	if err != nil && b.opts.Policy == PersistRetryOnce {
		err = b.opts.Store.ReorderPanels(ctx, order)
	}
	if err != nil {
		return fmt.Errorf("trending: reorder panels: %w", err)
	}
	return nil
}

func (b *Board) panelOrderLocked() []PanelOrder {
	out := make([]PanelOrder, 0, len(b.panels))
	for i, c := range b.panels {
		out = append(out, PanelOrder{ID: c.ID(), Order: i})
	}
	return out
}

// restoreOrderLocked sorts the current panels by their rank in original.
// Panels missing from original were created since and keep the head.
func (b *Board) restoreOrderLocked(original []ID) {
	rank := make(map[ID]int, len(original))
	for i, id := range original {
		rank[id] = i
	}
	rankOf := func(c *Coordinator) int {
		if r, ok := rank[c.ID()]; ok {
			return r
		}
		return -1
	}
	slices.SortStableFunc(b.panels, func(x, y *Coordinator) int {
		return cmp.Compare(rankOf(x), rankOf(y))
	})
	b.renumberLocked()
}

func (b *Board) renumberLocked() {
	for i, c := range b.panels {
		c.setOrder(i)
	}
}

// BeginResize starts a resize gesture on id from its current span.
func (b *Board) BeginResize(id ID) error {
	c, err := b.Coordinator(id)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resize = &resizeState{
		coordinator: c,
		machine:     NewSpanMachine(c.Panel().ColSpan),
		tracker:     NewResizeTracker(b.opts.ResizeThreshold),
	}
	return nil
}

// ResizeMove feeds the cumulative horizontal displacement since BeginResize.
// Every threshold crossing that changes the span is applied and persisted on
// its own.
func (b *Board) ResizeMove(ctx context.Context, dx float64) (Span, error) {
	b.mu.Lock()
	state := b.resize
	b.mu.Unlock()
	if state == nil {
		return 0, ErrNoResizeInProgress
	}
	var errs []error
	for _, dir := range state.tracker.Move(dx) {
		span, changed := state.machine.OnThresholdCrossed(dir)
		if !changed {
			continue
		}
		if err := state.coordinator.SetSpan(ctx, span); err != nil {
			errs = append(errs, err)
			// A reverted step must not leave the machine ahead of the panel.
			state.machine = NewSpanMachine(state.coordinator.Panel().ColSpan)
		}
	}
	return state.coordinator.Panel().ColSpan, errors.Join(errs...)
}

// EndResize finishes the gesture and returns the final span.
func (b *Board) EndResize() (Span, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resize == nil {
		return 0, ErrNoResizeInProgress
	}
	span := b.resize.coordinator.Panel().ColSpan
	b.resize = nil
	return span, nil
}

// RefreshAll refreshes every panel concurrently. Panels fail independently;
// the returned error joins every failure.
func (b *Board) RefreshAll(ctx context.Context) error {
	b.mu.Lock()
	coordinators := slices.Clone(b.panels)
	b.mu.Unlock()

	errs := make([]error, len(coordinators))
	var g errgroup.Group
	for i, c := range coordinators {
		g.Go(func() error {
			if _, err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleRefresh) {
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (b *Board) notice(ctx context.Context, id ID, field string, err error) {
	b.opts.Telemetry.Record(ctx, "trending.board.error", map[string]any{
		"panel_id": string(id),
		"field":    field,
		"error":    err.Error(),
	})
	_ = b.opts.Hook.PanelUpdated(ctx, PanelEvent{
		PanelID: id,
		Reason:  EventNotice,
		Field:   field,
		Message: UserMessage(err),
	})
}
