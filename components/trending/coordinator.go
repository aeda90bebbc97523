package trending

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// PersistPolicy decides what happens to an optimistic edit when the backing
// store rejects it. The error is always surfaced through the event hook.
type PersistPolicy int

const (
	// PersistKeep retains the optimistic value; local and remote state may
	// diverge until the next full reload.
	PersistKeep PersistPolicy = iota
	// PersistRetryOnce retries the write once before keeping the local value.
	PersistRetryOnce
	// PersistRevert restores the last known good configuration.
	PersistRevert
)

const defaultMaxConcurrentFetches = 8

// CoordinatorOptions configures a Coordinator.
type CoordinatorOptions struct {
	Store     PanelStore
	Data      DataSource
	Hook      EventHook
	Telemetry Telemetry
	Clock     func() time.Time
	Policy    PersistPolicy
	// MaxConcurrentFetches bounds concurrent per-unit requests of one refresh.
	MaxConcurrentFetches int
}

func (o CoordinatorOptions) normalize() CoordinatorOptions {
	if o.Hook == nil {
		o.Hook = noopEventHook{}
	}
	o.Telemetry = normalizeTelemetry(o.Telemetry)
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.MaxConcurrentFetches <= 0 {
		o.MaxConcurrentFetches = defaultMaxConcurrentFetches
	}
	return o
}

// Snapshot is a consistent view of a panel and its derived data.
type Snapshot struct {
	Panel      Panel            `json:"panel"`
	Range      DateRange        `json:"range"`
	Aggregates []DailyAggregate `json:"aggregates"`
	Columns    []Column         `json:"columns"`
	Hidden     []ID             `json:"hidden"`
	Icons      IconPair         `json:"icons"`
	Generation uint64           `json:"generation"`
	LastError  string           `json:"last_error,omitempty"`
}

// Coordinator owns one panel's configuration, fetch lifecycle, visibility
// mask and last good aggregate.
type Coordinator struct {
	opts CoordinatorOptions

	mu         sync.Mutex
	panel      Panel
	catalog    []Unit
	generation uint64
	cancel     context.CancelFunc

	samples    []RawSample
	samplesFor []ID
	columns    []Column
	window     DateRange
	aggregates []DailyAggregate
	lastErr    error
	visibility *Visibility
}

// NewCoordinator builds a coordinator for panel. catalog is the list of units
// known to the collaborator and is used for creation-date clamping.
func NewCoordinator(panel Panel, catalog []Unit, opts CoordinatorOptions) *Coordinator {
	panel.ColSpan = panel.ColSpan.Normalize()
	if !panel.ViewMode.Valid() {
		panel.ViewMode = ViewLineChart
	}
	return &Coordinator{
		opts:       opts.normalize(),
		panel:      panel.Clone(),
		catalog:    append([]Unit(nil), catalog...),
		aggregates: []DailyAggregate{},
		visibility: NewVisibility(),
	}
}

// ID returns the panel id.
func (c *Coordinator) ID() ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel.ID
}

// Panel returns a copy of the current (possibly optimistic) configuration.
func (c *Coordinator) Panel() Panel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel.Clone()
}

// SetCatalog replaces the unit catalog used for creation-date clamping.
func (c *Coordinator) SetCatalog(units []Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = append([]Unit(nil), units...)
}

// Snapshot returns the current state without fetching.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Panel:      c.panel.Clone(),
		Range:      c.window,
		Aggregates: slices.Clone(c.aggregates),
		Columns:    slices.Clone(c.columns),
		Hidden:     c.visibility.Hidden(),
		Icons:      c.panel.ViewMode.Icons(),
		Generation: c.generation,
	}
	if snap.Aggregates == nil {
		snap.Aggregates = []DailyAggregate{}
	}
	if c.lastErr != nil {
		snap.LastError = UserMessage(c.lastErr)
	}
	return snap
}

// Refresh resolves the period, fetches columns and samples for every
// selected unit concurrently and rebuilds the aggregates. A refresh started
// later always wins: the earlier one is cancelled and, should its response
// still arrive, discarded with ErrStaleRefresh. On fetch failure the last good
// aggregate is kept and the error is surfaced.
func (c *Coordinator) Refresh(ctx context.Context) (Snapshot, error) {
	if c.opts.Data == nil {
		return Snapshot{}, errMissingDataSource
	}
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	panel := c.panel.Clone()
	units := panel.DistinctUnits()
	query := c.periodQueryLocked(panel, units)
	c.mu.Unlock()
	defer cancel()

	resolution := ResolvePeriod(query)
	if resolution.Seeded {
		window := resolution.Range
		_ = c.edit(ctx, "customDates", func(p *Panel) {
			if p.CustomStartDate == nil || p.CustomEndDate == nil {
				p.CustomStartDate = window.Start.Ptr()
				p.CustomEndDate = window.End.Ptr()
			}
		})
	}
	window := resolution.Range

	if !window.Fetchable() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation {
			return Snapshot{}, ErrStaleRefresh
		}
		c.samples = nil
		c.samplesFor = units
		c.columns = nil
		c.window = window
		c.lastErr = nil
		c.rebuildLocked()
		return c.snapshotLocked(), nil
	}

	started := c.opts.Clock()
	columns, samples, err := c.fetch(fetchCtx, units, window)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return Snapshot{}, ErrStaleRefresh
	}
	if err != nil {
		c.lastErr = err
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.surface(ctx, panel.ID, "refresh", err)
		return snap, err
	}
	if window.OpenStart() || panel.Period == PeriodAllTime {
		query.EarliestSample = EarliestSampleDate(samples)
		window = ResolvePeriod(query).Range
	}
	c.samples = clipSamples(samples, window)
	c.samplesFor = units
	c.columns = columns
	c.window = window
	c.lastErr = nil
	c.rebuildLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.opts.Telemetry.Record(ctx, "trending.panel.refresh", map[string]any{
		"panel_id": string(panel.ID),
		"units":    len(units),
		"days":     len(snap.Aggregates),
		"elapsed":  c.opts.Clock().Sub(started).String(),
	})
	_ = c.opts.Hook.PanelUpdated(ctx, PanelEvent{PanelID: panel.ID, Reason: EventRefresh})
	return snap, nil
}

func (c *Coordinator) periodQueryLocked(panel Panel, units []ID) PeriodQuery {
	query := PeriodQuery{
		Period:       panel.Period,
		Now:          c.opts.Clock(),
		Selected:     len(units),
		CreationDate: EarliestCreation(c.catalog, units),
	}
	if panel.CustomStartDate != nil {
		query.CustomStart = *panel.CustomStartDate
	}
	if panel.CustomEndDate != nil {
		query.CustomEnd = *panel.CustomEndDate
	}
	if panel.Period == PeriodAllTime && slices.Equal(c.samplesFor, units) {
		query.EarliestSample = EarliestSampleDate(c.samples)
	}
	return query
}

func (c *Coordinator) fetch(ctx context.Context, units []ID, window DateRange) ([]Column, []RawSample, error) {
	columns := make([][]Column, len(units))
	samples := make([][]RawSample, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.MaxConcurrentFetches)
	for i, id := range units {
		g.Go(func() error {
			cols, err := c.opts.Data.ListColumns(gctx, id)
			if err != nil {
				return fmt.Errorf("trending: list columns for unit %s: %w", id, err)
			}
			columns[i] = cols
			return nil
		})
		g.Go(func() error {
			rows, err := c.opts.Data.ListSamples(gctx, id, window)
			if err != nil {
				return fmt.Errorf("trending: list samples for unit %s: %w", id, err)
			}
			samples[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return mergeColumns(columns), slices.Concat(samples...), nil
}

func mergeColumns(perUnit [][]Column) []Column {
	seen := map[ID]struct{}{}
	var out []Column
	for _, cols := range perUnit {
		for _, col := range cols {
			if _, ok := seen[col.ID]; ok {
				continue
			}
			seen[col.ID] = struct{}{}
			out = append(out, col)
		}
	}
	return out
}

func clipSamples(samples []RawSample, window DateRange) []RawSample {
	out := make([]RawSample, 0, len(samples))
	for _, s := range samples {
		if window.Contains(s.Date) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Coordinator) rebuildLocked() {
	c.aggregates = BuildAggregates(c.samples, AggregateOptions{
		ColumnID:    c.panel.ColumnFilter(),
		Aggregation: c.panel.AggregationType,
		UnitIDs:     c.panel.DistinctUnits(),
		Hidden:      c.visibility.Snapshot(),
	})
}

// Aggregates returns the current daily aggregates.
func (c *Coordinator) Aggregates() []DailyAggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.aggregates)
}

// ToggleUnit flips a unit's visibility in the composite and rebuilds the
// aggregates from cached samples. Nothing is persisted.
func (c *Coordinator) ToggleUnit(id ID) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visibility.Toggle(id)
	c.rebuildLocked()
	return c.snapshotLocked()
}

// Rename updates the panel name.
func (c *Coordinator) Rename(ctx context.Context, name string) error {
	return c.edit(ctx, "name", func(p *Panel) { p.Name = name })
}

// SetShowInfo toggles the info block.
func (c *Coordinator) SetShowInfo(ctx context.Context, show bool) error {
	return c.edit(ctx, "showInfo", func(p *Panel) { p.ShowInfo = show })
}

// SetAggregation switches between Total and Average.
func (c *Coordinator) SetAggregation(ctx context.Context, aggregation AggregationType) error {
	if !aggregation.Valid() {
		return fmt.Errorf("%w: aggregation %q", ErrInvalidConfiguration, aggregation)
	}
	return c.editAndRebuild(ctx, "aggregationType", func(p *Panel) { p.AggregationType = aggregation })
}

// SetColumn selects one column; nil or ColumnAll selects every column.
func (c *Coordinator) SetColumn(ctx context.Context, column *ID) error {
	return c.editAndRebuild(ctx, "unitColumnId", func(p *Panel) {
		if column == nil || *column == "" || *column == ColumnAll {
			p.UnitColumnID = nil
			return
		}
		id := *column
		p.UnitColumnID = &id
	})
}

// SetViewMode persists an explicit view mode.
func (c *Coordinator) SetViewMode(ctx context.Context, mode ViewMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: view mode %q", ErrInvalidConfiguration, mode)
	}
	return c.edit(ctx, "viewMode", func(p *Panel) { p.ViewMode = mode })
}

// CycleViewMode advances the view mode and persists it immediately.
func (c *Coordinator) CycleViewMode(ctx context.Context) (ViewMode, error) {
	var next ViewMode
	err := c.edit(ctx, "viewMode", func(p *Panel) {
		p.ViewMode = p.ViewMode.Next()
		next = p.ViewMode
	})
	return next, err
}

// SetSpan persists a new column span.
func (c *Coordinator) SetSpan(ctx context.Context, span Span) error {
	if !span.Valid() {
		return fmt.Errorf("%w: span %d", ErrInvalidConfiguration, span)
	}
	return c.edit(ctx, "colSpan", func(p *Panel) { p.ColSpan = span })
}

// FilterChange groups the edits that invalidate fetched samples. Nil fields
// are left untouched.
type FilterChange struct {
	Units       *[]ID
	Period      *Period
	CustomStart *Date
	CustomEnd   *Date
}

// IsZero reports whether the change carries no edit.
func (f FilterChange) IsZero() bool {
	return f.Units == nil && f.Period == nil && f.CustomStart == nil && f.CustomEnd == nil
}

// SetFilters applies every filter edit in one persisted write and refetches
// once.
func (c *Coordinator) SetFilters(ctx context.Context, change FilterChange) error {
	if change.IsZero() {
		return nil
	}
	if change.Period != nil && !change.Period.Valid() {
		return fmt.Errorf("%w: period %q", ErrInvalidConfiguration, *change.Period)
	}
	persistErr := c.edit(ctx, "filters", func(p *Panel) {
		if change.Units != nil {
			p.UnitIDs = append([]ID(nil), (*change.Units)...)
		}
		if change.Period != nil {
			p.Period = *change.Period
		}
		if change.CustomStart != nil {
			p.CustomStartDate = change.CustomStart.Ptr()
		}
		if change.CustomEnd != nil {
			p.CustomEndDate = change.CustomEnd.Ptr()
		}
	})
	if change.Units != nil {
		c.visibility.Retain(*change.Units)
	}
	return c.refreshAfterEdit(ctx, persistErr)
}

// SetUnits changes the selected units and refetches.
func (c *Coordinator) SetUnits(ctx context.Context, units []ID) error {
	return c.SetFilters(ctx, FilterChange{Units: &units})
}

// SetPeriod changes the period and refetches.
func (c *Coordinator) SetPeriod(ctx context.Context, period Period) error {
	return c.SetFilters(ctx, FilterChange{Period: &period})
}

// SetCustomRange stores custom dates and refetches. An inverted range is
// accepted and yields an empty aggregate without any fetch.
func (c *Coordinator) SetCustomRange(ctx context.Context, start, end Date) error {
	return c.SetFilters(ctx, FilterChange{CustomStart: &start, CustomEnd: &end})
}

func (c *Coordinator) refreshAfterEdit(ctx context.Context, persistErr error) error {
	_, err := c.Refresh(ctx)
	if errors.Is(err, ErrStaleRefresh) {
		err = nil
	}
	return errors.Join(persistErr, err)
}

func (c *Coordinator) editAndRebuild(ctx context.Context, field string, mutate func(*Panel)) error {
	// mutate runs with c.mu held, so the rebuild sees the edited panel.
	return c.edit(ctx, field, func(p *Panel) {
		mutate(p)
		c.rebuildLocked()
	})
}

// edit applies mutate optimistically and persists the result according to
// the persist policy. The returned error is the persistence failure, if any.
func (c *Coordinator) edit(ctx context.Context, field string, mutate func(*Panel)) error {
	c.mu.Lock()
	previous := c.panel.Clone()
	mutate(&c.panel)
	next := c.panel.Clone()
	c.mu.Unlock()

	if c.opts.Store == nil {
		return nil
	}
	err := c.persist(ctx, next)
	if err != nil && c.opts.Policy == PersistRetryOnce {
		err = c.persist(ctx, next)
	}
	if err == nil {
		_ = c.opts.Hook.PanelUpdated(ctx, PanelEvent{PanelID: next.ID, Reason: EventUpdate, Field: field})
		return nil
	}
	if c.opts.Policy == PersistRevert {
		c.mu.Lock()
		if panelsEqual(c.panel, next) {
			c.panel = previous
			c.rebuildLocked()
		}
		c.mu.Unlock()
	}
	c.surface(ctx, next.ID, field, err)
	return err
}

func (c *Coordinator) persist(ctx context.Context, panel Panel) error {
	if err := c.opts.Store.UpdatePanel(ctx, panel); err != nil {
		return fmt.Errorf("trending: persist panel %s: %w", panel.ID, err)
	}
	return nil
}

func (c *Coordinator) surface(ctx context.Context, id ID, field string, err error) {
	c.opts.Telemetry.Record(ctx, "trending.panel.error", map[string]any{
		"panel_id": string(id),
		"field":    field,
		"error":    err.Error(),
	})
	_ = c.opts.Hook.PanelUpdated(ctx, PanelEvent{
		PanelID: id,
		Reason:  EventNotice,
		Field:   field,
		Message: UserMessage(err),
	})
}

func panelsEqual(a, b Panel) bool {
	if a.ID != b.ID || a.Name != b.Name || a.AggregationType != b.AggregationType ||
		a.Period != b.Period || a.ViewMode != b.ViewMode || a.ColSpan != b.ColSpan ||
		a.ShowInfo != b.ShowInfo || a.Order != b.Order {
		return false
	}
	if !slices.Equal(a.UnitIDs, b.UnitIDs) {
		return false
	}
	return equalPtr(a.UnitColumnID, b.UnitColumnID) &&
		equalDatePtr(a.CustomStartDate, b.CustomStartDate) &&
		equalDatePtr(a.CustomEndDate, b.CustomEndDate)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalDatePtr(a, b *Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (c *Coordinator) setOrder(order int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panel.Order = order
}
