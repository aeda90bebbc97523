package trending

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore provides a concurrency-safe store for demos and tests. It
// implements PanelStore, UnitSource and DataSource.
type InMemoryStore struct {
	mu      sync.RWMutex
	panels  map[ID]Panel
	units   []Unit
	columns map[ID][]Column
	samples map[ID][]RawSample
}

var (
	_ PanelStore = (*InMemoryStore)(nil)
	_ UnitSource = (*InMemoryStore)(nil)
	_ DataSource = (*InMemoryStore)(nil)
)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		panels:  make(map[ID]Panel),
		columns: make(map[ID][]Column),
		samples: make(map[ID][]RawSample),
	}
}

// ListPanels returns stored panels ordered by Order.
func (s *InMemoryStore) ListPanels(_ context.Context) ([]Panel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Panel, 0, len(s.panels))
	for _, p := range s.panels {
		out = append(out, p.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order == out[j].Order {
			return out[i].ID < out[j].ID
		}
		return out[i].Order < out[j].Order
	})
	return out, nil
}

// CreatePanel stores panel at the head of the order. Panels without an id
// get a random one.
func (s *InMemoryStore) CreatePanel(_ context.Context, panel Panel) (Panel, error) {
	if panel.ID == "" {
		panel.ID = ID(uuid.NewString())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.panels[panel.ID]; exists {
		return Panel{}, fmt.Errorf("trending: panel %s already exists", panel.ID)
	}
	for id, p := range s.panels {
		p.Order++
		s.panels[id] = p
	}
	panel.Order = 0
	s.panels[panel.ID] = panel.Clone()
	return panel.Clone(), nil
}

// UpdatePanel replaces a stored panel, keeping its order.
func (s *InMemoryStore) UpdatePanel(_ context.Context, panel Panel) error {
	if panel.ID == "" {
		return errPanelIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.panels[panel.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPanelNotFound, panel.ID)
	}
	panel.Order = existing.Order
	s.panels[panel.ID] = panel.Clone()
	return nil
}

// DeletePanel removes a stored panel.
func (s *InMemoryStore) DeletePanel(_ context.Context, id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.panels[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPanelNotFound, id)
	}
	delete(s.panels, id)
	return nil
}

// ReorderPanels applies the batch of positions.
func (s *InMemoryStore) ReorderPanels(_ context.Context, order []PanelOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range order {
		p, ok := s.panels[entry.ID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrPanelNotFound, entry.ID)
		}
		p.Order = entry.Order
		s.panels[entry.ID] = p
	}
	return nil
}

// ListUnits returns every known unit.
func (s *InMemoryStore) ListUnits(_ context.Context) ([]Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.units), nil
}

// ListColumns returns the columns of a unit.
func (s *InMemoryStore) ListColumns(_ context.Context, unitID ID) ([]Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.columns[unitID]), nil
}

// ListSamples returns the unit samples inside window. An open-start window
// returns everything up to End.
func (s *InMemoryStore) ListSamples(ctx context.Context, unitID ID, window DateRange) ([]RawSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RawSample
	for _, sample := range s.samples[unitID] {
		if window.Contains(sample.Date) {
			out = append(out, sample)
		}
	}
	return out, nil
}

// PutUnit adds or replaces a unit.
func (s *InMemoryStore) PutUnit(unit Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.units {
		if existing.ID == unit.ID {
			s.units[i] = unit
			return
		}
	}
	s.units = append(s.units, unit)
}

// PutColumns replaces the columns of a unit.
func (s *InMemoryStore) PutColumns(unitID ID, columns ...Column) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range columns {
		columns[i].UnitID = unitID
	}
	s.columns[unitID] = columns
}

// AddSamples appends samples; each is filed under its own unit.
func (s *InMemoryStore) AddSamples(samples ...RawSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sample := range samples {
		s.samples[sample.UnitID] = append(s.samples[sample.UnitID], sample)
	}
}

// PutPanel stores a panel as is, including its order.
func (s *InMemoryStore) PutPanel(panel Panel) Panel {
	if panel.ID == "" {
		panel.ID = ID(uuid.NewString())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels[panel.ID] = panel.Clone()
	return panel.Clone()
}
