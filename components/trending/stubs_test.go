package trending

import (
	"context"
	"errors"
	"sync"
	"time"
)

type stubData struct {
	mu       sync.Mutex
	columns  map[ID][]Column
	samples  map[ID][]RawSample
	fail     map[ID]error
	calls    int
	windows  []DateRange
	gate     chan struct{}
	gateUnit ID
}

func newStubData() *stubData {
	return &stubData{
		columns: map[ID][]Column{},
		samples: map[ID][]RawSample{},
		fail:    map[ID]error{},
	}
}

func (s *stubData) ListColumns(_ context.Context, unitID ID) ([]Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.columns[unitID], nil
}

func (s *stubData) ListSamples(ctx context.Context, unitID ID, window DateRange) ([]RawSample, error) {
	s.mu.Lock()
	s.calls++
	s.windows = append(s.windows, window)
	gate := s.gate
	gated := gate != nil && unitID == s.gateUnit
	err := s.fail[unitID]
	rows := append([]RawSample(nil), s.samples[unitID]...)
	s.mu.Unlock()
	if gated {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *stubData) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubStore struct {
	mu       sync.Mutex
	panels   []Panel
	updates  []Panel
	orders   [][]PanelOrder
	deleted  []ID
	err      error
	failures int
	nextID   int
}

func (s *stubStore) ListPanels(context.Context) ([]Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Panel(nil), s.panels...), nil
}

func (s *stubStore) CreatePanel(_ context.Context, panel Panel) (Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failLocked(); err != nil {
		return Panel{}, err
	}
	s.nextID++
	panel.ID = ID("new-" + string(rune('0'+s.nextID)))
	return panel, nil
}

func (s *stubStore) UpdatePanel(_ context.Context, panel Panel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failLocked(); err != nil {
		return err
	}
	s.updates = append(s.updates, panel.Clone())
	return nil
}

func (s *stubStore) DeletePanel(_ context.Context, id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failLocked(); err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubStore) ReorderPanels(_ context.Context, order []PanelOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failLocked(); err != nil {
		return err
	}
	s.orders = append(s.orders, append([]PanelOrder(nil), order...))
	return nil
}

// failLocked returns err for the next `failures` calls, or forever when
// failures is zero.
func (s *stubStore) failLocked() error {
	if s.err == nil {
		return nil
	}
	if s.failures > 0 {
		s.failures--
		if s.failures == 0 {
			err := s.err
			s.err = nil
			return err
		}
	}
	return s.err
}

func (s *stubStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

type recordingHook struct {
	mu     sync.Mutex
	events []PanelEvent
}

func (h *recordingHook) PanelUpdated(_ context.Context, event PanelEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) notices() []PanelEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []PanelEvent
	for _, e := range h.events {
		if e.Reason == EventNotice {
			out = append(out, e)
		}
	}
	return out
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

var errBoom = errors.New("boom")

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

type userMessageError struct{ msg string }

func (e userMessageError) Error() string       { return "api: " + e.msg }
func (e userMessageError) UserMessage() string { return e.msg }
