package opsapi

import (
	"context"
	"sync"

	trending "github.com/goliatone/go-trending/components/trending"
)

// Endpoint names used for MockClient failure injection.
const (
	EndpointListPanels  = "list_panels"
	EndpointCreatePanel = "create_panel"
	EndpointUpdatePanel = "update_panel"
	EndpointDeletePanel = "delete_panel"
	EndpointReorder     = "reorder"
	EndpointListUnits   = "list_units"
	EndpointListColumns = "list_columns"
	EndpointListCells   = "list_cells"
)

// MockClient implements Client on top of an in-memory store. Failures can be
// injected per endpoint to exercise the error paths of callers.
type MockClient struct {
	store *trending.InMemoryStore

	mu    sync.Mutex
	fail  map[string]error
	calls map[string]int
}

var _ Client = (*MockClient)(nil)

// NewMockClient builds a mock client backed by store. A nil store starts empty.
func NewMockClient(store *trending.InMemoryStore) *MockClient {
	if store == nil {
		store = trending.NewInMemoryStore()
	}
	return &MockClient{store: store, fail: map[string]error{}, calls: map[string]int{}}
}

// Store exposes the backing store for seeding.
func (c *MockClient) Store() *trending.InMemoryStore { return c.store }

// Fail makes endpoint return err until cleared with a nil error.
func (c *MockClient) Fail(endpoint string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.fail, endpoint)
		return
	}
	c.fail[endpoint] = err
}

// Calls reports how many times endpoint was hit.
func (c *MockClient) Calls(endpoint string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[endpoint]
}

func (c *MockClient) hit(endpoint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[endpoint]++
	return c.fail[endpoint]
}

func (c *MockClient) ListPanels(ctx context.Context) ([]trending.Panel, error) {
	if err := c.hit(EndpointListPanels); err != nil {
		return nil, err
	}
	return c.store.ListPanels(ctx)
}

func (c *MockClient) CreatePanel(ctx context.Context, panel trending.Panel) (trending.Panel, error) {
	if err := c.hit(EndpointCreatePanel); err != nil {
		return trending.Panel{}, err
	}
	return c.store.CreatePanel(ctx, panel)
}

func (c *MockClient) UpdatePanel(ctx context.Context, panel trending.Panel) error {
	if err := c.hit(EndpointUpdatePanel); err != nil {
		return err
	}
	return c.store.UpdatePanel(ctx, updateBody(panel))
}

func (c *MockClient) DeletePanel(ctx context.Context, id trending.ID) error {
	if err := c.hit(EndpointDeletePanel); err != nil {
		return err
	}
	return c.store.DeletePanel(ctx, id)
}

func (c *MockClient) ReorderPanels(ctx context.Context, order []trending.PanelOrder) error {
	if err := c.hit(EndpointReorder); err != nil {
		return err
	}
	return c.store.ReorderPanels(ctx, order)
}

func (c *MockClient) ListUnits(ctx context.Context) ([]trending.Unit, error) {
	if err := c.hit(EndpointListUnits); err != nil {
		return nil, err
	}
	return c.store.ListUnits(ctx)
}

func (c *MockClient) ListColumns(ctx context.Context, unitID trending.ID) ([]trending.Column, error) {
	if err := c.hit(EndpointListColumns); err != nil {
		return nil, err
	}
	return c.store.ListColumns(ctx, unitID)
}

func (c *MockClient) ListCells(ctx context.Context, unitID trending.ID, start, end trending.Date) ([]trending.RawSample, error) {
	if err := c.hit(EndpointListCells); err != nil {
		return nil, err
	}
	return c.store.ListSamples(ctx, unitID, trending.DateRange{Start: start, End: end})
}
