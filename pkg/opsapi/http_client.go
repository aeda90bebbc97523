package opsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	trending "github.com/goliatone/go-trending/components/trending"
)

// DefaultLocaleHeader carries the active locale on every request.
const DefaultLocaleHeader = "Accept-Language"

// HTTPConfig configures the HTTP client.
type HTTPConfig struct {
	BaseURL      string
	Token        string
	Locale       string
	LocaleHeader string
	HTTPClient   *http.Client
	// OnUnauthorized runs after a 401 clears the stored token.
	OnUnauthorized func(ctx context.Context)
}

// HTTPClient talks to the operations backend over REST.
type HTTPClient struct {
	baseURL      string
	locale       string
	localeHeader string
	client       *http.Client
	onUnauth     func(context.Context)

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the backend at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("opsapi: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	header := cfg.LocaleHeader
	if header == "" {
		header = DefaultLocaleHeader
	}
	return &HTTPClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		locale:       cfg.Locale,
		localeHeader: header,
		client:       httpClient,
		onUnauth:     cfg.OnUnauthorized,
		token:        cfg.Token,
	}, nil
}

// SetToken replaces the bearer token.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type localeKey struct{}

// WithLocale overrides the locale header for requests made with ctx.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

func (c *HTTPClient) ListPanels(ctx context.Context) ([]trending.Panel, error) {
	var out []trending.Panel
	if err := c.do(ctx, http.MethodGet, "/trending-panel", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreatePanel(ctx context.Context, panel trending.Panel) (trending.Panel, error) {
	var out trending.Panel
	if err := c.do(ctx, http.MethodPost, "/trending-panel", updateBody(panel), &out, true); err != nil {
		return trending.Panel{}, err
	}
	return out, nil
}

// UpdatePanel sends the full panel. Custom dates are only included when the
// period is Custom.
func (c *HTTPClient) UpdatePanel(ctx context.Context, panel trending.Panel) error {
	path := "/trending-panel/update/" + url.PathEscape(panel.ID.String())
	return c.do(ctx, http.MethodPut, path, updateBody(panel), nil, true)
}

func (c *HTTPClient) DeletePanel(ctx context.Context, id trending.ID) error {
	return c.do(ctx, http.MethodDelete, "/trending-panel/delete/"+url.PathEscape(id.String()), nil, nil, true)
}

func (c *HTTPClient) ReorderPanels(ctx context.Context, order []trending.PanelOrder) error {
	if order == nil {
		order = []trending.PanelOrder{}
	}
	return c.do(ctx, http.MethodPut, "/trending-panel/reorder", order, nil, true)
}

func (c *HTTPClient) ListUnits(ctx context.Context) ([]trending.Unit, error) {
	var out []trending.Unit
	if err := c.do(ctx, http.MethodGet, "/unit", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// ListColumns is served without authentication.
func (c *HTTPClient) ListColumns(ctx context.Context, unitID trending.ID) ([]trending.Column, error) {
	var out []trending.Column
	if err := c.do(ctx, http.MethodGet, "/unit-column/unit/"+url.PathEscape(unitID.String()), nil, &out, false); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].UnitID == "" {
			out[i].UnitID = unitID
		}
	}
	return out, nil
}

func (c *HTTPClient) ListCells(ctx context.Context, unitID trending.ID, start, end trending.Date) ([]trending.RawSample, error) {
	query := url.Values{}
	if !start.IsZero() {
		query.Set("start", start.String())
	}
	if !end.IsZero() {
		query.Set("end", end.String())
	}
	path := "/unit-cell/range/" + url.PathEscape(unitID.String())
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out []trending.RawSample
	if err := c.do(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].UnitID == "" {
			out[i].UnitID = unitID
		}
	}
	return out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any, auth bool) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("opsapi: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("opsapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if locale := c.localeFor(ctx); locale != "" {
		req.Header.Set(c.localeHeader, locale)
	}
	if auth {
		if token := c.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("opsapi: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := decodeAPIError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized {
			c.SetToken("")
			if c.onUnauth != nil {
				c.onUnauth(ctx)
			}
		}
		return apiErr
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("opsapi: decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) localeFor(ctx context.Context) string {
	if locale, ok := ctx.Value(localeKey{}).(string); ok && locale != "" {
		return locale
	}
	return c.locale
}

func updateBody(panel trending.Panel) trending.Panel {
	out := panel.Clone()
	if out.Period != trending.PeriodCustom {
		out.CustomStartDate = nil
		out.CustomEndDate = nil
	}
	return out
}
