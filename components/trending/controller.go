package trending

import (
	"context"
	"errors"
	"io"
)

const (
	boardTemplate = "board.html"
	panelTemplate = "panel.html"
)

var errMissingRenderer = errors.New("trending: template renderer not configured")

// BoardPage is the template context of the board page.
type BoardPage struct {
	Title      string
	Locale     string
	EventsPath string
	Panels     []RenderedPanel
}

// Controller renders the board and single panels as HTML.
type Controller struct {
	service    *Service
	renderer   Renderer
	title      string
	eventsPath string
}

// ControllerOption customizes controller behavior.
type ControllerOption func(*Controller)

// WithPageTitle sets the board page title.
func WithPageTitle(title string) ControllerOption {
	return func(c *Controller) {
		c.title = title
	}
}

// WithEventsPath sets the WebSocket path advertised to the page.
func WithEventsPath(path string) ControllerOption {
	return func(c *Controller) {
		c.eventsPath = path
	}
}

// NewController wires the service and template renderer into a controller.
func NewController(service *Service, renderer Renderer, opts ...ControllerOption) *Controller {
	c := &Controller{
		service:  service,
		renderer: renderer,
		title:    "Trending",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Page builds the board page model for locale.
func (c *Controller) Page(ctx context.Context, locale string) (BoardPage, error) {
	page := BoardPage{Title: c.title, Locale: localeOrDefault(locale), EventsPath: c.eventsPath}
	if c.service == nil {
		return page, nil
	}
	panels, err := c.service.RenderBoard(ctx, page.Locale)
	if err != nil {
		return BoardPage{}, err
	}
	page.Panels = panels
	return page, nil
}

// RenderBoard writes the board page HTML to out.
func (c *Controller) RenderBoard(ctx context.Context, locale string, out io.Writer) error {
	if c.renderer == nil {
		return errMissingRenderer
	}
	page, err := c.Page(ctx, locale)
	if err != nil {
		return err
	}
	_, err = c.renderer.Render(boardTemplate, map[string]any{
		"title":       page.Title,
		"locale":      page.Locale,
		"events_path": page.EventsPath,
		"panels":      page.Panels,
		"empty_label": translateOrFallback(ctx, c.translator(), "trending.board.empty", page.Locale, "No panels yet", nil),
	}, out)
	return err
}

// RenderPanel writes one panel fragment to out.
func (c *Controller) RenderPanel(ctx context.Context, id ID, locale string, out io.Writer) error {
	if c.renderer == nil {
		return errMissingRenderer
	}
	if c.service == nil {
		return ErrPanelNotFound
	}
	panel, err := c.service.RenderPanel(ctx, id, localeOrDefault(locale))
	if err != nil {
		return err
	}
	_, err = c.renderer.Render(panelTemplate, map[string]any{"panel": panel}, out)
	return err
}

func (c *Controller) translator() TranslationService {
	if c.service == nil {
		return nil
	}
	return c.service.opts.Translator
}

func localeOrDefault(locale string) string {
	if locale == "" {
		return DefaultLocale
	}
	return locale
}
