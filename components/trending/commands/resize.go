package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// ResizePanelInput is a finished resize gesture: the cumulative horizontal
// displacement in pixels from where it started.
type ResizePanelInput struct {
	Actor
	PanelID trending.ID `json:"panel_id"`
	DeltaX  float64     `json:"dx"`
	// Result receives the final span when set.
	Result *trending.Span `json:"-"`
}

type resizeService interface {
	ResizePanel(ctx context.Context, id trending.ID, dx float64) (trending.Span, error)
}

// ResizePanelCommand applies span steps via the service.
type ResizePanelCommand struct {
	service   resizeService
	telemetry Telemetry
}

// NewResizePanelCommand creates the command.
func NewResizePanelCommand(service resizeService, telemetry Telemetry) *ResizePanelCommand {
	return &ResizePanelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResizePanelInput] = (*ResizePanelCommand)(nil)

// Execute runs the gesture.
func (c *ResizePanelCommand) Execute(ctx context.Context, msg ResizePanelInput) error {
	if c.service == nil {
		return errors.New("resize command requires service")
	}
	if msg.PanelID == "" {
		return errors.New("resize command requires panel id")
	}
	span, err := c.service.ResizePanel(msg.Actor.attach(ctx), msg.PanelID, msg.DeltaX)
	if msg.Result != nil {
		*msg.Result = span
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "trending.command.resize", map[string]any{
		"panel_id": string(msg.PanelID),
		"span":     int(span),
	})
	return nil
}
