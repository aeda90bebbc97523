package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// MovePanelInput drops a dragged panel onto the slot of a target panel.
type MovePanelInput struct {
	Actor
	PanelID  trending.ID `json:"panel_id"`
	TargetID trending.ID `json:"target_id"`
	// Result receives the persisted order batch when set.
	Result *[]trending.PanelOrder `json:"-"`
}

type moveService interface {
	MovePanel(ctx context.Context, id, target trending.ID) ([]trending.PanelOrder, error)
}

// MovePanelCommand reorders panels via the service.
type MovePanelCommand struct {
	service   moveService
	telemetry Telemetry
}

// NewMovePanelCommand creates the command.
func NewMovePanelCommand(service moveService, telemetry Telemetry) *MovePanelCommand {
	return &MovePanelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MovePanelInput] = (*MovePanelCommand)(nil)

// Execute moves the panel and persists the full order.
func (c *MovePanelCommand) Execute(ctx context.Context, msg MovePanelInput) error {
	if c.service == nil {
		return errors.New("move command requires service")
	}
	if msg.PanelID == "" || msg.TargetID == "" {
		return errors.New("move command requires panel and target ids")
	}
	order, err := c.service.MovePanel(msg.Actor.attach(ctx), msg.PanelID, msg.TargetID)
	if msg.Result != nil {
		*msg.Result = order
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "trending.command.move", map[string]any{
		"panel_id":  string(msg.PanelID),
		"target_id": string(msg.TargetID),
	})
	return nil
}
