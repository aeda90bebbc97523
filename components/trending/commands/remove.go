package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// RemovePanelInput identifies a panel to delete.
type RemovePanelInput struct {
	Actor
	PanelID trending.ID `json:"panel_id"`
}

type removeService interface {
	DeletePanel(ctx context.Context, id trending.ID) error
}

// RemovePanelCommand deletes panels via the service.
type RemovePanelCommand struct {
	service   removeService
	telemetry Telemetry
}

// NewRemovePanelCommand creates the command.
func NewRemovePanelCommand(service removeService, telemetry Telemetry) *RemovePanelCommand {
	return &RemovePanelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemovePanelInput] = (*RemovePanelCommand)(nil)

// Execute removes the panel.
func (c *RemovePanelCommand) Execute(ctx context.Context, msg RemovePanelInput) error {
	if c.service == nil {
		return errors.New("remove command requires service")
	}
	if msg.PanelID == "" {
		return errors.New("remove command requires panel id")
	}
	if err := c.service.DeletePanel(msg.Actor.attach(ctx), msg.PanelID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "trending.command.remove", map[string]any{
		"panel_id": string(msg.PanelID),
	})
	return nil
}
