package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// CreatePanelInput creates a panel at the head of the board.
type CreatePanelInput struct {
	Actor
	Locale string `json:"locale"`
	// Result receives the created panel when set.
	Result *trending.Panel `json:"-"`
}

type createService interface {
	CreatePanel(ctx context.Context, req trending.CreatePanelRequest) (trending.Panel, error)
}

// CreatePanelCommand wraps Service.CreatePanel.
type CreatePanelCommand struct {
	service   createService
	telemetry Telemetry
}

// NewCreatePanelCommand creates the command.
func NewCreatePanelCommand(service createService, telemetry Telemetry) *CreatePanelCommand {
	return &CreatePanelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreatePanelInput] = (*CreatePanelCommand)(nil)

// Execute creates the panel and records telemetry.
func (c *CreatePanelCommand) Execute(ctx context.Context, msg CreatePanelInput) error {
	if c.service == nil {
		return errors.New("create command requires service")
	}
	panel, err := c.service.CreatePanel(msg.Actor.attach(ctx), trending.CreatePanelRequest{Locale: msg.Locale})
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = panel
	}
	c.telemetry.Record(ctx, "trending.command.create", map[string]any{
		"panel_id": string(panel.ID),
		"locale":   msg.Locale,
	})
	return nil
}
