package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// UpdatePanelInput captures a raw panel update payload. The payload is
// validated against the panel schema before anything is applied.
type UpdatePanelInput struct {
	Actor
	PanelID trending.ID    `json:"panel_id"`
	Payload map[string]any `json:"payload"`
	// Result receives the panel snapshot after the update when set.
	Result *trending.Snapshot `json:"-"`
}

type updateService interface {
	DecodePanelPatch(payload map[string]any) (trending.PanelPatch, error)
	UpdatePanel(ctx context.Context, id trending.ID, patch trending.PanelPatch) (trending.Snapshot, error)
}

// UpdatePanelCommand wraps Service.UpdatePanel.
type UpdatePanelCommand struct {
	service   updateService
	telemetry Telemetry
}

// NewUpdatePanelCommand creates the command.
func NewUpdatePanelCommand(service updateService, telemetry Telemetry) *UpdatePanelCommand {
	return &UpdatePanelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdatePanelInput] = (*UpdatePanelCommand)(nil)

// Execute validates and applies the patch. The snapshot is written to Result
// even when persistence failed, since the edit is kept optimistically.
func (c *UpdatePanelCommand) Execute(ctx context.Context, msg UpdatePanelInput) error {
	if c.service == nil {
		return errors.New("update command requires service")
	}
	if msg.PanelID == "" {
		return errors.New("update command requires panel id")
	}
	patch, err := c.service.DecodePanelPatch(msg.Payload)
	if err != nil {
		return err
	}
	snap, err := c.service.UpdatePanel(msg.Actor.attach(ctx), msg.PanelID, patch)
	if msg.Result != nil {
		*msg.Result = snap
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "trending.command.update", map[string]any{
		"panel_id": string(msg.PanelID),
		"fields":   patch.Fields(),
	})
	return nil
}
