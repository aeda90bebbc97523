package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// CycleViewModeInput advances a panel to its next view mode.
type CycleViewModeInput struct {
	Actor
	PanelID trending.ID `json:"panel_id"`
	// Result receives the new mode when set.
	Result *trending.ViewMode `json:"-"`
}

type viewModeService interface {
	CycleViewMode(ctx context.Context, id trending.ID) (trending.ViewMode, error)
}

// CycleViewModeCommand wraps Service.CycleViewMode.
type CycleViewModeCommand struct {
	service   viewModeService
	telemetry Telemetry
}

// NewCycleViewModeCommand creates the command.
func NewCycleViewModeCommand(service viewModeService, telemetry Telemetry) *CycleViewModeCommand {
	return &CycleViewModeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CycleViewModeInput] = (*CycleViewModeCommand)(nil)

// Execute cycles and persists the mode.
func (c *CycleViewModeCommand) Execute(ctx context.Context, msg CycleViewModeInput) error {
	if c.service == nil {
		return errors.New("view mode command requires service")
	}
	if msg.PanelID == "" {
		return errors.New("view mode command requires panel id")
	}
	mode, err := c.service.CycleViewMode(msg.Actor.attach(ctx), msg.PanelID)
	if msg.Result != nil {
		*msg.Result = mode
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "trending.command.view_mode", map[string]any{
		"panel_id": string(msg.PanelID),
		"mode":     string(mode),
	})
	return nil
}
