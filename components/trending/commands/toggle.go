package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// ToggleUnitInput hides or shows a unit in the panel's composite series.
type ToggleUnitInput struct {
	PanelID trending.ID `json:"panel_id"`
	UnitID  trending.ID `json:"unit_id"`
	// Result receives the panel snapshot when set.
	Result *trending.Snapshot `json:"-"`
}

type toggleService interface {
	ToggleUnit(ctx context.Context, id, unit trending.ID) (trending.Snapshot, error)
}

// ToggleUnitCommand flips unit visibility. Nothing is persisted.
type ToggleUnitCommand struct {
	service   toggleService
	telemetry Telemetry
}

// NewToggleUnitCommand creates the command.
func NewToggleUnitCommand(service toggleService, telemetry Telemetry) *ToggleUnitCommand {
	return &ToggleUnitCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleUnitInput] = (*ToggleUnitCommand)(nil)

// Execute toggles the unit.
func (c *ToggleUnitCommand) Execute(ctx context.Context, msg ToggleUnitInput) error {
	if c.service == nil {
		return errors.New("toggle command requires service")
	}
	if msg.PanelID == "" || msg.UnitID == "" {
		return errors.New("toggle command requires panel and unit ids")
	}
	snap, err := c.service.ToggleUnit(ctx, msg.PanelID, msg.UnitID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = snap
	}
	c.telemetry.Record(ctx, "trending.command.toggle_unit", map[string]any{
		"panel_id": string(msg.PanelID),
		"unit_id":  string(msg.UnitID),
	})
	return nil
}
