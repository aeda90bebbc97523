package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// RefreshPanelInput refetches one panel, or every panel when PanelID is empty.
type RefreshPanelInput struct {
	PanelID trending.ID `json:"panel_id,omitempty"`
}

type refreshService interface {
	RefreshPanel(ctx context.Context, id trending.ID) (trending.Snapshot, error)
	RefreshAll(ctx context.Context) error
}

// RefreshPanelCommand triggers refetches. A refresh superseded by a newer
// filter edit is not an error.
type RefreshPanelCommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshPanelCommand creates the command.
func NewRefreshPanelCommand(service refreshService, telemetry Telemetry) *RefreshPanelCommand {
	return &RefreshPanelCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshPanelInput] = (*RefreshPanelCommand)(nil)

// Execute refreshes the panel(s).
func (c *RefreshPanelCommand) Execute(ctx context.Context, msg RefreshPanelInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	var err error
	if msg.PanelID == "" {
		err = c.service.RefreshAll(ctx)
	} else {
		_, err = c.service.RefreshPanel(ctx, msg.PanelID)
	}
	if err != nil && !errors.Is(err, trending.ErrStaleRefresh) {
		return err
	}
	c.telemetry.Record(ctx, "trending.command.refresh", map[string]any{
		"panel_id": string(msg.PanelID),
	})
	return nil
}
