package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
	"github.com/goliatone/go-trending/components/trending/commands"
	"github.com/goliatone/go-trending/components/trending/queries"
)

// Executor is the transport-facing surface shared by the net/http handlers
// and the go-router adapter.
type Executor interface {
	Create(ctx context.Context, input commands.CreatePanelInput) error
	Update(ctx context.Context, input commands.UpdatePanelInput) error
	Remove(ctx context.Context, input commands.RemovePanelInput) error
	Move(ctx context.Context, input commands.MovePanelInput) error
	Resize(ctx context.Context, input commands.ResizePanelInput) error
	CycleViewMode(ctx context.Context, input commands.CycleViewModeInput) error
	ToggleUnit(ctx context.Context, input commands.ToggleUnitInput) error
	Refresh(ctx context.Context, input commands.RefreshPanelInput) error
	Board(ctx context.Context, input queries.BoardInput) ([]trending.RenderedPanel, error)
	Series(ctx context.Context, input queries.SeriesInput) (trending.Snapshot, error)
}

// CommandExecutor dispatches to go-command commanders and queriers. Unset
// entries answer with errNotConfigured.
type CommandExecutor struct {
	CreateCommander   gocommand.Commander[commands.CreatePanelInput]
	UpdateCommander   gocommand.Commander[commands.UpdatePanelInput]
	RemoveCommander   gocommand.Commander[commands.RemovePanelInput]
	MoveCommander     gocommand.Commander[commands.MovePanelInput]
	ResizeCommander   gocommand.Commander[commands.ResizePanelInput]
	ViewModeCommander gocommand.Commander[commands.CycleViewModeInput]
	ToggleCommander   gocommand.Commander[commands.ToggleUnitInput]
	RefreshCommander  gocommand.Commander[commands.RefreshPanelInput]
	BoardQuerier      gocommand.Querier[queries.BoardInput, []trending.RenderedPanel]
	SeriesQuerier     gocommand.Querier[queries.SeriesInput, trending.Snapshot]
}

var errNotConfigured = errors.New("httpapi: operation not configured")

var _ Executor = (*CommandExecutor)(nil)

// NewCommandExecutor wires every command and query against one service.
func NewCommandExecutor(service *trending.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		CreateCommander:   commands.NewCreatePanelCommand(service, telemetry),
		UpdateCommander:   commands.NewUpdatePanelCommand(service, telemetry),
		RemoveCommander:   commands.NewRemovePanelCommand(service, telemetry),
		MoveCommander:     commands.NewMovePanelCommand(service, telemetry),
		ResizeCommander:   commands.NewResizePanelCommand(service, telemetry),
		ViewModeCommander: commands.NewCycleViewModeCommand(service, telemetry),
		ToggleCommander:   commands.NewToggleUnitCommand(service, telemetry),
		RefreshCommander:  commands.NewRefreshPanelCommand(service, telemetry),
		BoardQuerier:      queries.NewBoardQuery(service),
		SeriesQuerier:     queries.NewSeriesQuery(service),
	}
}

func (e *CommandExecutor) Create(ctx context.Context, input commands.CreatePanelInput) error {
	if e.CreateCommander == nil {
		return errNotConfigured
	}
	return e.CreateCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Update(ctx context.Context, input commands.UpdatePanelInput) error {
	if e.UpdateCommander == nil {
		return errNotConfigured
	}
	return e.UpdateCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Remove(ctx context.Context, input commands.RemovePanelInput) error {
	if e.RemoveCommander == nil {
		return errNotConfigured
	}
	return e.RemoveCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Move(ctx context.Context, input commands.MovePanelInput) error {
	if e.MoveCommander == nil {
		return errNotConfigured
	}
	return e.MoveCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Resize(ctx context.Context, input commands.ResizePanelInput) error {
	if e.ResizeCommander == nil {
		return errNotConfigured
	}
	return e.ResizeCommander.Execute(ctx, input)
}

func (e *CommandExecutor) CycleViewMode(ctx context.Context, input commands.CycleViewModeInput) error {
	if e.ViewModeCommander == nil {
		return errNotConfigured
	}
	return e.ViewModeCommander.Execute(ctx, input)
}

func (e *CommandExecutor) ToggleUnit(ctx context.Context, input commands.ToggleUnitInput) error {
	if e.ToggleCommander == nil {
		return errNotConfigured
	}
	return e.ToggleCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Refresh(ctx context.Context, input commands.RefreshPanelInput) error {
	if e.RefreshCommander == nil {
		return errNotConfigured
	}
	return e.RefreshCommander.Execute(ctx, input)
}

func (e *CommandExecutor) Board(ctx context.Context, input queries.BoardInput) ([]trending.RenderedPanel, error) {
	if e.BoardQuerier == nil {
		return nil, errNotConfigured
	}
	return e.BoardQuerier.Query(ctx, input)
}

func (e *CommandExecutor) Series(ctx context.Context, input queries.SeriesInput) (trending.Snapshot, error) {
	if e.SeriesQuerier == nil {
		return trending.Snapshot{}, errNotConfigured
	}
	return e.SeriesQuerier.Query(ctx, input)
}
