package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// SeriesInput identifies a panel whose aggregates are requested.
type SeriesInput struct {
	PanelID trending.ID `json:"panel_id"`
	// Refresh refetches before answering instead of returning the cached
	// aggregates.
	Refresh bool `json:"refresh"`
}

type seriesService interface {
	Snapshot(id trending.ID) (trending.Snapshot, error)
	RefreshPanel(ctx context.Context, id trending.ID) (trending.Snapshot, error)
}

// SeriesQuery returns a panel snapshot: range, daily aggregates, columns and
// visibility.
type SeriesQuery struct {
	service seriesService
}

// NewSeriesQuery builds the query.
func NewSeriesQuery(service seriesService) *SeriesQuery {
	return &SeriesQuery{service: service}
}

var _ gocommand.Querier[SeriesInput, trending.Snapshot] = (*SeriesQuery)(nil)

// Query returns the snapshot. A fetch failure still yields the last good
// aggregates alongside the error.
func (q *SeriesQuery) Query(ctx context.Context, input SeriesInput) (trending.Snapshot, error) {
	if !input.Refresh {
		return q.service.Snapshot(input.PanelID)
	}
	snap, err := q.service.RefreshPanel(ctx, input.PanelID)
	if errors.Is(err, trending.ErrStaleRefresh) {
		return q.service.Snapshot(input.PanelID)
	}
	return snap, err
}
