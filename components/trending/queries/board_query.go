package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	trending "github.com/goliatone/go-trending/components/trending"
)

// BoardInput selects the locale the board is rendered in.
type BoardInput struct {
	Locale string `json:"locale"`
}

type boardService interface {
	RenderBoard(ctx context.Context, locale string) ([]trending.RenderedPanel, error)
}

// BoardQuery renders every panel in display order.
type BoardQuery struct {
	service boardService
}

// NewBoardQuery builds the query.
func NewBoardQuery(service boardService) *BoardQuery {
	return &BoardQuery{service: service}
}

var _ gocommand.Querier[BoardInput, []trending.RenderedPanel] = (*BoardQuery)(nil)

// Query renders the board.
func (q *BoardQuery) Query(ctx context.Context, input BoardInput) ([]trending.RenderedPanel, error) {
	return q.service.RenderBoard(ctx, input.Locale)
}
