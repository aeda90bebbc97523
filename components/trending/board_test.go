package trending

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedBoard(t *testing.T, store *stubStore, opts BoardOptions, ids ...ID) *Board {
	t.Helper()
	for i, id := range ids {
		store.panels = append(store.panels, Panel{ID: id, Name: string(id), ViewMode: ViewLineChart, ColSpan: 1, Order: i})
	}
	opts.Store = store
	if opts.Clock == nil {
		opts.Clock = fixedClock()
	}
	board := NewBoard(opts)
	require.NoError(t, board.Load(context.Background()))
	return board
}

func TestBoardLoadOrdersByPersistedOrder(t *testing.T) {
	store := &stubStore{panels: []Panel{
		{ID: "c", Order: 2},
		{ID: "a", Order: 0},
		{ID: "b", Order: 1},
	}}
	board := NewBoard(BoardOptions{Store: store})
	require.NoError(t, board.Load(context.Background()))
	assert.Equal(t, []ID{"a", "b", "c"}, board.Order())

	panel, err := board.Panel("b")
	require.NoError(t, err)
	assert.Equal(t, ID("b"), panel.ID)
	_, err = board.Panel("missing")
	assert.ErrorIs(t, err, ErrPanelNotFound)

	for i, panel := range board.Panels() {
		assert.Equal(t, i, panel.Order)
		assert.Equal(t, MinSpan, panel.ColSpan)
	}
}

func TestBoardLoadRequiresStore(t *testing.T) {
	err := NewBoard(BoardOptions{}).Load(context.Background())
	assert.ErrorIs(t, err, errMissingPanelStore)
}

func TestBoardDragSplicesIntoTargetSlot(t *testing.T) {
	store := &stubStore{}
	hook := &recordingHook{}
	board := loadedBoard(t, store, BoardOptions{Hook: hook}, "A", "B", "C", "D")

	require.NoError(t, board.BeginDrag("A"))
	order, err := board.DragEnter("C")
	require.NoError(t, err)
	assert.Equal(t, []ID{"B", "C", "A", "D"}, order)

	payload, err := board.EndDrag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []PanelOrder{
		{ID: "B", Order: 0},
		{ID: "C", Order: 1},
		{ID: "A", Order: 2},
		{ID: "D", Order: 3},
	}, payload)
	require.Len(t, store.orders, 1)
	assert.Equal(t, payload, store.orders[0])

	for i, panel := range board.Panels() {
		assert.Equal(t, i, panel.Order)
	}
	require.NotEmpty(t, hook.events)
	assert.Equal(t, EventReorder, hook.events[len(hook.events)-1].Reason)
}

func TestBoardDragUpwards(t *testing.T) {
	board := loadedBoard(t, &stubStore{}, BoardOptions{}, "A", "B", "C", "D")
	payload, err := board.Move(context.Background(), "D", "B")
	require.NoError(t, err)
	assert.Equal(t, []ID{"A", "D", "B", "C"}, board.Order())
	assert.Len(t, payload, 4)
}

func TestBoardDragAcrossSeveralTargets(t *testing.T) {
	board := loadedBoard(t, &stubStore{}, BoardOptions{}, "A", "B", "C", "D")
	require.NoError(t, board.BeginDrag("A"))
	_, err := board.DragEnter("B")
	require.NoError(t, err)
	order, err := board.DragEnter("D")
	require.NoError(t, err)
	assert.Equal(t, []ID{"B", "C", "D", "A"}, order)
}

func TestBoardCancelDragRestoresOrder(t *testing.T) {
	store := &stubStore{}
	board := loadedBoard(t, store, BoardOptions{}, "A", "B", "C")
	require.NoError(t, board.BeginDrag("C"))
	_, err := board.DragEnter("A")
	require.NoError(t, err)
	board.CancelDrag()

	assert.Equal(t, []ID{"A", "B", "C"}, board.Order())
	assert.Empty(t, store.orders)
	_, err = board.EndDrag(context.Background())
	assert.ErrorIs(t, err, ErrNoDragInProgress)
}

func TestBoardCancelDragKeepsPanelsCreatedMidDrag(t *testing.T) {
	store := &stubStore{}
	board := loadedBoard(t, store, BoardOptions{}, "A", "B", "C")
	require.NoError(t, board.BeginDrag("C"))
	_, err := board.DragEnter("A")
	require.NoError(t, err)

	_, err = board.Create(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, board.Delete(context.Background(), "B"))
	board.CancelDrag()

	assert.Equal(t, []ID{"new-1", "A", "C"}, board.Order())
	for i, p := range board.Panels() {
		assert.Equal(t, i, p.Order)
	}
}

func TestBoardReorderRevertKeepsPanelsDeletedMidDrag(t *testing.T) {
	store := &stubStore{}
	board := loadedBoard(t, store, BoardOptions{Policy: PersistRevert}, "A", "B", "C")
	require.NoError(t, board.BeginDrag("A"))
	_, err := board.DragEnter("C")
	require.NoError(t, err)
	require.NoError(t, board.Delete(context.Background(), "B"))

	store.err = errBoom
	_, err = board.EndDrag(context.Background())
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []ID{"A", "C"}, board.Order())
}

func TestBoardDragEnterWithoutBegin(t *testing.T) {
	board := loadedBoard(t, &stubStore{}, BoardOptions{}, "A", "B")
	_, err := board.DragEnter("B")
	assert.ErrorIs(t, err, ErrNoDragInProgress)
	assert.ErrorIs(t, board.BeginDrag("Z"), ErrPanelNotFound)
}

func TestBoardReorderFailureRevertsWhenConfigured(t *testing.T) {
	store := &stubStore{}
	hook := &recordingHook{}
	board := loadedBoard(t, store, BoardOptions{Hook: hook, Policy: PersistRevert}, "A", "B", "C")
	store.err = errBoom

	_, err := board.Move(context.Background(), "A", "C")
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []ID{"A", "B", "C"}, board.Order())
	require.Len(t, hook.notices(), 1)
	assert.Equal(t, "order", hook.notices()[0].Field)
}

func TestBoardReorderFailureKeepsLocalOrder(t *testing.T) {
	store := &stubStore{}
	board := loadedBoard(t, store, BoardOptions{}, "A", "B", "C")
	store.err = errBoom

	_, err := board.Move(context.Background(), "A", "C")
	require.Error(t, err)
	assert.Equal(t, []ID{"B", "C", "A"}, board.Order())
}

func TestBoardCreateInsertsAtHead(t *testing.T) {
	store := &stubStore{}
	hook := &recordingHook{}
	board := loadedBoard(t, store, BoardOptions{Hook: hook}, "A", "B")

	panel, err := board.Create(context.Background(), "es-MX")
	require.NoError(t, err)
	assert.Equal(t, ID("new-1"), panel.ID)
	assert.Equal(t, "Nuevo panel de tendencias", panel.Name)
	assert.Equal(t, ViewLineChart, panel.ViewMode)
	assert.Equal(t, MinSpan, panel.ColSpan)
	assert.Empty(t, panel.UnitIDs)
	assert.Empty(t, panel.AggregationType)
	assert.Empty(t, panel.Period)
	assert.Nil(t, panel.UnitColumnID)

	assert.Equal(t, []ID{"new-1", "A", "B"}, board.Order())
	for i, p := range board.Panels() {
		assert.Equal(t, i, p.Order)
	}
	assert.Equal(t, EventCreate, hook.events[len(hook.events)-1].Reason)
}

func TestBoardCreateFailureLeavesBoardUntouched(t *testing.T) {
	store := &stubStore{}
	board := loadedBoard(t, store, BoardOptions{}, "A")
	store.err = errBoom

	_, err := board.Create(context.Background(), "")
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []ID{"A"}, board.Order())
}

func TestBoardDelete(t *testing.T) {
	store := &stubStore{}
	board := loadedBoard(t, store, BoardOptions{}, "A", "B", "C")

	require.NoError(t, board.Delete(context.Background(), "B"))
	assert.Equal(t, []ID{"A", "C"}, board.Order())
	assert.Equal(t, []ID{"B"}, store.deleted)

	_, err := board.Coordinator("B")
	assert.ErrorIs(t, err, ErrPanelNotFound)
	assert.ErrorIs(t, board.Delete(context.Background(), "B"), ErrPanelNotFound)
}

func TestBoardDeleteFailurePolicies(t *testing.T) {
	t.Run("revert reinserts", func(t *testing.T) {
		store := &stubStore{}
		board := loadedBoard(t, store, BoardOptions{Policy: PersistRevert}, "A", "B", "C")
		store.err = errBoom
		require.Error(t, board.Delete(context.Background(), "B"))
		assert.Equal(t, []ID{"A", "B", "C"}, board.Order())
	})
	t.Run("retry once recovers", func(t *testing.T) {
		store := &stubStore{}
		board := loadedBoard(t, store, BoardOptions{Policy: PersistRetryOnce}, "A", "B")
		store.err, store.failures = errBoom, 1
		require.NoError(t, board.Delete(context.Background(), "A"))
		assert.Equal(t, []ID{"B"}, board.Order())
	})
	t.Run("keep stays removed", func(t *testing.T) {
		store := &stubStore{}
		hook := &recordingHook{}
		board := loadedBoard(t, store, BoardOptions{Hook: hook}, "A", "B")
		store.err = errBoom
		require.Error(t, board.Delete(context.Background(), "A"))
		assert.Equal(t, []ID{"B"}, board.Order())
		assert.Len(t, hook.notices(), 1)
	})
}

func TestBoardResizeSteps(t *testing.T) {
	store := &stubStore{}
	board := loadedBoard(t, store, BoardOptions{}, "A")
	require.NoError(t, board.BeginResize("A"))

	span, err := board.ResizeMove(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, Span(1), span)

	span, err = board.ResizeMove(context.Background(), 130)
	require.NoError(t, err)
	assert.Equal(t, Span(2), span)

	span, err = board.ResizeMove(context.Background(), 250)
	require.NoError(t, err)
	assert.Equal(t, Span(4), span)

	span, err = board.ResizeMove(context.Background(), 400)
	require.NoError(t, err)
	assert.Equal(t, Span(4), span)
	assert.Equal(t, 2, store.updateCount(), "only changing crossings persist")

	span, err = board.EndResize()
	require.NoError(t, err)
	assert.Equal(t, Span(4), span)

	_, err = board.ResizeMove(context.Background(), 10)
	assert.ErrorIs(t, err, ErrNoResizeInProgress)
}

func TestBoardResizeRevertedStepResyncsMachine(t *testing.T) {
	store := &stubStore{}
	board := loadedBoard(t, store, BoardOptions{Policy: PersistRevert}, "A")
	require.NoError(t, board.BeginResize("A"))
	store.err, store.failures = errBoom, 1

	span, err := board.ResizeMove(context.Background(), 130)
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, Span(1), span)

	span, err = board.ResizeMove(context.Background(), 250)
	require.NoError(t, err)
	assert.Equal(t, Span(2), span, "the next crossing moves one step from the reverted span")
	assert.Equal(t, 1, store.updateCount())
}

func TestBoardResizeLeftFromWide(t *testing.T) {
	store := &stubStore{panels: []Panel{{ID: "A", ColSpan: 4}}}
	board := NewBoard(BoardOptions{Store: store, ResizeThreshold: 50})
	require.NoError(t, board.Load(context.Background()))
	require.NoError(t, board.BeginResize("A"))

	span, err := board.ResizeMove(context.Background(), -110)
	require.NoError(t, err)
	assert.Equal(t, Span(1), span)
	assert.Equal(t, 2, store.updateCount())
}

func TestBoardRefreshAllIsolatesFailures(t *testing.T) {
	data := newStubData()
	data.samples["1"] = []RawSample{intSample("1", "2024-03-14", 3)}
	data.fail["2"] = errBoom
	store := &stubStore{panels: []Panel{
		{ID: "ok", Period: PeriodWeekly, UnitIDs: []ID{"1"}, Order: 0},
		{ID: "bad", Period: PeriodWeekly, UnitIDs: []ID{"2"}, Order: 1},
	}}
	board := NewBoard(BoardOptions{Store: store, Data: data, Clock: fixedClock()})
	require.NoError(t, board.Load(context.Background()))

	err := board.RefreshAll(context.Background())
	require.ErrorIs(t, err, errBoom)

	ok, err := board.Coordinator("ok")
	require.NoError(t, err)
	require.Len(t, ok.Aggregates(), 1)
	assert.Equal(t, 3.0, ok.Aggregates()[0].All)
}
