package queries

import (
	"context"
	"testing"

	trending "github.com/goliatone/go-trending/components/trending"
)

type stubBoardService struct {
	calls  int
	locale string
}

func (s *stubBoardService) RenderBoard(_ context.Context, locale string) ([]trending.RenderedPanel, error) {
	s.calls++
	s.locale = locale
	return []trending.RenderedPanel{{PanelID: "p1"}}, nil
}

type stubSeriesService struct {
	snapshots  int
	refreshes  int
	refreshErr error
}

func (s *stubSeriesService) Snapshot(id trending.ID) (trending.Snapshot, error) {
	s.snapshots++
	return trending.Snapshot{Panel: trending.Panel{ID: id}, Generation: 1}, nil
}

func (s *stubSeriesService) RefreshPanel(_ context.Context, id trending.ID) (trending.Snapshot, error) {
	s.refreshes++
	return trending.Snapshot{Panel: trending.Panel{ID: id}, Generation: 2}, s.refreshErr
}

func TestBoardQuery(t *testing.T) {
	service := &stubBoardService{}
	query := NewBoardQuery(service)
	panels, err := query.Query(context.Background(), BoardInput{Locale: "de"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 || service.locale != "de" || len(panels) != 1 {
		t.Fatalf("unexpected query result: %+v", panels)
	}
}

func TestSeriesQuery(t *testing.T) {
	service := &stubSeriesService{}
	query := NewSeriesQuery(service)

	snap, err := query.Query(context.Background(), SeriesInput{PanelID: "p1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if snap.Generation != 1 || service.refreshes != 0 {
		t.Fatalf("expected cached snapshot without refetch")
	}

	snap, err = query.Query(context.Background(), SeriesInput{PanelID: "p1", Refresh: true})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if snap.Generation != 2 || service.refreshes != 1 {
		t.Fatalf("expected refreshed snapshot")
	}
}

func TestSeriesQueryStaleRefreshFallsBackToSnapshot(t *testing.T) {
	service := &stubSeriesService{refreshErr: trending.ErrStaleRefresh}
	query := NewSeriesQuery(service)
	snap, err := query.Query(context.Background(), SeriesInput{PanelID: "p1", Refresh: true})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if snap.Generation != 1 || service.snapshots != 1 {
		t.Fatalf("expected current snapshot after a superseded refresh")
	}
}
