package trending

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-trending/pkg/activity"
)

func seededService(t *testing.T, capture *activity.CaptureHook) (*Service, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	store.PutUnit(Unit{ID: "1", Name: "North", CreationDate: MustDate("2023-01-01")})
	store.PutUnit(Unit{ID: "2", Name: "South", CreationDate: MustDate("2023-01-01")})
	store.PutColumns("1", Column{ID: "c1", Name: "Output"})
	store.PutColumns("2", Column{ID: "c1", Name: "Output"})
	store.AddSamples(
		intSample("1", "2024-03-14", 10),
		intSample("2", "2024-03-14", 20),
		intSample("1", "2024-03-15", 4),
	)
	store.PutPanel(Panel{ID: "p1", Name: "Output", Period: PeriodWeekly, UnitIDs: []ID{"1", "2"}, ColSpan: 1, Order: 0})
	store.PutPanel(Panel{ID: "p2", Name: "Other", Period: PeriodToday, UnitIDs: []ID{"1"}, ColSpan: 2, Order: 1})

	opts := Options{Store: store, Units: store, Data: store, Clock: fixedClock()}
	if capture != nil {
		opts.ActivityHooks = activity.Hooks{capture}
		opts.ActivityConfig = activity.Config{Enabled: true}
	}
	svc := NewService(opts)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return svc, store
}

func TestServiceCreatePanelEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	svc, store := seededService(t, capture)

	ctx := ContextWithActivity(context.Background(), ActivityContext{ActorID: "actor-1", UserID: "user-1", TenantID: "tenant-1"})
	panel, err := svc.CreatePanel(ctx, CreatePanelRequest{Locale: "fr"})
	if err != nil {
		t.Fatalf("CreatePanel returned error: %v", err)
	}
	if panel.Name != "Nouveau panneau de tendances" {
		t.Fatalf("expected localized default name, got %q", panel.Name)
	}
	if order := svc.Board().Order(); order[0] != panel.ID || len(order) != 3 {
		t.Fatalf("expected new panel at head, got %v", order)
	}
	stored, _ := store.ListPanels(ctx)
	if stored[0].ID != panel.ID {
		t.Fatalf("expected store to order new panel first, got %s", stored[0].ID)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected 1 activity event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != "trending.panel.create" || event.ObjectType != "trending_panel" || event.Channel != activity.DefaultChannel {
		t.Fatalf("unexpected event payload: %+v", event)
	}
	if event.ActorID != "actor-1" || event.UserID != "user-1" || event.TenantID != "tenant-1" {
		t.Fatalf("unexpected actor context: %+v", event)
	}
}

func TestServiceRefreshAndRender(t *testing.T) {
	svc, _ := seededService(t, nil)
	ctx := context.Background()

	snap, err := svc.RefreshPanel(ctx, "p1")
	if err != nil {
		t.Fatalf("RefreshPanel returned error: %v", err)
	}
	if len(snap.Aggregates) != 2 || snap.Aggregates[0].All != 30 {
		t.Fatalf("unexpected aggregates: %+v", snap.Aggregates)
	}

	rendered, err := svc.RenderPanel(ctx, "p1", "")
	if err != nil {
		t.Fatalf("RenderPanel returned error: %v", err)
	}
	if rendered.ChartHTML == "" || rendered.Summary.Value != 34 {
		t.Fatalf("unexpected rendered panel: %+v", rendered.Summary)
	}
	if rendered.Legend[0].Name != "North" {
		t.Fatalf("expected unit names from catalog, got %+v", rendered.Legend)
	}

	if err := svc.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	board, err := svc.RenderBoard(ctx, "en")
	if err != nil {
		t.Fatalf("RenderBoard returned error: %v", err)
	}
	if len(board) != 2 || board[1].PanelID != "p2" || board[1].Summary.Value != 4 {
		t.Fatalf("unexpected board render: %+v", board)
	}
}

func TestServiceDecodePanelPatch(t *testing.T) {
	svc, _ := seededService(t, nil)

	patch, err := svc.DecodePanelPatch(map[string]any{
		"name":         "Renamed",
		"unitIds":      []any{2, "1"},
		"unitColumnId": nil,
		"period":       nil,
		"colSpan":      4,
	})
	if err != nil {
		t.Fatalf("DecodePanelPatch returned error: %v", err)
	}
	if patch.Name == nil || *patch.Name != "Renamed" {
		t.Fatalf("expected name in patch, got %+v", patch)
	}
	if patch.UnitIDs == nil || len(*patch.UnitIDs) != 2 || (*patch.UnitIDs)[0] != "2" {
		t.Fatalf("expected numeric unit ids to decode, got %+v", patch.UnitIDs)
	}
	if !patch.ClearColumn || patch.UnitColumnID != nil {
		t.Fatalf("expected null column to clear the filter")
	}
	if patch.Period != nil {
		t.Fatalf("expected null period to be ignored")
	}
	want := []string{"name", "unitIds", "unitColumnId", "colSpan"}
	if got := patch.Fields(); len(got) != len(want) {
		t.Fatalf("expected fields %v, got %v", want, got)
	}

	allColumns, err := svc.DecodePanelPatch(map[string]any{"unitColumnId": "ALL"})
	if err != nil || !allColumns.ClearColumn {
		t.Fatalf("expected ALL to clear the column filter, err=%v", err)
	}

	if _, err := svc.DecodePanelPatch(map[string]any{"colSpan": 3}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}

func TestServiceUpdatePanelRefetchesOnce(t *testing.T) {
	capture := &activity.CaptureHook{}
	svc, store := seededService(t, capture)
	ctx := context.Background()

	units := []ID{"1"}
	period := PeriodCustom
	start, end := MustDate("2024-03-14"), MustDate("2024-03-15")
	name := "Only north"
	snap, err := svc.UpdatePanel(ctx, "p1", PanelPatch{
		Name:            &name,
		UnitIDs:         &units,
		Period:          &period,
		CustomStartDate: &start,
		CustomEndDate:   &end,
	})
	if err != nil {
		t.Fatalf("UpdatePanel returned error: %v", err)
	}
	if snap.Panel.Name != name || snap.Panel.Period != PeriodCustom {
		t.Fatalf("unexpected panel: %+v", snap.Panel)
	}
	if len(snap.Aggregates) != 2 || snap.Aggregates[0].All != 10 {
		t.Fatalf("expected aggregates for unit 1 only, got %+v", snap.Aggregates)
	}
	stored, _ := store.ListPanels(ctx)
	if stored[0].CustomEndDate == nil || stored[0].CustomEndDate.String() != "2024-03-15" {
		t.Fatalf("expected custom dates persisted, got %+v", stored[0])
	}
	if len(capture.Events) != 1 || capture.Events[0].Verb != "trending.panel.update" {
		t.Fatalf("expected update activity, got %+v", capture.Events)
	}

	if _, err := svc.UpdatePanel(ctx, "missing", PanelPatch{}); !errors.Is(err, ErrPanelNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceGestures(t *testing.T) {
	capture := &activity.CaptureHook{}
	svc, store := seededService(t, capture)
	ctx := context.Background()

	order, err := svc.MovePanel(ctx, "p1", "p2")
	if err != nil {
		t.Fatalf("MovePanel returned error: %v", err)
	}
	if order[0].ID != "p2" || order[1].ID != "p1" {
		t.Fatalf("unexpected order payload: %+v", order)
	}
	stored, _ := store.ListPanels(ctx)
	if stored[0].ID != "p2" {
		t.Fatalf("expected store order to follow, got %s first", stored[0].ID)
	}

	span, err := svc.ResizePanel(ctx, "p1", 300)
	if err != nil {
		t.Fatalf("ResizePanel returned error: %v", err)
	}
	if span != 4 {
		t.Fatalf("expected span 4, got %d", span)
	}

	mode, err := svc.CycleViewMode(ctx, "p1")
	if err != nil || mode != ViewBarChart {
		t.Fatalf("expected BarChart after the default LineChart, got %s (%v)", mode, err)
	}

	snap, err := svc.ToggleUnit(ctx, "p1", "2")
	if err != nil || len(snap.Hidden) != 1 {
		t.Fatalf("expected hidden unit, got %+v (%v)", snap.Hidden, err)
	}

	if err := svc.DeletePanel(ctx, "p2"); err != nil {
		t.Fatalf("DeletePanel returned error: %v", err)
	}
	if err := svc.DeletePanel(ctx, ""); !errors.Is(err, errPanelIDRequired) {
		t.Fatalf("expected id required, got %v", err)
	}

	verbs := make([]string, 0, len(capture.Events))
	for _, e := range capture.Events {
		verbs = append(verbs, e.Verb)
	}
	want := []string{"trending.panel.reorder", "trending.panel.resize", "trending.panel.view_mode", "trending.panel.delete"}
	if len(verbs) != len(want) {
		t.Fatalf("expected verbs %v, got %v", want, verbs)
	}
	for i := range want {
		if verbs[i] != want[i] {
			t.Fatalf("expected verbs %v, got %v", want, verbs)
		}
	}
}

func TestServiceColumns(t *testing.T) {
	svc, _ := seededService(t, nil)
	cols, err := svc.Columns(context.Background(), "1")
	if err != nil || len(cols) != 1 {
		t.Fatalf("expected one column, got %v (%v)", cols, err)
	}
	if _, err := NewService(Options{}).Columns(context.Background(), "1"); !errors.Is(err, errMissingDataSource) {
		t.Fatalf("expected missing data source, got %v", err)
	}
}
