package goadmin_test

import (
	"context"
	"testing"

	core "github.com/goliatone/go-trending/components/trending"
	"github.com/goliatone/go-trending/pkg/goadmin"
	trendingpkg "github.com/goliatone/go-trending/pkg/trending"
)

type stubMenuBuilder struct {
	calls int
	item  goadmin.MenuItem
}

func (s *stubMenuBuilder) EnsureMenuItem(_ context.Context, _ string, item goadmin.MenuItem) error {
	s.calls++
	s.item = item
	return nil
}

func TestAdminBootstrapSeedsMenuAndLoads(t *testing.T) {
	builder := &stubMenuBuilder{}
	store := core.NewInMemoryStore()
	store.PutPanel(core.Panel{ID: "p1", Name: "Sales"})
	service := trendingpkg.NewService(core.Options{Store: store, Units: store, Data: store})
	admin, err := goadmin.New(goadmin.Config{
		EnableTrending:  true,
		Service:         service,
		MenuBuilder:     builder,
		LoadOnBootstrap: true,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if builder.calls != 1 || builder.item.Label != "Trending" {
		t.Fatalf("expected default menu item, got %d calls %+v", builder.calls, builder.item)
	}
	if len(admin.Trending().Panels()) != 1 {
		t.Fatalf("expected loaded panels")
	}
}

func TestAdminDisabledSkipsBootstrap(t *testing.T) {
	builder := &stubMenuBuilder{}
	admin, err := goadmin.New(goadmin.Config{MenuBuilder: builder})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if builder.calls != 0 {
		t.Fatalf("expected 0 calls, got %d", builder.calls)
	}
	if admin.Trending() != nil {
		t.Fatalf("expected nil service when disabled")
	}
}

func TestAdminRequiresServiceWhenEnabled(t *testing.T) {
	if _, err := goadmin.New(goadmin.Config{EnableTrending: true}); err == nil {
		t.Fatalf("expected error without service")
	}
}
