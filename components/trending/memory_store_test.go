package trending

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStorePanelLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	first, err := store.CreatePanel(ctx, Panel{Name: "first"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	second, err := store.CreatePanel(ctx, Panel{ID: "b", Name: "second"})
	require.NoError(t, err)

	panels, err := store.ListPanels(ctx)
	require.NoError(t, err)
	require.Len(t, panels, 2)
	assert.Equal(t, second.ID, panels[0].ID, "created panels go to the head")

	_, err = store.CreatePanel(ctx, Panel{ID: "b"})
	assert.Error(t, err)

	renamed := second
	renamed.Name = "renamed"
	renamed.Order = 99
	require.NoError(t, store.UpdatePanel(ctx, renamed))
	panels, _ = store.ListPanels(ctx)
	assert.Equal(t, "renamed", panels[0].Name)
	assert.Equal(t, 0, panels[0].Order, "updates keep the stored order")

	require.NoError(t, store.ReorderPanels(ctx, []PanelOrder{{ID: "b", Order: 1}, {ID: first.ID, Order: 0}}))
	panels, _ = store.ListPanels(ctx)
	assert.Equal(t, first.ID, panels[0].ID)

	require.NoError(t, store.DeletePanel(ctx, "b"))
	assert.ErrorIs(t, store.DeletePanel(ctx, "b"), ErrPanelNotFound)
	assert.ErrorIs(t, store.UpdatePanel(ctx, Panel{ID: "b"}), ErrPanelNotFound)
	assert.ErrorIs(t, store.UpdatePanel(ctx, Panel{}), errPanelIDRequired)
}

func TestInMemoryStoreSamplesHonourWindowAndContext(t *testing.T) {
	store := NewInMemoryStore()
	store.AddSamples(
		intSample("1", "2024-03-01", 1),
		intSample("1", "2024-03-10", 2),
		intSample("2", "2024-03-10", 3),
	)

	rows, err := store.ListSamples(context.Background(), "1", DateRange{End: MustDate("2024-03-05")})
	require.NoError(t, err)
	require.Len(t, rows, 1, "open-start windows return everything up to End")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.ListSamples(ctx, "1", DateRange{End: MustDate("2024-03-31")})
	assert.ErrorIs(t, err, context.Canceled)
}
