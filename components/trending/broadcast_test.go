package trending

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastHookFanOut(t *testing.T) {
	hook := NewBroadcastHook()
	a, cancelA := hook.Subscribe()
	b, cancelB := hook.Subscribe()
	defer cancelB()

	event := PanelEvent{PanelID: "p1", Reason: EventUpdate, Field: "name"}
	require.NoError(t, hook.PanelUpdated(context.Background(), event))
	assert.Equal(t, event, <-a)
	assert.Equal(t, event, <-b)

	cancelA()
	_, ok := <-a
	assert.False(t, ok, "cancel closes the channel")
	cancelA()
}

func TestBroadcastHookDropsForSlowSubscribers(t *testing.T) {
	hook := NewBroadcastHook()
	ch, cancel := hook.Subscribe()
	defer cancel()
	for range 40 {
		require.NoError(t, hook.PanelUpdated(context.Background(), PanelEvent{Reason: EventRefresh}))
	}
	assert.Len(t, ch, cap(ch))
}

func TestBroadcastHookWebSocket(t *testing.T) {
	hook := NewBroadcastHook()
	srv := httptest.NewServer(http.HandlerFunc(hook.ServeWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		hook.mu.RLock()
		defer hook.mu.RUnlock()
		return len(hook.subs) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hook.PanelUpdated(context.Background(), PanelEvent{PanelID: "p1", Reason: EventDelete}))
	var got PanelEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, ID("p1"), got.PanelID)
	assert.Equal(t, EventDelete, got.Reason)
}

func TestMultiHookJoinsErrors(t *testing.T) {
	var calls []string
	failing := EventHookFunc(func(context.Context, PanelEvent) error {
		calls = append(calls, "failing")
		return errors.New("down")
	})
	ok := EventHookFunc(func(context.Context, PanelEvent) error {
		calls = append(calls, "ok")
		return nil
	})
	err := MultiHook{failing, nil, ok}.PanelUpdated(context.Background(), PanelEvent{})
	require.Error(t, err)
	assert.Equal(t, []string{"failing", "ok"}, calls)

	var nilFunc EventHookFunc
	assert.NoError(t, nilFunc.PanelUpdated(context.Background(), PanelEvent{}))
}
