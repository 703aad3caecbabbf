package ws

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DashPull/internal/livecache"
	"DashPull/internal/usecase"
	"DashPull/pkg/config"
	"DashPull/pkg/logger"
)

func newHubFixture(t *testing.T) (*Hub, *livecache.Store, *usecase.Registry, string) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	fetch := livecache.FetchFunc(func(ctx context.Context, path string, query url.Values) ([]byte, error) {
		return []byte(`{"balance":500}`), nil
	})
	store := livecache.NewStore(fetch, log)
	t.Cleanup(store.Close)

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Resources.Account = 20 * time.Millisecond
	reg := usecase.NewRegistry(cfg)

	hub := NewHub(log, reg)
	hub.Attach(store)
	t.Cleanup(hub.Close)

	e := echo.New()
	e.GET("/view/stream", hub.Handler)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/view/stream"
	return hub, store, reg, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubPushesResourceUpdates(t *testing.T) {
	_, store, reg, wsURL := newHubFixture(t)

	conn := dial(t, wsURL)

	d, _ := reg.Descriptor(usecase.ResourceAccount)
	sub := store.Subscribe(d)
	defer sub.Unsubscribe()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var upd Update
	require.NoError(t, conn.ReadJSON(&upd))
	assert.Equal(t, usecase.ResourceAccount, upd.Resource)
	assert.False(t, upd.Stale)
}

func TestHubHonoursResourceFilter(t *testing.T) {
	_, store, reg, wsURL := newHubFixture(t)

	conn := dial(t, wsURL)
	require.NoError(t, conn.WriteJSON(subscribeMessage{
		Action:    "subscribe",
		Resources: []string{usecase.ResourceStatus},
	}))
	// give the read loop a moment to apply the filter
	time.Sleep(50 * time.Millisecond)

	d, _ := reg.Descriptor(usecase.ResourceAccount)
	sub := store.Subscribe(d)
	defer sub.Unsubscribe()

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var upd Update
	err := conn.ReadJSON(&upd)
	require.Error(t, err, "filtered resource must not be pushed")
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub, store, reg, wsURL := newHubFixture(t)

	conn := dial(t, wsURL)
	conn.Close()

	d, _ := reg.Descriptor(usecase.ResourceAccount)
	sub := store.Subscribe(d)
	defer sub.Unsubscribe()

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients) == 0
	}, 2*time.Second, 20*time.Millisecond)
}
