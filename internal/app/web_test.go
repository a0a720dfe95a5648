package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub(t *testing.T) (*offsetHub, *httptest.Server) {
	t.Helper()
	hub := newOffsetHub(zap.NewNop().Sugar())
	srv := httptest.NewServer(hub.routes())
	t.Cleanup(srv.Close)
	return hub, srv
}

func TestOffsetHubLatest(t *testing.T) {
	hub, srv := newTestHub(t)

	resp, err := http.Get(srv.URL + "/api/offset")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	hub.publish([]byte(`{"x":1,"y":2}`))

	resp, err = http.Get(srv.URL + "/api/offset")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"x":1,"y":2}`, string(body))
}

func TestOffsetHubStream(t *testing.T) {
	hub, srv := newTestHub(t)
	hub.publish([]byte(`{"x":1,"y":2}`))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/offset"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))

	// the latest offset is sent on connect
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1,"y":2}`, string(msg))

	require.Eventually(t, func() bool { return hub.clientCount() == 1 }, time.Second, time.Millisecond)
	hub.publish([]byte(`{"x":-3,"y":4}`))

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":-3,"y":4}`, string(msg))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.clientCount() == 0 }, time.Second, time.Millisecond)
}

func TestOffsetHubDropsForSlowClients(t *testing.T) {
	hub := newOffsetHub(zap.NewNop().Sugar())
	ch := hub.add()
	defer hub.remove(ch)

	for i := 0; i < clientBuffer+5; i++ {
		hub.publish([]byte("{}"))
	}
	assert.Len(t, ch, clientBuffer)
}
