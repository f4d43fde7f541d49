package transport

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/orderflow/internal/session"
)

func testConfig() session.Config {
	return session.Config{
		Defaults: session.Defaults{
			Frequency: 2 * time.Second,
			MaxOrders: 500,
			BatchSize: 20,
		},
	}
}

type wireEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewHandler(testConfig(), nil))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev wireEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestEndToEnd_Batch(t *testing.T) {
	conn := dial(t)

	err := conn.WriteMessage(websocket.TextMessage, []byte(`{"command":"generate_batch","count":2}`))
	require.NoError(t, err)

	first := readEvent(t, conn)
	second := readEvent(t, conn)
	summary := readEvent(t, conn)

	assert.Equal(t, "order_item", first.Type)
	assert.Equal(t, "order_item", second.Type)
	assert.Equal(t, "status", summary.Type)
	assert.Equal(t, "generated 2 orders", summary.Message)
}

func TestEndToEnd_UnknownCommandKeepsConnection(t *testing.T) {
	conn := dial(t)

	err := conn.WriteMessage(websocket.TextMessage, []byte(`{"command":"nope"}`))
	require.NoError(t, err)
	assert.Equal(t, "error", readEvent(t, conn).Type)

	// Still usable.
	err = conn.WriteMessage(websocket.TextMessage, []byte(`{"command":"stop_stream"}`))
	require.NoError(t, err)
	assert.Equal(t, "status", readEvent(t, conn).Type)
}

func TestEndToEnd_StreamRunsToCompletion(t *testing.T) {
	conn := dial(t)

	err := conn.WriteMessage(websocket.TextMessage, []byte(`{"command":"start_stream","frequency":0.05,"max_orders":3}`))
	require.NoError(t, err)

	assert.Equal(t, "status", readEvent(t, conn).Type)
	for range 3 {
		assert.Equal(t, "order_item", readEvent(t, conn).Type)
	}

	// No further events after the count is exhausted.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}

func TestEndToEnd_SessionsAreIsolated(t *testing.T) {
	srv := httptest.NewServer(NewHandler(testConfig(), nil))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	first, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = first.Close() })

	second, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = second.Close() })

	require.NoError(t, first.WriteMessage(websocket.TextMessage, []byte(`{"command":"generate_batch","count":1}`)))
	item := readEvent(t, first)

	var o struct {
		ID          string `json:"id"`
		OrderNumber int64  `json:"order_number"`
	}
	require.NoError(t, json.Unmarshal(item.Data, &o))
	assert.Equal(t, int64(1), o.OrderNumber, "fresh registry per connection")

	// The order lives only in the first session's registry.
	cmd := `{"command":"process_order","order_id":"` + o.ID + `"}`
	require.NoError(t, second.WriteMessage(websocket.TextMessage, []byte(cmd)))
	ev := readEvent(t, second)
	assert.Equal(t, "error", ev.Type)
	assert.Contains(t, ev.Message, "not found")
}
