package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PlumbWatch/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamServer(t *testing.T, hub *StreamHub, last func() *models.MarketData) string {
	t.Helper()
	e := echo.New()
	e.GET("/api/stream", hub.Handle(last))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
}

func readPayload(t *testing.T, conn *websocket.Conn) models.MarketData {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)

	var data models.MarketData
	require.NoError(t, json.Unmarshal(msg, &data))
	return data
}

func TestStreamSendsLastThenBroadcasts(t *testing.T) {
	hub := NewStreamHub(nil, []string{"http://localhost:3000"})
	defer hub.Close()

	last := &models.MarketData{CycleID: "first", DataSource: models.ProvenanceMock}
	url := streamServer(t, hub, func() *models.MarketData { return last })

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "first", readPayload(t, conn).CycleID)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Consume(context.Background(), &models.MarketData{CycleID: "second"}))
	assert.Equal(t, "second", readPayload(t, conn).CycleID)
}

func TestStreamClientDisconnectUnregisters(t *testing.T) {
	hub := NewStreamHub(nil, nil)
	defer hub.Close()
	url := streamServer(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	hub := NewStreamHub(nil, []string{"http://localhost:3000"})
	defer hub.Close()
	url := streamServer(t, hub, nil)

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Clients())
}

func TestStreamCloseDisconnectsClients(t *testing.T) {
	hub := NewStreamHub(nil, []string{"*"})
	url := streamServer(t, hub, nil)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	// consuming after close is a no-op
	assert.NoError(t, hub.Consume(context.Background(), &models.MarketData{}))
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewStreamHub(nil, nil)
	c := &streamClient{send: make(chan []byte, 1)}
	require.True(t, hub.register(c))

	require.NoError(t, hub.Consume(context.Background(), &models.MarketData{CycleID: "a"}))
	assert.Equal(t, 1, hub.Clients())
	require.NoError(t, hub.Consume(context.Background(), &models.MarketData{CycleID: "b"}))
	assert.Equal(t, 0, hub.Clients())

	<-c.send
	_, open := <-c.send
	assert.False(t, open)
}
