package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/pkg/contracts/events"
)

func TestClientWritePump(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	conn := newMockConnection()
	client := NewClient(hub, conn, "127.0.0.1:1", "trace", testLogger())

	done := make(chan struct{})
	go func() {
		client.WritePump()
		close(done)
	}()

	client.send <- []byte(`{"type":"dataset:reloaded"}`)
	close(client.send)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write pump did not exit")
	}

	msgs := conn.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, gws.TextMessage, msgs[0].Type)
	assert.JSONEq(t, `{"type":"dataset:reloaded"}`, string(msgs[0].Data))
	assert.Equal(t, gws.CloseMessage, msgs[1].Type)
	assert.True(t, conn.isClosed())
}

func TestClientReadPumpUnregistersOnClose(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()
	defer hub.Stop()

	conn := newMockConnection(`{"type":"heartbeat"}`, "hello")
	client := NewClient(hub, conn, "127.0.0.1:1", "", testLogger())
	hub.Register(client)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	client.ReadPump()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, conn.isClosed())
	assert.Equal(t, int64(maxMessageSize), conn.readLimit)
	assert.NotNil(t, conn.pong)
}

func TestUpgraderOrigins(t *testing.T) {
	up := NewUpgrader(1024, 1024, []string{"http://allowed.example"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, up.CheckOrigin(r))

	r.Header.Set("Origin", "http://allowed.example")
	assert.True(t, up.CheckOrigin(r))

	r.Header.Set("Origin", "http://evil.example")
	assert.False(t, up.CheckOrigin(r))

	open := NewUpgrader(1024, 1024, nil)
	assert.True(t, open.CheckOrigin(r))
}

func TestServeWSEndToEnd(t *testing.T) {
	hub := NewHub(testLogger(), nil)
	hub.Start()
	defer hub.Stop()

	up := NewUpgrader(1024, 1024, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = ServeWS(hub, up, w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readMsg := func() Message {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	assert.Equal(t, events.MessageTypeConnection, readMsg().Type)

	hub.BroadcastUpdate("dataset", "dataset", "reloaded", map[string]int{"generation": 3})
	msg := readMsg()
	assert.Equal(t, events.MessageTypeDatasetReloaded, msg.Type)
}
