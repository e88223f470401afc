package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/p0l0/xknx/internal/auth"
	"github.com/p0l0/xknx/internal/infrastructure/config"
	"github.com/p0l0/xknx/internal/infrastructure/logging"
)

func dialWS(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() }) //nolint:errcheck // Test cleanup
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()

	//nolint:errcheck // Test deadline
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocket_SubscribeAndBroadcast(t *testing.T) {
	s, _ := testServer(t, "", nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "")
	waitForClients(t, s.Hub(), 1)

	err := conn.WriteJSON(WSMessage{Type: WSTypeSubscribe, ID: "1", Payload: WSSubscribePayload{Channels: []string{"frames"}}})
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	resp := readMessage(t, conn)
	if resp.Type != WSTypeResponse || resp.ID != "1" {
		t.Fatalf("subscribe response = %+v", resp)
	}
	if got, _ := json.Marshal(resp.Payload); string(got) != `{"channels":["frames"]}` {
		t.Errorf("subscribe payload = %s", got)
	}

	// Not subscribed to stats; only the frames event arrives.
	s.Hub().Broadcast("stats", map[string]int{"decoded": 1})
	s.Hub().Broadcast("frames", map[string]string{"service_type": "ROUTING_INDICATION"})

	ev := readMessage(t, conn)
	if ev.Type != WSTypeEvent || ev.EventType != "frames" {
		t.Fatalf("event = %+v, want frames event", ev)
	}
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(payload), "ROUTING_INDICATION") {
		t.Errorf("payload = %s", payload)
	}
}

func TestWebSocket_Unsubscribe(t *testing.T) {
	s, _ := testServer(t, "", nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "")
	waitForClients(t, s.Hub(), 1)

	for i, typ := range []string{WSTypeSubscribe, WSTypeUnsubscribe} {
		msg := WSMessage{Type: typ, ID: string(rune('a' + i)), Payload: WSSubscribePayload{Channels: []string{"frames"}}}
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("WriteJSON() error = %v", err)
		}
		readMessage(t, conn)
	}

	s.Hub().Broadcast("frames", "dropped")
	if err := conn.WriteJSON(WSMessage{Type: WSTypePing, ID: "p"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	// The pong is the next message, so the broadcast was not delivered.
	if got := readMessage(t, conn); got.Type != WSTypePong || got.ID != "p" {
		t.Errorf("message = %+v, want pong", got)
	}
}

func TestWebSocket_Errors(t *testing.T) {
	s, _ := testServer(t, "", nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	if got := readMessage(t, conn); got.Type != WSTypeError {
		t.Errorf("invalid JSON reply = %+v, want error", got)
	}

	tests := []struct {
		name string
		msg  WSMessage
	}{
		{name: "unknown type", msg: WSMessage{Type: "shout", ID: "x"}},
		{name: "missing payload", msg: WSMessage{Type: WSTypeSubscribe, ID: "y"}},
		{name: "unknown channel", msg: WSMessage{Type: WSTypeSubscribe, ID: "z", Payload: WSSubscribePayload{Channels: []string{"frames", "telegrams"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteJSON(tt.msg); err != nil {
				t.Fatalf("WriteJSON() error = %v", err)
			}
			if got := readMessage(t, conn); got.Type != WSTypeError || got.ID != tt.msg.ID {
				t.Errorf("reply = %+v, want error for %q", got, tt.msg.ID)
			}
		})
	}
}

func TestHub_DropsForFullQueue(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())
	client := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{ChannelStats: {}}}
	hub.Register(client)

	hub.Broadcast(ChannelStats, 1)
	hub.Broadcast(ChannelStats, 2)
	hub.Broadcast(ChannelFrames, 3)

	if got := hub.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
	if got := len(client.send); got != 1 {
		t.Errorf("queued = %d, want 1", got)
	}
}

func TestWebSocket_Auth(t *testing.T) {
	s, _ := testServer(t, testSecret, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial() without token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response = %v, want 401", resp)
	}
	resp.Body.Close()

	token, err := auth.GenerateToken("dashboard", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	dialWS(t, srv, "?token="+token)
	waitForClients(t, s.Hub(), 1)
}

func TestHub_Disconnect(t *testing.T) {
	s, _ := testServer(t, "", nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "")
	waitForClients(t, s.Hub(), 1)

	conn.Close()
	waitForClients(t, s.Hub(), 0)
}

func TestHub_RunClosesClients(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{}, logging.Discard())
	client := &WSClient{hub: hub, send: make(chan []byte, 1), subscriptions: map[string]struct{}{}}
	hub.Register(client)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after Run, want 0", hub.ClientCount())
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel still open")
	}

	// Broadcasting and unregistering after close must not panic.
	hub.Broadcast("frames", "late")
	hub.Unregister(client)
	client.trySend([]byte("late"))
}
