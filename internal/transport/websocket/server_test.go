package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub, userID int64) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, userID)
	}))

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("failed to connect: %v", err)
	}
	return server, conn
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	server, conn := dialTestHub(t, hub, 1)
	defer server.Close()
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	connections, exists := hub.connections[1]
	hub.mu.RUnlock()

	if !exists {
		t.Fatal("connection should be registered")
	}
	if len(connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(connections))
	}

	conn.Close()
	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	_, exists = hub.connections[1]
	hub.mu.RUnlock()

	if exists {
		t.Fatal("connection should be unregistered")
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	server, conn := dialTestHub(t, hub, 1)
	defer server.Close()
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(1, &Message{
		Type:    "export_progress",
		Channel: "export_progress#1",
		Data:    map[string]interface{}{"progress": 42.0},
	})

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	if received.Type != "export_progress" {
		t.Errorf("expected type 'export_progress', got %q", received.Type)
	}
	if received.Channel != "export_progress#1" {
		t.Errorf("unexpected channel %q", received.Channel)
	}
	if received.UserID != 1 {
		t.Errorf("expected userID 1, got %d", received.UserID)
	}
}

func TestHub_MultipleConnections(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, 1)
	}))
	defer server.Close()

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[4:], nil)
		if err != nil {
			t.Fatalf("failed to connect: %v", err)
		}
		conns = append(conns, conn)
		defer conn.Close()
	}

	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	connections := hub.connections[1]
	hub.mu.RUnlock()
	if len(connections) != 3 {
		t.Fatalf("expected 3 connections, got %d", len(connections))
	}

	hub.Broadcast(1, &Message{Type: "export_complete", Data: map[string]interface{}{}})

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(idx int, c *websocket.Conn) {
			defer wg.Done()
			c.SetReadDeadline(time.Now().Add(1 * time.Second))
			var received Message
			if err := c.ReadJSON(&received); err != nil {
				t.Errorf("connection %d failed to read: %v", idx, err)
				return
			}
			if received.Type != "export_complete" {
				t.Errorf("connection %d: unexpected type %q", idx, received.Type)
			}
		}(i, conn)
	}
	wg.Wait()
}

func TestHub_DifferentUsers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)

	server1, conn1 := dialTestHub(t, hub, 1)
	defer server1.Close()
	defer conn1.Close()

	server2, conn2 := dialTestHub(t, hub, 2)
	defer server2.Close()
	defer conn2.Close()

	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(1, &Message{Type: "export_failed", Data: map[string]interface{}{}})

	conn1.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received Message
	if err := conn1.ReadJSON(&received); err != nil {
		t.Fatalf("user 1 failed to read: %v", err)
	}
	if received.Type != "export_failed" {
		t.Errorf("user 1: unexpected type %q", received.Type)
	}

	conn2.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := conn2.ReadJSON(&received); err == nil {
		t.Error("user 2 should not receive user 1's message")
	}
}

func TestHub_BroadcastChannelFull(t *testing.T) {
	hub := NewHub()
	hub.broadcast = make(chan *Message, 1)
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub.broadcast <- &Message{Type: "fill"}

	// channel is full; this message should be dropped, not block
	hub.Broadcast(1, &Message{Type: "dropped"})

	select {
	case msg := <-hub.broadcast:
		if msg.Type == "dropped" {
			t.Error("message should be dropped when the channel is full")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("expected the fill message to still be queued")
	}
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	go hub.Run(ctx)

	server, conn := dialTestHub(t, hub, 1)
	defer server.Close()

	time.Sleep(50 * time.Millisecond)

	cancel()
	time.Sleep(100 * time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to be closed after hub shutdown")
	}
	conn.Close()
}
