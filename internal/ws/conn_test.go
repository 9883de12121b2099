package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test WebSocket server.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		handler(c)
	}))

	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testConfig(url string) Config {
	return Config{
		URL:              url,
		HandshakeTimeout: 5 * time.Second,
		PingTimeout:      30 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       100,
	}
}

func TestConn_Connect(t *testing.T) {
	server := mockWSServer(t, func(c *websocket.Conn) {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	conn := Dial(testConfig(wsURL(server)), nil)

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !conn.IsConnected() {
		t.Error("expected IsConnected to return true")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if conn.IsConnected() {
		t.Error("expected IsConnected to return false after Close")
	}
}

func TestConn_Send(t *testing.T) {
	var mu sync.Mutex
	var received []byte

	server := mockWSServer(t, func(c *websocket.Conn) {
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			mu.Lock()
			received = msg
			mu.Unlock()
		}
	})
	defer server.Close()

	conn := Dial(testConfig(wsURL(server)), nil)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	testMsg := []byte(`{"action":"listen","data":{"streams":["trade_updates"]}}`)
	if err := conn.Send(testMsg); err != nil {
		t.Errorf("Send failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if string(received) != string(testMsg) {
		t.Errorf("received %q, want %q", received, testMsg)
	}
}

func TestConn_MessagesFIFO(t *testing.T) {
	frames := []string{
		`{"stream":"Q.AAPL","data":{"S":"AAPL"}}`,
		`{"stream":"Q.MSFT","data":{"S":"MSFT"}}`,
		`{"stream":"Q.TSLA","data":{"S":"TSLA"}}`,
	}

	server := mockWSServer(t, func(c *websocket.Conn) {
		for _, f := range frames {
			if err := c.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	conn := Dial(testConfig(wsURL(server)), nil)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	var received []string
	timeout := time.After(time.Second)

	for i := 0; i < len(frames); i++ {
		select {
		case msg := <-conn.Messages():
			received = append(received, string(msg.Data))
			if msg.ReceivedAt.IsZero() {
				t.Error("ReceivedAt should not be zero")
			}
		case <-timeout:
			t.Fatalf("timeout waiting for messages, received %d of %d", len(received), len(frames))
		}
	}

	for i, want := range frames {
		if received[i] != want {
			t.Errorf("message %d: got %q, want %q", i, received[i], want)
		}
	}
}

func TestConn_SendNotConnected(t *testing.T) {
	conn := Dial(testConfig("ws://localhost:1"), nil)

	if err := conn.Send([]byte("test")); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestConn_DoubleClose(t *testing.T) {
	server := mockWSServer(t, func(c *websocket.Conn) {
		time.Sleep(time.Second)
	})
	defer server.Close()

	conn := Dial(testConfig(wsURL(server)), nil)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestConn_ServerCloseSignalsError(t *testing.T) {
	server := mockWSServer(t, func(c *websocket.Conn) {
		// Drop the connection immediately.
	})
	defer server.Close()

	conn := Dial(testConfig(wsURL(server)), nil)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	select {
	case err := <-conn.Errors():
		if err == nil {
			t.Error("expected non-nil transport error")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for transport error")
	}
}
