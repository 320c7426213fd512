package websocket

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/torosent/querybench/internal/clientmetrics"
)

func createTestWSServer(handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestConnWriteAndReadStream(t *testing.T) {
	server := createTestWSServer(func(conn *websocket.Conn) {
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType != websocket.BinaryMessage {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		}
	})
	defer server.Close()

	metrics := clientmetrics.New()
	conn, err := Dial(context.Background(), Config{URL: wsURL(server), Metrics: metrics})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello ")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := conn.Write([]byte("tunnel")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline failed: %v", err)
	}

	// Two frames read through a buffer smaller than either frame.
	got := make([]byte, 0, 12)
	buf := make([]byte, 4)
	for len(got) < 12 {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "hello tunnel" {
		t.Fatalf("stream = %q, want %q", got, "hello tunnel")
	}

	snap := metrics.Snapshot()
	if snap.Connects != 1 {
		t.Errorf("Connects = %d, want 1", snap.Connects)
	}
	if snap.MessagesSent != 2 || snap.BytesSent != 12 {
		t.Errorf("sent = %d frames / %d bytes", snap.MessagesSent, snap.BytesSent)
	}
}

func TestConnReadReturnsEOFOnNormalClose(t *testing.T) {
	server := createTestWSServer(func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte("bye"))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	})
	defer server.Close()

	conn, err := Dial(context.Background(), Config{URL: wsURL(server)})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "bye" {
		t.Fatalf("data = %q, want bye", data)
	}
	if got := conn.Metrics().Snapshot().MessagesReceived; got != 1 {
		t.Fatalf("MessagesReceived = %d, want 1", got)
	}
}

func TestConnCloseIsIdempotent(t *testing.T) {
	server := createTestWSServer(func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	conn, err := Dial(context.Background(), Config{URL: wsURL(server)})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	first := conn.Close()
	second := conn.Close()
	if first != second {
		t.Fatalf("Close results differ: %v vs %v", first, second)
	}
	if open := conn.Metrics().Snapshot().OpenConnections; open != 0 {
		t.Fatalf("OpenConnections = %d, want 0", open)
	}
}

func TestDialFailureCountsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	metrics := clientmetrics.New()
	_, err := Dial(context.Background(), Config{URL: wsURL(server), Metrics: metrics})
	if err == nil {
		t.Fatal("expected dial error")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("error %q should mention status", err)
	}
	if metrics.Snapshot().Errors != 1 {
		t.Fatalf("Errors = %d, want 1", metrics.Snapshot().Errors)
	}
}
