// Package websocket tunnels a byte stream over a WebSocket connection so that
// stream protocols (the Postgres wire protocol) can run on top of it.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/torosent/querybench/internal/clientmetrics"
)

// Config configures the WebSocket tunnel.
type Config struct {
	URL              string
	Headers          http.Header
	HandshakeTimeout time.Duration
	Subprotocols     []string
	// Metrics, when set, receives connection and frame counters.
	Metrics *clientmetrics.ClientMetrics
}

// Conn adapts a WebSocket connection to net.Conn. Writes are sent as single
// binary frames; reads concatenate incoming frames into one stream.
type Conn struct {
	ws      *websocket.Conn
	metrics *clientmetrics.ClientMetrics

	readMu    sync.Mutex
	reader    io.Reader
	frameSize int64

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

var _ net.Conn = (*Conn)(nil)

// Dial opens the WebSocket and returns it as a stream connection.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 30 * time.Second
	}
	if cfg.Metrics == nil {
		cfg.Metrics = clientmetrics.New()
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
		Subprotocols:     cfg.Subprotocols,
	}

	ws, resp, err := dialer.DialContext(ctx, cfg.URL, cfg.Headers)
	if err != nil {
		cfg.Metrics.IncrementErrors()
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	cfg.Metrics.MarkConnected()
	return &Conn{ws: ws, metrics: cfg.Metrics}, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if c.reader == nil {
			msgType, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				c.metrics.IncrementErrors()
				return 0, fmt.Errorf("read frame: %w", err)
			}
			if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
				continue
			}
			c.reader = r
			c.frameSize = 0
		}

		n, err := c.reader.Read(p)
		c.frameSize += int64(n)
		if errors.Is(err, io.EOF) {
			c.metrics.IncrementReceived(c.frameSize)
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			c.metrics.IncrementErrors()
		}
		return n, err
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		c.metrics.IncrementErrors()
		return 0, fmt.Errorf("write frame: %w", err)
	}
	c.metrics.IncrementSent(int64(len(p)))
	return len(p), nil
}

// Close sends a close frame and closes the underlying connection. It is safe
// to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(5*time.Second),
		)
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
		c.metrics.MarkClosed()
	})
	return c.closeErr
}

func (c *Conn) LocalAddr() net.Addr  { return c.ws.LocalAddr() }
func (c *Conn) RemoteAddr() net.Addr { return c.ws.RemoteAddr() }

func (c *Conn) SetDeadline(t time.Time) error {
	if err := c.ws.SetReadDeadline(t); err != nil {
		return err
	}
	return c.ws.SetWriteDeadline(t)
}

func (c *Conn) SetReadDeadline(t time.Time) error  { return c.ws.SetReadDeadline(t) }
func (c *Conn) SetWriteDeadline(t time.Time) error { return c.ws.SetWriteDeadline(t) }

// Metrics returns the counters shared by this connection.
func (c *Conn) Metrics() *clientmetrics.ClientMetrics {
	return c.metrics
}
