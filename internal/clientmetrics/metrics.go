// Package clientmetrics counts traffic on driver transports that are not
// plain database sockets (SQL-over-HTTP requests, WebSocket tunnels).
package clientmetrics

import (
	"sync"
	"time"
)

// ClientMetrics tracks connection and message statistics for one driver
// transport. It is safe for concurrent use.
type ClientMetrics struct {
	mu           sync.Mutex
	firstConnect time.Time
	connects     int64
	open         int64
	messagesSent int64
	messagesRecv int64
	bytesSent    int64
	bytesRecv    int64
	errors       int64
}

func New() *ClientMetrics {
	return &ClientMetrics{}
}

// MarkConnected records a newly established connection.
func (m *ClientMetrics) MarkConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.firstConnect.IsZero() {
		m.firstConnect = time.Now()
	}
	m.connects++
	m.open++
}

// MarkClosed records a connection being torn down.
func (m *ClientMetrics) MarkClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open > 0 {
		m.open--
	}
}

// IncrementSent counts one outbound message (frame or request) of the given size.
func (m *ClientMetrics) IncrementSent(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesSent++
	m.bytesSent += bytes
}

// IncrementReceived counts one inbound message (frame or response) of the given size.
func (m *ClientMetrics) IncrementReceived(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messagesRecv++
	m.bytesRecv += bytes
}

func (m *ClientMetrics) IncrementErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Connects         int64         `json:"connects"`
	OpenConnections  int64         `json:"openConnections"`
	Uptime           time.Duration `json:"uptime"`
	MessagesSent     int64         `json:"messagesSent"`
	MessagesReceived int64         `json:"messagesReceived"`
	BytesSent        int64         `json:"bytesSent"`
	BytesReceived    int64         `json:"bytesReceived"`
	Errors           int64         `json:"errors"`
}

// Snapshot returns a consistent snapshot of all counters. A nil receiver
// yields the zero Snapshot.
func (m *ClientMetrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var uptime time.Duration
	if !m.firstConnect.IsZero() {
		uptime = time.Since(m.firstConnect)
	}

	return Snapshot{
		Connects:         m.connects,
		OpenConnections:  m.open,
		Uptime:           uptime,
		MessagesSent:     m.messagesSent,
		MessagesReceived: m.messagesRecv,
		BytesSent:        m.bytesSent,
		BytesReceived:    m.bytesRecv,
		Errors:           m.errors,
	}
}
