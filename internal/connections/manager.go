package connections

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TimeoutConfig holds the keepalive settings for transcript listeners
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// Manager tracks open transcript websocket connections and the session each one follows
type Manager struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]string
	timeouts    TimeoutConfig
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	PongWait:   60 * time.Second,
	PingPeriod: 54 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		connections: make(map[*websocket.Conn]string),
		timeouts:    timeouts,
	}
}

// AddConnection registers conn as a listener of sessionID
func (m *Manager) AddConnection(conn *websocket.Conn, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = sessionID
}

func (m *Manager) RemoveConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, conn)
}

// GetConnectionCount returns the current number of open connections
func (m *Manager) GetConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// GetSessionConnectionCount returns how many connections follow sessionID
func (m *Manager) GetSessionConnectionCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, id := range m.connections {
		if id == sessionID {
			count++
		}
	}
	return count
}

func (m *Manager) HasConnection(conn *websocket.Conn) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.connections[conn]
	return exists
}

func (m *Manager) GetTimeouts() TimeoutConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.timeouts
}

// SetTimeouts replaces the timeouts and returns a function restoring the previous ones
func (m *Manager) SetTimeouts(timeouts TimeoutConfig) func() {
	m.mu.Lock()
	previous := m.timeouts
	m.timeouts = timeouts
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		m.timeouts = previous
		m.mu.Unlock()
	}
}
