package session

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/kdrennan/match-sim/internal/event"
	"github.com/kdrennan/match-sim/internal/symbol"
)

// Manager handles client registration, subscriptions, and event fan-out.
type Manager struct {
	mu         sync.RWMutex
	clients    map[uint64]*Client
	symbols    []symbol.Symbol
	known      map[string]bool // valid tickers
	bufferSize int
}

// NewManager creates a session manager.
func NewManager(syms []symbol.Symbol, bufferSize int) *Manager {
	known := make(map[string]bool, len(syms))
	for _, s := range syms {
		known[s.Ticker] = true
	}
	return &Manager{
		clients:    make(map[uint64]*Client),
		symbols:    syms,
		known:      known,
		bufferSize: bufferSize,
	}
}

// Register adds a new client. Returns the client for further use.
func (m *Manager) Register(conn *websocket.Conn) *Client {
	c := NewClient(conn, m.bufferSize)

	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()

	log.Printf("client %d connected (%s)", c.ID, conn.RemoteAddr())
	return c
}

// Unregister removes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()

	c.Close()
	log.Printf("client %d disconnected", c.ID)
}

// ResolveTickers filters the requested tickers down to known ones.
// Returns all=true for "*" (every ticker).
func (m *Manager) ResolveTickers(tickers []string) (known []string, all bool) {
	for _, t := range tickers {
		if t == "*" {
			return nil, true
		}
		if m.known[t] {
			known = append(known, t)
		}
	}
	return known, false
}

// Broadcast sends a batch of events to all clients subscribed to the
// ticker. Events are JSON-encoded once and fanned out.
func (m *Manager) Broadcast(ticker string, msgs []event.Message) {
	if len(msgs) == 0 {
		return
	}

	for i := range msgs {
		msgs[i].Stamp()
	}

	var encoded [][]byte
	var once sync.Once

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		if !c.IsSubscribed(ticker) {
			continue
		}
		once.Do(func() {
			encoded = encodeAll(msgs)
		})
		for _, data := range encoded {
			// a full buffer drops the message, never blocks the producer
			c.Send(data)
		}
	}
}

// SendToClient sends events directly to a specific client.
func (m *Manager) SendToClient(c *Client, msgs []event.Message) {
	for i := range msgs {
		msgs[i].Stamp()
	}
	for _, data := range encodeAll(msgs) {
		c.Send(data)
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Symbols returns the symbol list.
func (m *Manager) Symbols() []symbol.Symbol {
	return m.symbols
}

func encodeAll(msgs []event.Message) [][]byte {
	out := make([][]byte, 0, len(msgs))
	for i := range msgs {
		data, err := event.EncodeJSON(&msgs[i])
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}
