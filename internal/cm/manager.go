// Package cm is the connection manager: it tracks the inbound sessions
// other machines have opened to this one and lets the UI accept or end
// them.
package cm

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Client is one inbound connection as shown on the cm page.
type Client struct {
	ID           int       `json:"id"`
	PeerID       string    `json:"peer_id"`
	Name         string    `json:"name"`
	Authorized   bool      `json:"authorized"`
	FileTransfer bool      `json:"is_file_transfer"`
	PortForward  string    `json:"port_forward,omitempty"`
	ConnectedAt  time.Time `json:"connected_at"`
}

// Sender delivers a control message to the process serving a client.
type Sender func(Message) error

type entry struct {
	client Client
	send   Sender
}

// Manager is the client table.  It is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	clients map[int]*entry
	changed bool
}

// NewManager returns an empty table.
func NewManager() *Manager {
	return &Manager{clients: make(map[int]*entry)}
}

// Add registers c, replacing any client with the same id.
func (m *Manager) Add(c Client, send Sender) {
	if c.ConnectedAt.IsZero() {
		c.ConnectedAt = time.Now()
	}
	m.mu.Lock()
	m.clients[c.ID] = &entry{client: c, send: send}
	m.changed = true
	m.mu.Unlock()
}

// Remove drops the client with id, if present.
func (m *Manager) Remove(id int) {
	m.mu.Lock()
	if _, ok := m.clients[id]; ok {
		delete(m.clients, id)
		m.changed = true
	}
	m.mu.Unlock()
}

// Clients returns the current clients ordered by id.
func (m *Manager) Clients() []Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Client, 0, len(m.clients))
	for _, e := range m.clients {
		out = append(out, e.client)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// JSON returns Clients encoded as a JSON array.
func (m *Manager) JSON() string {
	data, err := json.Marshal(m.Clients())
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Changed reports whether the table changed since the last call, and
// clears the flag.
func (m *Manager) Changed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.changed
	m.changed = false
	return c
}

// Authorize accepts the client with id and tells its serving process.
func (m *Manager) Authorize(id int) error {
	m.mu.Lock()
	e, ok := m.clients[id]
	if ok {
		e.client.Authorized = true
		m.changed = true
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("cm: no client %d", id)
	}
	return e.send(Message{Type: TypeAuthorize, ID: id})
}

// Close ends the client with id and removes it from the table.
func (m *Manager) Close(id int) error {
	m.mu.Lock()
	e, ok := m.clients[id]
	if ok {
		delete(m.clients, id)
		m.changed = true
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("cm: no client %d", id)
	}
	return e.send(Message{Type: TypeClose, ID: id})
}
