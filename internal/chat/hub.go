package chat

import (
	"sync"

	"github.com/gorilla/websocket"
)

// member is one room occupant. The websocket protocol allows a single
// concurrent writer per connection, so every write goes through the
// member's mutex.
type member struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (m *member) write(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks live websocket connections per course room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*websocket.Conn]*member
}

func NewHub() *Hub {
	return &Hub{rooms: map[string]map[*websocket.Conn]*member{}}
}

func (h *Hub) Join(courseID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[courseID]
	if !ok {
		room = map[*websocket.Conn]*member{}
		h.rooms[courseID] = room
	}
	room[conn] = &member{conn: conn}
}

func (h *Hub) Leave(courseID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[courseID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, courseID)
		}
	}
}

// Broadcast writes payload to every connection in the course room. Writes to
// the same connection are serialized through the member mutex; dead
// connections are dropped on write failure.
func (h *Hub) Broadcast(courseID string, payload []byte) {
	h.mu.RLock()
	members := make([]*member, 0, len(h.rooms[courseID]))
	for _, m := range h.rooms[courseID] {
		members = append(members, m)
	}
	h.mu.RUnlock()

	for _, m := range members {
		if err := m.write(payload); err != nil {
			h.Leave(courseID, m.conn)
			_ = m.conn.Close()
		}
	}
}
