// Package dispatch fans committed coordinator events out to connected
// ops-dashboard websocket clients. It sits outside the coordinator's
// transactional path: a slow or disconnected dashboard never blocks a
// reserve/start/end call.
package dispatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event is the wire shape pushed to every connected dashboard session.
type Event struct {
	EventType string    `json:"event_type"`
	VehicleID string    `json:"vehicle_id"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// WSSession represents one connected ops-dashboard client.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(ev)
}

// WSRegistry holds every connected dashboard session and implements
// coordinator.Notifier by broadcasting to all of them.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSRegistry{sessions: make(map[string]*WSSession), logger: logger}
}

// Add registers a new dashboard connection under a generated session id.
func (r *WSRegistry) Add(sessionID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = &WSSession{conn: conn}
}

// Remove drops a dashboard connection, e.g. after a write failure.
func (r *WSRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Notify implements coordinator.Notifier. Failed sends drop the session
// rather than retrying; the dashboard reconnects on its own.
func (r *WSRegistry) Notify(eventType, vehicleID, detail string) {
	ev := Event{EventType: eventType, VehicleID: vehicleID, Detail: detail, Timestamp: time.Now()}

	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	sessions := make([]*WSSession, 0, len(r.sessions))
	for id, s := range r.sessions {
		ids = append(ids, id)
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for i, s := range sessions {
		if err := s.send(ev); err != nil {
			r.logger.Warn("ws dashboard send failed, dropping session", "session_id", ids[i], "error", err)
			r.Remove(ids[i])
		}
	}
}
