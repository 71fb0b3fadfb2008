package handler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/idan5353/Chat-App/internal/config"
	"github.com/idan5353/Chat-App/internal/hub"
)

// session is one live websocket with a write lock, since gorilla allows only
// one concurrent writer per connection.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// SessionTable maps connectionIDs to live websockets and implements
// hub.DeliveryChannel for the local transport. A push to an unknown or broken
// session reports hub.ErrGone so the engine can reap the registry entry.
type SessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*session
	log      zerolog.Logger
}

// NewSessionTable returns an empty session table.
func NewSessionTable(log zerolog.Logger) *SessionTable {
	return &SessionTable{
		sessions: make(map[string]*session),
		log:      log.With().Str("component", "sessions").Logger(),
	}
}

// Add tracks a newly upgraded websocket under its connectionID.
func (t *SessionTable) Add(connectionID string, conn *websocket.Conn) {
	t.mu.Lock()
	t.sessions[connectionID] = &session{conn: conn}
	t.mu.Unlock()
}

// Drop closes and forgets a session. Dropping an unknown ID is a no-op.
func (t *SessionTable) Drop(connectionID string) {
	t.mu.Lock()
	s, ok := t.sessions[connectionID]
	delete(t.sessions, connectionID)
	t.mu.Unlock()
	if ok {
		_ = s.conn.Close()
	}
}

// Len reports the number of live sessions.
func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Send pushes payload to one session. The write is bounded by the context
// deadline (falling back to the configured delivery timeout). Write timeouts
// are transient; any other write failure means the socket is dead, so the
// session is dropped and the error reports gone.
func (t *SessionTable) Send(ctx context.Context, domain, connectionID string, payload []byte) error {
	t.mu.RLock()
	s, ok := t.sessions[connectionID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session %s: %w", connectionID, hub.ErrGone)
	}

	deadline := time.Now().Add(config.DeliveryTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(deadline)
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return fmt.Errorf("write to %s: %w", connectionID, err)
		}
		t.Drop(connectionID)
		return fmt.Errorf("write to %s: %w", connectionID, hub.ErrGone)
	}
	return nil
}
