package registry

import (
	"fmt"
	"log/slog"
	"sync"
)

// Connection is one live client link. Send must not block.
type Connection interface {
	ID() string
	Send(message []byte) error
}

type record struct {
	conn      Connection
	sessionID string
}

// Registry tracks which session each connection watches.
// It is guarded by its own lock and never takes session locks.
type Registry struct {
	logger *slog.Logger

	mu          sync.RWMutex
	connections map[string]*record
	sessions    map[string]map[string]Connection
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:      logger.With("component", "registry"),
		connections: make(map[string]*record),
		sessions:    make(map[string]map[string]Connection),
	}
}

// Subscribe - attaches conn to sessionID, detaching it from any previous session.
func (that *Registry) Subscribe(conn Connection, sessionID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if existing, ok := that.connections[conn.ID()]; ok {
		if existing.sessionID == sessionID {
			return
		}
		that.detach(existing)
	}

	that.connections[conn.ID()] = &record{conn: conn, sessionID: sessionID}

	subscribers, ok := that.sessions[sessionID]
	if !ok {
		subscribers = make(map[string]Connection)
		that.sessions[sessionID] = subscribers
	}
	subscribers[conn.ID()] = conn

	that.logger.Debug("connection subscribed",
		"connection_id", conn.ID(),
		"session_id", sessionID,
		"subscribers", len(subscribers),
	)
}

// Unsubscribe - removes conn from its session. Unknown connections are ignored.
func (that *Registry) Unsubscribe(conn Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.connections[conn.ID()]
	if !ok {
		return
	}

	that.detach(existing)
	delete(that.connections, conn.ID())

	that.logger.Debug("connection unsubscribed", "connection_id", conn.ID(), "session_id", existing.sessionID)
}

func (that *Registry) detach(existing *record) {
	subscribers := that.sessions[existing.sessionID]
	delete(subscribers, existing.conn.ID())

	if len(subscribers) == 0 {
		delete(that.sessions, existing.sessionID)
	}
}

// SessionOf - the session conn is subscribed to, if any.
func (that *Registry) SessionOf(conn Connection) (string, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	existing, ok := that.connections[conn.ID()]
	if !ok {
		return "", false
	}

	return existing.sessionID, true
}

func (that *Registry) Subscribers(sessionID string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions[sessionID])
}

// Broadcast - delivers message once to every subscriber of sessionID and returns
// how many accepted it. Failed connections are logged and skipped.
func (that *Registry) Broadcast(sessionID string, message []byte) int {
	log := that.logger.With("method", "Broadcast", "session_id", sessionID)

	that.mu.RLock()
	targets := make([]Connection, 0, len(that.sessions[sessionID]))
	for _, conn := range that.sessions[sessionID] {
		targets = append(targets, conn)
	}
	that.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(message); err != nil {
			log.Warn("failed to deliver message", "connection_id", conn.ID(), "error", err)
			continue
		}
		delivered++
	}

	return delivered
}

// Send - unicast to a single connection, subscribed or not.
func (that *Registry) Send(conn Connection, message []byte) error {
	if err := conn.Send(message); err != nil {
		return fmt.Errorf("failed to send to connection %s: %w", conn.ID(), err)
	}

	return nil
}
