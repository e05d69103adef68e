package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

// memorySession keeps encoded snapshots so callers never share state with the store.
type memorySession struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySession{
		sessions: make(map[string][]byte),
	}
}

func (that *memorySession) Create(_ context.Context, session *entity.Snapshot) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[session.ID]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, session.ID)
	}

	that.sessions[session.ID] = sessionJSON

	return nil
}

func (that *memorySession) CreateOrUpdate(_ context.Context, session *entity.Snapshot) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	that.mu.Lock()
	that.sessions[session.ID] = sessionJSON
	that.mu.Unlock()

	return nil
}

func (that *memorySession) GetByID(_ context.Context, id string) (*entity.Snapshot, error) {
	that.mu.RLock()
	sessionJSON, ok := that.sessions[id]
	that.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	var session entity.Snapshot
	if err := json.Unmarshal(sessionJSON, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}
