package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

var ErrSessionExists = errors.New("session already exists")

// SessionRepository persists session snapshots by id. Sessions are never deleted.
type SessionRepository interface {
	// Create stores a new session and fails with ErrSessionExists if the id is taken.
	Create(ctx context.Context, session *entity.Snapshot) error
	CreateOrUpdate(ctx context.Context, session *entity.Snapshot) error
	GetByID(ctx context.Context, id string) (*entity.Snapshot, error)
}

type redisSession struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisSessionRepository(client *redis.Client, keyPrefix string) SessionRepository {
	return &redisSession{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (that *redisSession) Create(ctx context.Context, session *entity.Snapshot) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	created, err := that.client.SetNX(ctx, that.key(session.ID), sessionJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", ErrSessionExists, session.ID)
	}

	return nil
}

func (that *redisSession) CreateOrUpdate(ctx context.Context, session *entity.Snapshot) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	err = that.client.Set(ctx, that.key(session.ID), sessionJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *redisSession) GetByID(ctx context.Context, id string) (*entity.Snapshot, error) {
	response, err := that.client.Get(ctx, that.key(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	var session entity.Snapshot
	if err = json.Unmarshal([]byte(response), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

func (that *redisSession) key(id string) string {
	return that.keyPrefix + id
}
