package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/repository"
)

const maxIDAttempts = 16

var ErrIDSpaceExhausted = errors.New("could not allocate a free session id")

type sessionRepo interface {
	Create(ctx context.Context, session *entity.Snapshot) error
	CreateOrUpdate(ctx context.Context, session *entity.Snapshot) error
	GetByID(ctx context.Context, id string) (*entity.Snapshot, error)
}

// Publisher receives every committed snapshot while the session is still locked,
// so subscribers observe transitions in commit order.
type Publisher interface {
	Publish(ctx context.Context, snapshot *entity.Snapshot)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *entity.Snapshot) {}

// SessionStore owns the authoritative state of every session.
type SessionStore struct {
	logger    *slog.Logger
	rules     *entity.Rules
	repo      sessionRepo
	publisher Publisher
	locks     *keyedMutex
	newID     func() (string, error)
}

func NewSessionStore(logger *slog.Logger, rules *entity.Rules, repo sessionRepo, publisher Publisher) *SessionStore {
	if publisher == nil {
		publisher = nopPublisher{}
	}

	return &SessionStore{
		logger:    logger.With("component", "session-store"),
		rules:     rules,
		repo:      repo,
		publisher: publisher,
		locks:     newKeyedMutex(),
		newID:     pkg.GenerateSessionID,
	}
}

func (that *SessionStore) Rules() *entity.Rules {
	return that.rules
}

// Create - stores a fresh session under an unused id.
func (that *SessionStore) Create(ctx context.Context) (*entity.Session, error) {
	log := that.logger.With("method", "Create")

	for range maxIDAttempts {
		id, err := that.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session id: %w", err)
		}

		session := entity.NewSession(id, that.rules)

		err = that.repo.Create(ctx, session.Snapshot())
		if errors.Is(err, repository.ErrSessionExists) {
			log.Debug("session id collision", "session_id", id)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		log.Info("session created", "session_id", id)

		return session, nil
	}

	return nil, ErrIDSpaceExhausted
}

// Get - returns a private copy of the session; apperror.ErrSessionNotFound if absent.
func (that *SessionStore) Get(ctx context.Context, id string) (*entity.Session, error) {
	snapshot, err := that.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session, err := entity.RestoreSession(that.rules, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return session, nil
}

// View - hands the current snapshot to fn while no transition of the session can commit.
// Subscribing inside fn guarantees the subscriber misses no later broadcast.
func (that *SessionStore) View(ctx context.Context, id string, fn func(snapshot *entity.Snapshot) error) error {
	unlock := that.locks.Lock(id)
	defer unlock()

	session, err := that.Get(ctx, id)
	if err != nil {
		return err
	}

	return fn(session.Snapshot())
}

// Replace - overwrites an existing session; it never creates one.
func (that *SessionStore) Replace(ctx context.Context, session *entity.Session) error {
	unlock := that.locks.Lock(session.ID)
	defer unlock()

	if _, err := that.repo.GetByID(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to replace session: %w", err)
	}

	return that.commit(ctx, session)
}

// Update - runs get, mutate, replace and publish as one step per session id.
// A mutate error leaves the stored session untouched and publishes nothing.
func (that *SessionStore) Update(
	ctx context.Context,
	id string,
	mutate func(session *entity.Session) error,
) (*entity.Snapshot, error) {
	unlock := that.locks.Lock(id)
	defer unlock()

	session, err := that.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = mutate(session); err != nil {
		return nil, err
	}

	if err = that.commit(ctx, session); err != nil {
		return nil, err
	}

	snapshot := session.Snapshot()
	that.publisher.Publish(ctx, snapshot)

	return snapshot, nil
}

func (that *SessionStore) commit(ctx context.Context, session *entity.Session) error {
	if err := that.repo.CreateOrUpdate(ctx, session.Snapshot()); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	that.logger.Debug("session committed",
		"session_id", session.ID,
		"active", session.Active,
		"current_player", session.CurrentPlayerIndex,
	)

	return nil
}
