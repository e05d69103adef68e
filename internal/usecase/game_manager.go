package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

// GameManager maps client intents onto session store transitions.
type GameManager struct {
	logger *slog.Logger
	store  *SessionStore
}

func NewGameManager(logger *slog.Logger, store *SessionStore) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game-manager"),
		store:  store,
	}
}

func (that *GameManager) Rules() *entity.Rules {
	return that.store.Rules()
}

// Join - hands the session to attach, creating one when id is empty.
// attach runs while the session is locked, so no transition slips in between.
func (that *GameManager) Join(ctx context.Context, id string, attach func(snapshot *entity.Snapshot) error) error {
	if id == "" {
		session, err := that.store.Create(ctx)
		if err != nil {
			return fmt.Errorf("failed create session: %w", err)
		}

		id = session.ID
	}

	return that.store.View(ctx, id, attach)
}

func (that *GameManager) Snapshot(ctx context.Context, id string) (*entity.Snapshot, error) {
	session, err := that.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return session.Snapshot(), nil
}

func (that *GameManager) MakeMove(ctx context.Context, id string, cellIndex int) (*entity.Snapshot, error) {
	log := that.logger.With("method", "MakeMove", "session_id", id, "cell", cellIndex)

	snapshot, err := that.store.Update(ctx, id, func(session *entity.Session) error {
		return session.ApplyMove(cellIndex)
	})
	if err != nil {
		log.Debug("move not applied", "error", err)
		return nil, err
	}

	if !snapshot.Active {
		log.Info("game ended", "winner", snapshot.Winner, "draw", snapshot.IsDraw)
	}

	return snapshot, nil
}

func (that *GameManager) NewGame(ctx context.Context, id string) (*entity.Snapshot, error) {
	return that.store.Update(ctx, id, func(session *entity.Session) error {
		session.Reset()
		return nil
	})
}

func (that *GameManager) ResetScores(ctx context.Context, id string) (*entity.Snapshot, error) {
	return that.store.Update(ctx, id, func(session *entity.Session) error {
		session.ResetScores()
		return nil
	})
}
