package dispatcher

import (
	"context"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

type broadcaster interface {
	Broadcast(sessionID string, message []byte) int
}

// StatePublisher fans committed snapshots out to the session's subscribers as state messages.
type StatePublisher struct {
	logger      *slog.Logger
	broadcaster broadcaster
}

func NewStatePublisher(logger *slog.Logger, broadcaster broadcaster) *StatePublisher {
	return &StatePublisher{
		logger:      logger.With("component", "state-publisher"),
		broadcaster: broadcaster,
	}
}

func (that *StatePublisher) Publish(_ context.Context, snapshot *entity.Snapshot) {
	raw, err := encodeState(snapshot)
	if err != nil {
		that.logger.Error("failed to encode state", "session_id", snapshot.ID, "error", err)
		return
	}

	delivered := that.broadcaster.Broadcast(snapshot.ID, raw)

	that.logger.Debug("state published", "session_id", snapshot.ID, "delivered", delivered)
}
