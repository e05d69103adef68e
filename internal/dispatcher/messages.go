package dispatcher

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

// ProtocolVersion is reported in the ack to ping.
const ProtocolVersion = 1

const (
	KindJoin        = "join"
	KindSubscribe   = "subscribe"
	KindMove        = "move"
	KindNewGame     = "new-game"
	KindResetScores = "reset-scores"
	KindPing        = "ping"

	KindState = "state"
	KindError = "error"
	KindAck   = "ack"
)

// Inbound is the envelope every client message shares.
type Inbound struct {
	Kind      string  `json:"kind" validate:"required"`
	SessionID *string `json:"sessionId,omitempty"`
	CellIndex *int    `json:"cellIndex,omitempty"`
}

type sessionRequest struct {
	SessionID string `validate:"required"`
}

type moveRequest struct {
	SessionID string `validate:"required"`
	CellIndex *int   `validate:"required"`
}

type StateMessage struct {
	Kind    string           `json:"kind"`
	Session *entity.Snapshot `json:"session"`
}

type ErrorMessage struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

type AckMessage struct {
	Kind     string `json:"kind"`
	Protocol int    `json:"protocol,omitempty"`
}

func encodeState(snapshot *entity.Snapshot) ([]byte, error) {
	return encode(StateMessage{Kind: KindState, Session: snapshot})
}

func encodeError(reason string) ([]byte, error) {
	return encode(ErrorMessage{Kind: KindError, Reason: reason})
}

func encode(message any) ([]byte, error) {
	raw, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return raw, nil
}

func (that *Inbound) sessionID() string {
	if that.SessionID == nil {
		return ""
	}

	return *that.SessionID
}
