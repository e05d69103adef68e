package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/registry"
)

type gameManager interface {
	Join(ctx context.Context, id string, attach func(snapshot *entity.Snapshot) error) error
	Snapshot(ctx context.Context, id string) (*entity.Snapshot, error)
	MakeMove(ctx context.Context, id string, cellIndex int) (*entity.Snapshot, error)
	NewGame(ctx context.Context, id string) (*entity.Snapshot, error)
	ResetScores(ctx context.Context, id string) (*entity.Snapshot, error)
}

type connections interface {
	Subscribe(conn registry.Connection, sessionID string)
	Unsubscribe(conn registry.Connection)
	Send(conn registry.Connection, message []byte) error
}

type handlerFunc func(ctx context.Context, conn registry.Connection, message *Inbound) error

// Dispatcher decodes client messages, runs them against the game and answers the sender.
type Dispatcher struct {
	logger      *slog.Logger
	games       gameManager
	connections connections
	validate    *validator.Validate

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, games gameManager, connections connections) *Dispatcher {
	dispatcher := &Dispatcher{
		logger:      logger.With("component", "dispatcher"),
		games:       games,
		connections: connections,
		validate:    validator.New(validator.WithRequiredStructEnabled()),

		handlers: make(map[string]handlerFunc),
	}

	dispatcher.handlers[KindJoin] = dispatcher.handleJoin
	dispatcher.handlers[KindSubscribe] = dispatcher.handleJoin
	dispatcher.handlers[KindMove] = dispatcher.handleMove
	dispatcher.handlers[KindNewGame] = dispatcher.handleNewGame
	dispatcher.handlers[KindResetScores] = dispatcher.handleResetScores
	dispatcher.handlers[KindPing] = dispatcher.handlePing

	return dispatcher
}

// HandleInboundMessage - processes one raw client message. Game and protocol failures are
// reported to conn as error messages; the returned error is only about reaching conn.
func (that *Dispatcher) HandleInboundMessage(ctx context.Context, conn registry.Connection, raw []byte) error {
	log := that.logger.With("method", "HandleInboundMessage", "connection_id", conn.ID())

	message, err := that.decode(raw)
	if err == nil {
		handler, ok := that.handlers[message.Kind]
		if !ok {
			err = fmt.Errorf("%w: %q", apperror.ErrUnknownMessageKind, message.Kind)
		} else {
			err = handler(ctx, conn, message)
		}
	}

	if err == nil {
		return nil
	}

	if errors.Is(err, apperror.ErrConnectionClosed) {
		return err
	}

	reason := apperror.Reason(err)
	if reason == apperror.ReasonInternal {
		log.Error("failed to process message", "error", err)
	} else {
		log.Debug("message rejected", "reason", reason, "error", err)
	}

	return that.sendError(conn, reason)
}

// OnConnectionClosed - forgets the connection; sessions are left as they are.
func (that *Dispatcher) OnConnectionClosed(conn registry.Connection) {
	that.connections.Unsubscribe(conn)
}

// GetSessionSnapshot - read-only lookup for auxiliary surfaces.
func (that *Dispatcher) GetSessionSnapshot(ctx context.Context, id string) (*entity.Snapshot, error) {
	return that.games.Snapshot(ctx, id)
}

func (that *Dispatcher) decode(raw []byte) (*Inbound, error) {
	var message Inbound
	if err := json.Unmarshal(raw, &message); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	if err := that.validate.Struct(&message); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	return &message, nil
}

func (that *Dispatcher) require(request any) error {
	if err := that.validate.Struct(request); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	return nil
}

func (that *Dispatcher) handleJoin(ctx context.Context, conn registry.Connection, message *Inbound) error {
	return that.games.Join(ctx, message.sessionID(), func(snapshot *entity.Snapshot) error {
		that.connections.Subscribe(conn, snapshot.ID)

		return that.sendState(conn, snapshot)
	})
}

func (that *Dispatcher) handleMove(ctx context.Context, _ registry.Connection, message *Inbound) error {
	request := moveRequest{SessionID: message.sessionID(), CellIndex: message.CellIndex}
	if err := that.require(&request); err != nil {
		return err
	}

	_, err := that.games.MakeMove(ctx, request.SessionID, *request.CellIndex)

	return err
}

func (that *Dispatcher) handleNewGame(ctx context.Context, _ registry.Connection, message *Inbound) error {
	request := sessionRequest{SessionID: message.sessionID()}
	if err := that.require(&request); err != nil {
		return err
	}

	_, err := that.games.NewGame(ctx, request.SessionID)

	return err
}

func (that *Dispatcher) handleResetScores(ctx context.Context, _ registry.Connection, message *Inbound) error {
	request := sessionRequest{SessionID: message.sessionID()}
	if err := that.require(&request); err != nil {
		return err
	}

	_, err := that.games.ResetScores(ctx, request.SessionID)

	return err
}

func (that *Dispatcher) handlePing(_ context.Context, conn registry.Connection, _ *Inbound) error {
	raw, err := encode(AckMessage{Kind: KindAck, Protocol: ProtocolVersion})
	if err != nil {
		return err
	}

	return that.connections.Send(conn, raw)
}

func (that *Dispatcher) sendState(conn registry.Connection, snapshot *entity.Snapshot) error {
	raw, err := encodeState(snapshot)
	if err != nil {
		return err
	}

	return that.connections.Send(conn, raw)
}

func (that *Dispatcher) sendError(conn registry.Connection, reason string) error {
	raw, err := encodeError(reason)
	if err != nil {
		return err
	}

	return that.connections.Send(conn, raw)
}
