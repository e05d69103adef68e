package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBufferSize = 256
)

var ErrSendBufferFull = errors.New("send buffer is full")

// client is one websocket peer. Outbound messages are queued on send and
// written by writePump; Send never blocks.
type client struct {
	id     string
	logger *slog.Logger
	conn   *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *client {
	id := uuid.NewString()

	return &client{
		id:     id,
		logger: logger.With("connection_id", id),
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
}

func (that *client) ID() string {
	return that.id
}

// Send - queues message for delivery. A client that cannot keep up is disconnected.
func (that *client) Send(message []byte) error {
	select {
	case <-that.done:
		return apperror.ErrConnectionClosed
	default:
	}

	select {
	case that.send <- message:
		return nil
	case <-that.done:
		return apperror.ErrConnectionClosed
	default:
		that.close()
		return ErrSendBufferFull
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// readPump - feeds every inbound frame to handler until the peer goes away.
func (that *client) readPump(ctx context.Context, handler inboundHandler) {
	defer func() {
		handler.OnConnectionClosed(that)
		that.close()
		_ = that.conn.Close()
	}()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				that.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		if err = handler.HandleInboundMessage(ctx, that, raw); err != nil {
			that.logger.Info("could not reply to client", "error", err)
			return
		}
	}
}

// writePump - the only goroutine writing to conn.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				that.logger.Debug("websocket write failed", "error", err)
				that.close()
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}

		case <-that.done:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = that.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
