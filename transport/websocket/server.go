package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/registry"
)

const shutdownTimeout = 5 * time.Second

type inboundHandler interface {
	HandleInboundMessage(ctx context.Context, conn registry.Connection, raw []byte) error
	OnConnectionClosed(conn registry.Connection)
}

type Server struct {
	logger   *slog.Logger
	handler  inboundHandler
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func New(logger *slog.Logger, handler inboundHandler) *Server {
	return &Server{
		logger:  logger.With("component", "websocket"),
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// Router - routes served by the socket port.
func (that *Server) Router(ctx context.Context) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.ServeWS(ctx, w, r)
	})

	return router
}

// Start - starts WebSocket server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
		that.closeAll()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeWS - upgrades the request and runs the client's pumps.
func (that *Server) ServeWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeWS")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(that.logger, conn)
	that.track(c)

	log.Info("WebSocket connection established", "connection_id", c.ID())

	go c.writePump()
	go func() {
		defer that.untrack(c)
		c.readPump(ctx, that.handler)
		log.Info("WebSocket connection closed", "connection_id", c.ID())
	}()
}

func (that *Server) track(c *client) {
	that.mu.Lock()
	that.clients[c] = struct{}{}
	that.mu.Unlock()
}

func (that *Server) untrack(c *client) {
	that.mu.Lock()
	delete(that.clients, c)
	that.mu.Unlock()
}

func (that *Server) closeAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.clients {
		c.close()
	}
}
