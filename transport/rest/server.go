package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type sessionLookup interface {
	GetSessionSnapshot(ctx context.Context, id string) (*entity.Snapshot, error)
}

// Server exposes read-only lookups next to the socket protocol.
type Server struct {
	logger   *slog.Logger
	sessions sessionLookup
	rules    *entity.Rules
	router   *mux.Router
}

func New(logger *slog.Logger, sessions sessionLookup, rules *entity.Rules) *Server {
	server := &Server{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
		rules:    rules,
		router:   mux.NewRouter(),
	}

	server.router.HandleFunc("/ping", server.handlePing).Methods(http.MethodGet)

	api := server.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rules", server.handleRules).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", server.handleGetSession).Methods(http.MethodGet)

	return server
}

// Mount - serves handler at path alongside the API routes.
func (that *Server) Mount(path string, handler http.Handler) {
	that.router.Handle(path, handler)
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	that.router.ServeHTTP(w, r)
}

// Start - starts HTTP server and blocks until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down http server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

type rulesResponse struct {
	BoardSize int             `json:"boardSize"`
	WinLength int             `json:"winLength"`
	Players   []entity.Player `json:"players"`
}

func (that *Server) handleRules(w http.ResponseWriter, _ *http.Request) {
	that.respondJSON(w, http.StatusOK, rulesResponse{
		BoardSize: that.rules.BoardSize,
		WinLength: that.rules.WinLength,
		Players:   that.rules.Players,
	})
}

func (that *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	snapshot, err := that.sessions.GetSessionSnapshot(r.Context(), id)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		that.respondError(w, http.StatusNotFound, apperror.ReasonSessionNotFound)
		return
	}

	if err != nil {
		that.logger.Error("failed to get session", "session_id", id, "error", err)
		that.respondError(w, http.StatusInternalServerError, apperror.ReasonInternal)
		return
	}

	that.respondJSON(w, http.StatusOK, snapshot)
}

func (that *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) respondError(w http.ResponseWriter, status int, reason string) {
	that.respondJSON(w, status, map[string]string{"reason": reason})
}
