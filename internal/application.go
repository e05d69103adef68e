package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/config"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/dispatcher"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/registry"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/repository"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-multiplayer/transport/mcp"
	"github.com/rocketscienceinc/tictactoe-multiplayer/transport/rest"
	"github.com/rocketscienceinc/tictactoe-multiplayer/transport/websocket"
)

var (
	ErrAddrNotFound   = errors.New("redis address string is empty")
	ErrUnknownStorage = errors.New("unknown storage driver")
)

// RunApp - runs the application.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rules, err := conf.Game.Rules()
	if err != nil {
		return err
	}

	sessionRepo, closeStorage, err := openSessionRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	connections := registry.New(logger)
	store := usecase.NewSessionStore(logger, rules, sessionRepo, dispatcher.NewStatePublisher(logger, connections))
	gameManager := usecase.NewGameManager(logger, store)
	protocol := dispatcher.New(logger, gameManager, connections)

	restServer := rest.New(logger, protocol, rules)
	restServer.Mount("/mcp", mcp.New(logger, protocol, rules))

	log.Info("Game rules loaded",
		"board_size", rules.BoardSize,
		"win_length", rules.WinLength,
		"players", rules.PlayerCount(),
		"storage", conf.Storage,
	)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpErrCh <- restServer.Start(ctx, conf.HTTPPort)
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsErrCh <- websocket.New(logger, protocol).Start(ctx, conf.SocketPort)
	}()

	select {
	case err = <-httpErrCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case err = <-wsErrCh:
		if err != nil {
			return fmt.Errorf("WebSocket server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	return nil
}

// openSessionRepository - picks the session backend named in the config.
func openSessionRepository(
	ctx context.Context,
	log *slog.Logger,
	conf *config.Config,
) (repository.SessionRepository, func(), error) {
	switch conf.Storage {
	case config.StorageMemory:
		return repository.NewMemorySessionRepository(), func() {}, nil

	case config.StorageRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		closeStorage := func() {
			if err := redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}

		return repository.NewRedisSessionRepository(redisStorage.Connection, conf.Redis.KeyPrefix), closeStorage, nil

	case config.StorageSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		closeStorage := func() {
			if err := sqliteStorage.Close(); err != nil {
				log.Error("could not close sqlite storage", "error", err)
			}
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			closeStorage()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteSessionRepository(sqliteStorage.Connection), closeStorage, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStorage, conf.Storage)
	}
}
