package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	app "github.com/rocketscienceinc/tictactoe-multiplayer/internal"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/config"
)

// main - is the entry point of the application. It loads the environment, parses flags and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(fmt.Errorf("failed to load .env file: %w", err))
	}

	cmd := &cli.Command{
		Name:  "tictactoe-server",
		Usage: "Multiplayer tic-tac-toe session server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "./config.yml",
				Usage:   "path to the YAML config file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "overrides the configured log level (debug, info, warn, error)",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	conf, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if level := cmd.String("log-level"); level != "" {
		conf.LogLevel = level
		if err = conf.Validate(); err != nil {
			return err
		}
	}

	return app.RunApp(ctx, initLogger(conf), conf)
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
