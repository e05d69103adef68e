package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

type Config struct {
	LogLevel          string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	HTTPPort          string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090" validate:"required,numeric"`
	SocketPort        string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091" validate:"required,numeric"`
	Storage           string `yaml:"storage" env:"STORAGE" env-default:"memory" validate:"oneof=memory redis sqlite"`
	Redis             Redis  `yaml:"redis"`
	SQLiteStoragePath string `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"./sessions.db"`
	Game              Game   `yaml:"game"`
}

type Redis struct {
	Host      string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port      string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	KeyPrefix string `yaml:"key-prefix" env:"REDIS_KEY_PREFIX" env-default:"session:"`
}

type Game struct {
	BoardSize int      `yaml:"board-size" env:"GAME_BOARD_SIZE" env-default:"3" validate:"min=1,max=15"`
	WinLength int      `yaml:"win-length" env:"GAME_WIN_LENGTH" env-default:"3" validate:"min=1,ltefield=BoardSize"`
	Players   []Player `yaml:"players" validate:"omitempty,min=2,dive"`
}

type Player struct {
	Symbol string `yaml:"symbol" validate:"required"`
	Color  string `yaml:"color" validate:"omitempty,hexcolor"`
	Name   string `yaml:"name" validate:"required"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(that); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// Rules - builds the session rules, falling back to the default roster.
func (that *Game) Rules() (*entity.Rules, error) {
	players := entity.DefaultPlayers()

	if len(that.Players) > 0 {
		players = make([]entity.Player, 0, len(that.Players))
		for _, player := range that.Players {
			players = append(players, entity.Player{
				Symbol: player.Symbol,
				Color:  player.Color,
				Name:   player.Name,
			})
		}
	}

	rules, err := entity.NewRules(that.BoardSize, that.WinLength, players)
	if err != nil {
		return nil, fmt.Errorf("failed to build game rules: %w", err)
	}

	return rules, nil
}
