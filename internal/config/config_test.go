package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill in missing values", func(t *testing.T) {
		// Given: an almost empty config file
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: every default is applied
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.Equal(t, StorageMemory, conf.Storage)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, "session:", conf.Redis.KeyPrefix)
		assert.Equal(t, 3, conf.Game.BoardSize)
		assert.Equal(t, 3, conf.Game.WinLength)
	})

	t.Run("Reads a 5x5 game with a custom roster", func(t *testing.T) {
		path := writeConfig(t, `
storage: sqlite
sqlite-storage-path: /tmp/sessions.db
game:
  board-size: 5
  win-length: 5
  players:
    - symbol: X
      color: "#EF4444"
      name: Player 1
    - symbol: O
      color: "#3B82F6"
      name: Player 2
`)

		conf, err := Load(path)
		require.NoError(t, err)

		rules, err := conf.Game.Rules()
		require.NoError(t, err)
		assert.Equal(t, StorageSQLite, conf.Storage)
		assert.Equal(t, 25, rules.Cells())
		assert.Equal(t, 2, rules.PlayerCount())
		assert.Len(t, rules.WinLines, 12)
		assert.Equal(t, 1, rules.Players[1].Index)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "8080")
		t.Setenv("STORAGE", "redis")
		path := writeConfig(t, "http-port: \"7070\"\n")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, StorageRedis, conf.Storage)
	})

	t.Run("Rejects invalid values", func(t *testing.T) {
		tests := map[string]string{
			"unknown storage":          "storage: mongo\n",
			"win length over board":    "game:\n  board-size: 3\n  win-length: 4\n",
			"board too large":          "game:\n  board-size: 16\n  win-length: 3\n",
			"single player":            "game:\n  players:\n    - symbol: X\n      name: Solo\n",
			"unknown log level":        "log-level: loud\n",
			"player without a symbol":  "game:\n  players:\n    - name: A\n    - symbol: O\n      name: B\n",
			"colour that is not a hex": "game:\n  players:\n    - {symbol: X, name: A, color: red}\n    - {symbol: O, name: B}\n",
		}

		for name, content := range tests {
			t.Run(name, func(t *testing.T) {
				_, err := Load(writeConfig(t, content))

				assert.Error(t, err)
			})
		}
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		assert.Error(t, err)
	})
}

func TestGame_Rules(t *testing.T) {
	// Given: no roster configured
	game := Game{BoardSize: 3, WinLength: 3}

	// When: building rules
	rules, err := game.Rules()

	// Then: the four default players are used
	require.NoError(t, err)
	assert.Equal(t, 4, rules.PlayerCount())
	assert.Equal(t, "□", rules.Players[3].Symbol)
}
