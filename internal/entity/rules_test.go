package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRules(t *testing.T) {
	t.Run("Builds the default four player 3x3 rules", func(t *testing.T) {
		// When: building rules with the default roster
		rules, err := NewRules(3, 3, DefaultPlayers())

		// Then: the dimensions and lines match a classic board
		require.NoError(t, err)
		assert.Equal(t, 9, rules.Cells())
		assert.Equal(t, 4, rules.PlayerCount())
		assert.Len(t, rules.WinLines, 8)
	})

	t.Run("Reindexes the roster by position", func(t *testing.T) {
		// Given: players configured without indices
		players := []Player{{Symbol: "A"}, {Symbol: "B"}, {Symbol: "C"}}

		// When: building rules
		rules, err := NewRules(4, 3, players)
		require.NoError(t, err)

		// Then: each player carries its seat ordinal
		for i, player := range rules.Players {
			assert.Equal(t, i, player.Index)
		}
		assert.Zero(t, players[2].Index)
	})

	t.Run("Rejects a single player", func(t *testing.T) {
		_, err := NewRules(3, 3, DefaultPlayers()[:1])

		assert.ErrorIs(t, err, ErrInvalidRules)
	})

	t.Run("Rejects a win length longer than the board", func(t *testing.T) {
		_, err := NewRules(3, 5, DefaultPlayers())

		assert.ErrorIs(t, err, ErrInvalidRules)
	})
}
