package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/tictactoe"
)

var ErrInvalidRules = errors.New("invalid game rules")

// Rules fix the board side, the win length and the roster for a session type.
// WinLines is computed once and shared read-only by every session built from it.
type Rules struct {
	BoardSize int      `json:"boardSize"`
	WinLength int      `json:"winLength"`
	Players   []Player `json:"players"`
	WinLines  [][]int  `json:"-"`
}

func NewRules(boardSize, winLength int, players []Player) (*Rules, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 players, got %d", ErrInvalidRules, len(players))
	}

	lines, err := tictactoe.WinLines(boardSize, winLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}

	roster := make([]Player, len(players))
	for i, player := range players {
		player.Index = i
		roster[i] = player
	}

	return &Rules{
		BoardSize: boardSize,
		WinLength: winLength,
		Players:   roster,
		WinLines:  lines,
	}, nil
}

// Cells - number of cells on the board.
func (that *Rules) Cells() int {
	return that.BoardSize * that.BoardSize
}

func (that *Rules) PlayerCount() int {
	return len(that.Players)
}
