package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/tictactoe"
)

const (
	EmptyCell = tictactoe.EmptyCell
	NoWinner  = -1
)

var ErrCorruptSnapshot = errors.New("snapshot does not match rules")

// Session is the authoritative state of one game instance.
// Active == (Winner == NoWinner && !IsDraw) holds after every transition.
type Session struct {
	ID                 string
	Board              []int
	CurrentPlayerIndex int
	Active             bool
	Winner             int
	IsDraw             bool
	// Scores holds one win counter per player followed by the draw counter.
	Scores []int

	rules *Rules
}

func NewSession(id string, rules *Rules) *Session {
	session := &Session{
		ID:     id,
		Board:  make([]int, rules.Cells()),
		Scores: make([]int, rules.PlayerCount()+1),
		rules:  rules,
	}
	session.Reset()

	return session
}

func (that *Session) Rules() *Rules {
	return that.rules
}

// ApplyMove - marks cellIndex for the current player and settles the outcome.
func (that *Session) ApplyMove(cellIndex int) error {
	if !that.Active {
		return fmt.Errorf("%w: %w", apperror.ErrMoveRejected, apperror.ErrGameNotActive)
	}

	if cellIndex < 0 || cellIndex >= len(that.Board) {
		return fmt.Errorf("%w: %w: cell %d", apperror.ErrMoveRejected, apperror.ErrIndexOutOfRange, cellIndex)
	}

	if that.Board[cellIndex] != EmptyCell {
		return fmt.Errorf("%w: %w: cell %d", apperror.ErrMoveRejected, apperror.ErrCellOccupied, cellIndex)
	}

	that.Board[cellIndex] = that.CurrentPlayerIndex

	if winner, ok := tictactoe.EvaluateWin(that.Board, that.rules.WinLines); ok {
		that.Winner = winner
		that.Active = false
		that.Scores[winner]++

		return nil
	}

	if tictactoe.EvaluateDraw(that.Board) {
		that.IsDraw = true
		that.Active = false
		that.Scores[that.drawCounter()]++

		return nil
	}

	that.CurrentPlayerIndex = (that.CurrentPlayerIndex + 1) % that.rules.PlayerCount()

	return nil
}

// Reset - starts a new game on the same session, keeping the tally.
func (that *Session) Reset() {
	for i := range that.Board {
		that.Board[i] = EmptyCell
	}

	that.CurrentPlayerIndex = 0
	that.Active = true
	that.Winner = NoWinner
	that.IsDraw = false
}

func (that *Session) ResetScores() {
	for i := range that.Scores {
		that.Scores[i] = 0
	}
}

func (that *Session) IsFinished() bool {
	return !that.Active
}

func (that *Session) Draws() int {
	return that.Scores[that.drawCounter()]
}

func (that *Session) drawCounter() int {
	return len(that.Scores) - 1
}

// Snapshot - deep copy of the session in its wire shape.
func (that *Session) Snapshot() *Snapshot {
	board := make([]*int, len(that.Board))
	for i, cell := range that.Board {
		if cell != EmptyCell {
			owner := cell
			board[i] = &owner
		}
	}

	var winner *int
	if that.Winner != NoWinner {
		w := that.Winner
		winner = &w
	}

	scores := make([]int, len(that.Scores))
	copy(scores, that.Scores)

	return &Snapshot{
		ID:                 that.ID,
		Board:              board,
		CurrentPlayerIndex: that.CurrentPlayerIndex,
		Active:             that.Active,
		Winner:             winner,
		IsDraw:             that.IsDraw,
		Scores:             scores,
	}
}

// Snapshot is the full state of a session at one point in time; empty cells are null.
type Snapshot struct {
	ID                 string `json:"id"`
	Board              []*int `json:"board"`
	CurrentPlayerIndex int    `json:"currentPlayerIndex"`
	Active             bool   `json:"active"`
	Winner             *int   `json:"winner"`
	IsDraw             bool   `json:"isDraw"`
	Scores             []int  `json:"scores"`
}

// RestoreSession - rebuilds a session from a stored snapshot, checking it against rules.
func RestoreSession(rules *Rules, snapshot *Snapshot) (*Session, error) {
	players := rules.PlayerCount()

	if len(snapshot.Board) != rules.Cells() || len(snapshot.Scores) != players+1 {
		return nil, fmt.Errorf("%w: session %s has %d cells and %d counters",
			ErrCorruptSnapshot, snapshot.ID, len(snapshot.Board), len(snapshot.Scores))
	}

	if snapshot.CurrentPlayerIndex < 0 || snapshot.CurrentPlayerIndex >= players {
		return nil, fmt.Errorf("%w: session %s turn %d", ErrCorruptSnapshot, snapshot.ID, snapshot.CurrentPlayerIndex)
	}

	session := &Session{
		ID:                 snapshot.ID,
		Board:              make([]int, len(snapshot.Board)),
		CurrentPlayerIndex: snapshot.CurrentPlayerIndex,
		Active:             snapshot.Active,
		Winner:             NoWinner,
		IsDraw:             snapshot.IsDraw,
		Scores:             make([]int, len(snapshot.Scores)),
		rules:              rules,
	}

	for i, cell := range snapshot.Board {
		session.Board[i] = EmptyCell
		if cell != nil {
			if *cell < 0 || *cell >= players {
				return nil, fmt.Errorf("%w: session %s cell %d owner %d", ErrCorruptSnapshot, snapshot.ID, i, *cell)
			}
			session.Board[i] = *cell
		}
	}

	if snapshot.Winner != nil {
		session.Winner = *snapshot.Winner
	}

	copy(session.Scores, snapshot.Scores)

	if session.Active != (session.Winner == NoWinner && !session.IsDraw) {
		return nil, fmt.Errorf("%w: session %s active flag disagrees with outcome", ErrCorruptSnapshot, snapshot.ID)
	}

	return session, nil
}
