package tictactoe

import (
	"errors"
	"fmt"
)

// EmptyCell marks a board cell no player has claimed yet.
const EmptyCell = -1

var ErrInvalidDimensions = errors.New("invalid board dimensions")

// directions in enumeration order: rows, columns, main diagonals, anti-diagonals.
var directions = [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// WinLines - enumerates every run of length cells on a size x size board.
// Lines are ordered rows first, then columns, then diagonals.
func WinLines(size, length int) ([][]int, error) {
	if size < 1 || length < 1 || length > size {
		return nil, fmt.Errorf("%w: size %d, win length %d", ErrInvalidDimensions, size, length)
	}

	var lines [][]int
	for _, dir := range directions {
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				line, ok := walk(size, length, row, col, dir)
				if ok {
					lines = append(lines, line)
				}
			}
		}
	}

	return dedupe(lines, length), nil
}

// walk - collects length indices starting at (row, col) in dir, if they all fit on the board.
func walk(size, length, row, col int, dir [2]int) ([]int, bool) {
	line := make([]int, 0, length)
	for step := 0; step < length; step++ {
		r, c := row+dir[0]*step, col+dir[1]*step
		if r < 0 || r >= size || c < 0 || c >= size {
			return nil, false
		}
		line = append(line, r*size+c)
	}

	return line, true
}

// dedupe - a single-cell line is produced once per direction; keep the first.
func dedupe(lines [][]int, length int) [][]int {
	if length > 1 {
		return lines
	}

	seen := make(map[int]struct{}, len(lines))
	out := lines[:0]
	for _, line := range lines {
		if _, ok := seen[line[0]]; ok {
			continue
		}
		seen[line[0]] = struct{}{}
		out = append(out, line)
	}

	return out
}

// EvaluateWin - returns the ordinal holding every cell of the first complete line.
func EvaluateWin(board []int, lines [][]int) (int, bool) {
	for _, line := range lines {
		first := board[line[0]]
		if first == EmptyCell {
			continue
		}

		won := true
		for _, idx := range line[1:] {
			if board[idx] != first {
				won = false
				break
			}
		}

		if won {
			return first, true
		}
	}

	return EmptyCell, false
}

// EvaluateDraw - reports whether every cell is occupied.
func EvaluateDraw(board []int) bool {
	for _, cell := range board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}
