package entity

// Player is one seat of the fixed roster a session type is configured with.
type Player struct {
	Index  int    `json:"index"`
	Symbol string `json:"symbol"`
	Color  string `json:"color"`
	Name   string `json:"name"`
}

// DefaultPlayers is the four-seat roster used when configuration names none.
func DefaultPlayers() []Player {
	return []Player{
		{Index: 0, Symbol: "X", Color: "#EF4444", Name: "Player 1"},
		{Index: 1, Symbol: "O", Color: "#3B82F6", Name: "Player 2"},
		{Index: 2, Symbol: "△", Color: "#10B981", Name: "Player 3"},
		{Index: 3, Symbol: "□", Color: "#F59E0B", Name: "Player 4"},
	}
}
