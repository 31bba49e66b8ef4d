package domain

// Player is an external chat identity. The engine never mutates it.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlayerInfo is the public view of a player inside a running game
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
}

// playerIndex returns the position of id in players, or -1
func playerIndex(players []Player, id string) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
