package domain

import "time"

// GameRecord summarizes a finished game for the history archive
type GameRecord struct {
	GameID    string           `json:"gameId"`
	Room      string           `json:"room"`
	Winner    Faction          `json:"winner"`
	Rounds    int              `json:"rounds"`
	Players   []RecordedPlayer `json:"players"`
	StartedAt time.Time        `json:"startedAt"`
	EndedAt   time.Time        `json:"endedAt"`
}

// RecordedPlayer is one seat of a finished game
type RecordedPlayer struct {
	Player   Player `json:"player"`
	Role     Role   `json:"role"`
	Survived bool   `json:"survived"`
}

// Record builds the archive entry for an ended session
func (s *Session) Record() GameRecord {
	players := make([]RecordedPlayer, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, RecordedPlayer{
			Player:   p,
			Role:     s.Roles[p.ID],
			Survived: s.Alive[p.ID],
		})
	}

	return GameRecord{
		GameID:    s.ID,
		Room:      s.Room,
		Winner:    s.Winner,
		Rounds:    s.Round,
		Players:   players,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
	}
}
