package domain

import "math/rand"

// Player count limits for a session
const (
	MinPlayers = 4
	MaxPlayers = 30
)

// RoleCounts is the number of each role dealt for a given player count
type RoleCounts struct {
	Mafia     int
	Doctor    int
	Detective int
	Citizen   int
}

// CountsFor returns the role distribution for n players.
// Mafia is a quarter of the table (at least one); doctors and detectives
// scale 1/2/3 with breakpoints at 6 and 12 players.
func CountsFor(n int) RoleCounts {
	mafia := max(1, n/4)

	doctors := 3
	switch {
	case n <= 6:
		doctors = 1
	case n <= 12:
		doctors = 2
	}

	return RoleCounts{
		Mafia:     mafia,
		Doctor:    doctors,
		Detective: doctors,
		Citizen:   n - mafia - 2*doctors,
	}
}

// AssignRoles deals roles to players. The counts depend only on len(players);
// which player receives which role comes from a shuffle driven by rng, so it
// cannot be inferred from join order.
func AssignRoles(players []Player, rng *rand.Rand) map[string]Role {
	counts := CountsFor(len(players))

	deck := make([]Role, 0, len(players))
	deck = appendN(deck, RoleMafia, counts.Mafia)
	deck = appendN(deck, RoleDoctor, counts.Doctor)
	deck = appendN(deck, RoleDetective, counts.Detective)
	deck = appendN(deck, RoleCitizen, counts.Citizen)

	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	roles := make(map[string]Role, len(players))
	for i, p := range players {
		roles[p.ID] = deck[i]
	}
	return roles
}

func appendN(deck []Role, role Role, n int) []Role {
	for i := 0; i < n; i++ {
		deck = append(deck, role)
	}
	return deck
}
