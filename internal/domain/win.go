package domain

// EvaluateWin checks faction counts among alive players.
// Citizens win when no mafia is left; mafia wins once it matches or
// outnumbers everyone else. FactionNone means the game continues.
func EvaluateWin(alive map[string]bool, roles map[string]Role) Faction {
	mafiaAlive, othersAlive := 0, 0
	for id, ok := range alive {
		if !ok {
			continue
		}
		if roles[id] == RoleMafia {
			mafiaAlive++
		} else {
			othersAlive++
		}
	}

	switch {
	case mafiaAlive == 0:
		return FactionCitizens
	case mafiaAlive >= othersAlive:
		return FactionMafia
	default:
		return FactionNone
	}
}

// RoleGroup lists the players who held one role
type RoleGroup struct {
	Role    Role     `json:"role"`
	Players []Player `json:"players"`
}

// RevealRoles groups players by role in RevealOrder, keeping join order
// within each group. Roles nobody held are omitted.
func RevealRoles(players []Player, roles map[string]Role) []RoleGroup {
	groups := make([]RoleGroup, 0, len(RevealOrder))
	for _, role := range RevealOrder {
		var members []Player
		for _, p := range players {
			if roles[p.ID] == role {
				members = append(members, p)
			}
		}
		if len(members) > 0 {
			groups = append(groups, RoleGroup{Role: role, Players: members})
		}
	}
	return groups
}
