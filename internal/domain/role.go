package domain

// Role represents a player's secret role
type Role string

const (
	RoleMafia     Role = "MAFIA"
	RoleDoctor    Role = "DOCTOR"
	RoleDetective Role = "DETECTIVE"
	RoleCitizen   Role = "CITIZEN"
)

// RevealOrder is the fixed order roles are listed in at game end
var RevealOrder = []Role{RoleMafia, RoleDoctor, RoleDetective, RoleCitizen}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the built-in roles
func (r Role) Valid() bool {
	switch r {
	case RoleMafia, RoleDoctor, RoleDetective, RoleCitizen:
		return true
	}
	return false
}

// ActsAtNight returns true if the role has a night ability
func (r Role) ActsAtNight() bool {
	return r == RoleMafia || r == RoleDoctor || r == RoleDetective
}

// Faction returns the side the role plays for
func (r Role) Faction() Faction {
	if r == RoleMafia {
		return FactionMafia
	}
	return FactionCitizens
}

// Faction is one of the two opposing sides
type Faction string

const (
	FactionNone     Faction = ""
	FactionMafia    Faction = "MAFIA"
	FactionCitizens Faction = "CITIZENS"
)
