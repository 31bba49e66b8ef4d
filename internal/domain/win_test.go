package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateWin(t *testing.T) {
	roles := map[string]Role{
		"m1": RoleMafia,
		"m2": RoleMafia,
		"d1": RoleDoctor,
		"x1": RoleDetective,
		"c1": RoleCitizen,
		"c2": RoleCitizen,
		"c3": RoleCitizen,
	}

	tests := []struct {
		name  string
		alive map[string]bool
		want  Faction
	}{
		{"one mafia one citizen", aliveSet("m1", "c1"), FactionMafia},
		{"one mafia three citizens", aliveSet("m1", "c1", "c2", "c3"), FactionNone},
		{"no mafia", aliveSet("d1", "x1", "c1"), FactionCitizens},
		{"mafia outnumber", aliveSet("m1", "m2", "c1"), FactionMafia},
		{"two against three", aliveSet("m1", "m2", "d1", "x1", "c1"), FactionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateWin(tt.alive, roles))
		})
	}
}

func TestRevealRolesOrder(t *testing.T) {
	players := []Player{
		{ID: "c1", Name: "Ana"},
		{ID: "x1", Name: "Beto"},
		{ID: "m1", Name: "Caro"},
		{ID: "c2", Name: "Dani"},
		{ID: "d1", Name: "Eze"},
	}
	roles := map[string]Role{
		"c1": RoleCitizen,
		"x1": RoleDetective,
		"m1": RoleMafia,
		"c2": RoleCitizen,
		"d1": RoleDoctor,
	}

	groups := RevealRoles(players, roles)

	assert.Equal(t, []RoleGroup{
		{Role: RoleMafia, Players: []Player{{ID: "m1", Name: "Caro"}}},
		{Role: RoleDoctor, Players: []Player{{ID: "d1", Name: "Eze"}}},
		{Role: RoleDetective, Players: []Player{{ID: "x1", Name: "Beto"}}},
		{Role: RoleCitizen, Players: []Player{{ID: "c1", Name: "Ana"}, {ID: "c2", Name: "Dani"}}},
	}, groups)
}
