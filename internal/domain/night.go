package domain

import "math/rand"

// NightAction is one actor's choice for the night
type NightAction struct {
	ActorID  string `json:"actorId"`
	Role     Role   `json:"role"`
	TargetID string `json:"targetId"`
}

// Investigation is a detective's private result
type Investigation struct {
	DetectiveID string `json:"detectiveId"`
	TargetID    string `json:"targetId"`
	Role        Role   `json:"role"`
}

// NightOutcome is the result of resolving one night
type NightOutcome struct {
	KillTargetID   string          `json:"killTargetId,omitempty"`
	ProtectedID    string          `json:"protectedId,omitempty"`
	DeadID         string          `json:"deadId,omitempty"`
	Investigations []Investigation `json:"investigations,omitempty"`
}

// ResolveNight applies the night rules to actions in the order they were recorded.
//
// The kill candidate is drawn uniformly from all mafia picks, so a target chosen
// by two members is twice as likely. When several doctors act, the last
// recorded protection wins. Detectives learn their target's role regardless
// of the kill. The candidate dies only if unprotected and still alive.
func ResolveNight(actions []NightAction, roles map[string]Role, alive map[string]bool, rng *rand.Rand) NightOutcome {
	var outcome NightOutcome
	var mafiaTargets []string

	for _, a := range actions {
		switch a.Role {
		case RoleMafia:
			mafiaTargets = append(mafiaTargets, a.TargetID)
		case RoleDoctor:
			outcome.ProtectedID = a.TargetID
		case RoleDetective:
			outcome.Investigations = append(outcome.Investigations, Investigation{
				DetectiveID: a.ActorID,
				TargetID:    a.TargetID,
				Role:        roles[a.TargetID],
			})
		}
	}

	if len(mafiaTargets) > 0 {
		outcome.KillTargetID = mafiaTargets[rng.Intn(len(mafiaTargets))]
	}

	if outcome.KillTargetID != "" && outcome.KillTargetID != outcome.ProtectedID && alive[outcome.KillTargetID] {
		outcome.DeadID = outcome.KillTargetID
	}

	return outcome
}
