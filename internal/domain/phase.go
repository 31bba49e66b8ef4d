package domain

// Phase represents the current phase of a session
type Phase string

const (
	PhaseLobby Phase = "LOBBY" // Waiting for players to join
	PhaseNight Phase = "NIGHT" // Role-gated private actions
	PhaseDay   Phase = "DAY"   // Public discussion and voting
	PhaseEnded Phase = "ENDED" // Terminal
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from current phase to target phase is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseLobby: {PhaseNight, PhaseEnded},
		PhaseNight: {PhaseDay, PhaseEnded},
		PhaseDay:   {PhaseNight, PhaseEnded},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}

	for _, phase := range allowed {
		if phase == target {
			return true
		}
	}
	return false
}
