package domain

// Vote is a day ballot cast by one alive player
type Vote struct {
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

// VoteTally is the number of votes a single player received
type VoteTally struct {
	PlayerID string `json:"playerId"`
	Count    int    `json:"count"`
}

// VoteOutcome is the result of resolving one day's vote
type VoteOutcome struct {
	Tally        []VoteTally `json:"tally"`
	EliminatedID string      `json:"eliminatedId,omitempty"`
	TiedIDs      []string    `json:"tiedIds,omitempty"`
}

// NoVotes reports whether nobody voted
func (o VoteOutcome) NoVotes() bool {
	return len(o.Tally) == 0
}

// ResolveVotes tallies votes by plurality. A unique leader is eliminated;
// a tie for the lead eliminates nobody. Tally entries keep the order in
// which each target first received a vote.
func ResolveVotes(votes []Vote) VoteOutcome {
	var outcome VoteOutcome

	index := make(map[string]int)
	for _, v := range votes {
		i, ok := index[v.TargetID]
		if !ok {
			i = len(outcome.Tally)
			index[v.TargetID] = i
			outcome.Tally = append(outcome.Tally, VoteTally{PlayerID: v.TargetID})
		}
		outcome.Tally[i].Count++
	}

	if len(outcome.Tally) == 0 {
		return outcome
	}

	maxVotes := 0
	for _, t := range outcome.Tally {
		maxVotes = max(maxVotes, t.Count)
	}

	var leaders []string
	for _, t := range outcome.Tally {
		if t.Count == maxVotes {
			leaders = append(leaders, t.PlayerID)
		}
	}

	if len(leaders) == 1 {
		outcome.EliminatedID = leaders[0]
	} else {
		outcome.TiedIDs = leaders
	}

	return outcome
}
