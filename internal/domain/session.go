package domain

import (
	"math/rand"
	"time"
)

// Session is one game bound to a room. It is not safe for concurrent use;
// the app layer serializes access.
type Session struct {
	ID         string          `json:"id"`
	Room       string          `json:"room"`
	Creator    Player          `json:"creator"`
	TargetSize int             `json:"targetSize"`
	Phase      Phase           `json:"phase"`
	Players    []Player        `json:"players"`
	Roles      map[string]Role `json:"-"`
	Alive      map[string]bool `json:"-"`
	Round      int             `json:"round"`
	Winner     Faction         `json:"winner,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	StartedAt  time.Time       `json:"startedAt,omitempty"`
	EndedAt    time.Time       `json:"endedAt,omitempty"`

	nightActions []NightAction
	votes        []Vote
	votingOpen   bool
}

// NewSession creates a lobby with the creator as its first player
func NewSession(id, room string, creator Player, targetSize int, now time.Time) (*Session, error) {
	if targetSize < MinPlayers || targetSize > MaxPlayers {
		return nil, ErrInvalidSize
	}

	return &Session{
		ID:         id,
		Room:       room,
		Creator:    creator,
		TargetSize: targetSize,
		Phase:      PhaseLobby,
		Players:    []Player{creator},
		CreatedAt:  now,
	}, nil
}

// Join adds a player to the lobby
func (s *Session) Join(p Player) error {
	if s.Phase != PhaseLobby {
		return ErrNotInLobby
	}

	if s.HasPlayer(p.ID) {
		return ErrAlreadyJoined
	}

	s.Players = append(s.Players, p)
	return nil
}

// IsFull returns true once the lobby reached its target size
func (s *Session) IsFull() bool {
	return len(s.Players) >= s.TargetSize
}

// HasPlayer checks if a player joined this session
func (s *Session) HasPlayer(playerID string) bool {
	return playerIndex(s.Players, playerID) >= 0
}

// IsCreator checks if the given player created the session
func (s *Session) IsCreator(playerID string) bool {
	return s.Creator.ID == playerID
}

// GetPlayer returns a player by ID
func (s *Session) GetPlayer(playerID string) (Player, bool) {
	i := playerIndex(s.Players, playerID)
	if i < 0 {
		return Player{}, false
	}
	return s.Players[i], true
}

// CheckManualStart validates a creator's start request without changing state
func (s *Session) CheckManualStart(requesterID string) error {
	if s.Phase != PhaseLobby {
		return ErrNotInLobby
	}
	if !s.IsCreator(requesterID) {
		return ErrNotCreator
	}
	if len(s.Players) < MinPlayers {
		return ErrTooFewPlayers
	}
	return nil
}

// Start deals roles and enters the first night
func (s *Session) Start(rng *rand.Rand, now time.Time) error {
	if s.Roles != nil {
		return ErrInvalidTransition
	}
	if len(s.Players) < MinPlayers {
		return ErrTooFewPlayers
	}
	if err := s.transition(PhaseNight); err != nil {
		return err
	}

	s.Roles = AssignRoles(s.Players, rng)
	s.Alive = make(map[string]bool, len(s.Players))
	for _, p := range s.Players {
		s.Alive[p.ID] = true
	}
	s.StartedAt = now
	s.Round = 1
	s.nightActions = nil

	return nil
}

// Cancel ends a session that never started
func (s *Session) Cancel(requesterID string, now time.Time) error {
	if !s.IsCreator(requesterID) {
		return ErrNotCreator
	}
	if s.Phase != PhaseLobby {
		return ErrNotInLobby
	}
	s.EndedAt = now
	return s.transition(PhaseEnded)
}

// IsAlive checks if a player is still in play
func (s *Session) IsAlive(playerID string) bool {
	return s.Alive[playerID]
}

// RoleOf returns a player's role, empty before assignment
func (s *Session) RoleOf(playerID string) Role {
	return s.Roles[playerID]
}

// AlivePlayers returns alive players in join order
func (s *Session) AlivePlayers() []Player {
	alive := make([]Player, 0, len(s.Alive))
	for _, p := range s.Players {
		if s.Alive[p.ID] {
			alive = append(alive, p)
		}
	}
	return alive
}

// NightActors returns alive players whose role acts at night, in join order
func (s *Session) NightActors() []Player {
	actors := make([]Player, 0)
	for _, p := range s.AlivePlayers() {
		if s.Roles[p.ID].ActsAtNight() {
			actors = append(actors, p)
		}
	}
	return actors
}

// SubmitNightAction records an actor's choice. The declared role must match
// the actor's real role; the first choice of the night sticks.
func (s *Session) SubmitNightAction(actorID string, declared Role, targetID string) error {
	if s.Phase != PhaseNight {
		return ErrWrongPhase
	}

	role := s.Roles[actorID]
	if !s.IsAlive(actorID) || !role.ActsAtNight() || role != declared {
		return ErrNotEligible
	}

	if s.HasActed(actorID) {
		return ErrAlreadyActed
	}

	if !s.IsAlive(targetID) {
		return ErrInvalidTarget
	}

	s.nightActions = append(s.nightActions, NightAction{
		ActorID:  actorID,
		Role:     role,
		TargetID: targetID,
	})
	return nil
}

// HasActed checks if an actor already acted this night
func (s *Session) HasActed(actorID string) bool {
	for _, a := range s.nightActions {
		if a.ActorID == actorID {
			return true
		}
	}
	return false
}

// NightActions returns the actions recorded this night in arrival order
func (s *Session) NightActions() []NightAction {
	return append([]NightAction(nil), s.nightActions...)
}

// ResolveNight closes the night, applies its outcome and moves to Day,
// or to Ended if a faction won.
func (s *Session) ResolveNight(rng *rand.Rand, now time.Time) (NightOutcome, Faction, error) {
	if s.Phase != PhaseNight {
		return NightOutcome{}, FactionNone, ErrWrongPhase
	}

	outcome := ResolveNight(s.nightActions, s.Roles, s.Alive, rng)
	if outcome.DeadID != "" {
		delete(s.Alive, outcome.DeadID)
	}
	s.nightActions = nil

	if winner := EvaluateWin(s.Alive, s.Roles); winner != FactionNone {
		return outcome, winner, s.end(winner, now)
	}

	if err := s.transition(PhaseDay); err != nil {
		return outcome, FactionNone, err
	}
	s.votes = nil
	s.votingOpen = true

	return outcome, FactionNone, nil
}

// SubmitVote records a ballot; self-votes are allowed
func (s *Session) SubmitVote(voterID, targetID string) error {
	if s.Phase != PhaseDay || !s.votingOpen {
		return ErrWrongPhase
	}

	if !s.IsAlive(voterID) {
		return ErrNotAlive
	}

	if s.HasVoted(voterID) {
		return ErrAlreadyVoted
	}

	if !s.IsAlive(targetID) {
		return ErrInvalidTarget
	}

	s.votes = append(s.votes, Vote{VoterID: voterID, TargetID: targetID})
	return nil
}

// HasVoted checks if a player already voted today
func (s *Session) HasVoted(voterID string) bool {
	for _, v := range s.votes {
		if v.VoterID == voterID {
			return true
		}
	}
	return false
}

// Votes returns today's ballots in arrival order
func (s *Session) Votes() []Vote {
	return append([]Vote(nil), s.votes...)
}

// ResolveDay closes the vote and applies the elimination. Without a winner
// the session stays in Day until BeginNight.
func (s *Session) ResolveDay(now time.Time) (VoteOutcome, Faction, error) {
	if s.Phase != PhaseDay || !s.votingOpen {
		return VoteOutcome{}, FactionNone, ErrWrongPhase
	}

	outcome := ResolveVotes(s.votes)
	if outcome.EliminatedID != "" {
		delete(s.Alive, outcome.EliminatedID)
	}
	s.votes = nil
	s.votingOpen = false

	if winner := EvaluateWin(s.Alive, s.Roles); winner != FactionNone {
		return outcome, winner, s.end(winner, now)
	}

	return outcome, FactionNone, nil
}

// BeginNight starts the next round's night
func (s *Session) BeginNight() error {
	if s.votingOpen {
		return ErrWrongPhase
	}
	if err := s.transition(PhaseNight); err != nil {
		return err
	}
	s.Round++
	s.nightActions = nil
	return nil
}

// Reveal returns the full role assignment grouped for the end screen
func (s *Session) Reveal() []RoleGroup {
	return RevealRoles(s.Players, s.Roles)
}

// Info returns the public view of all players
func (s *Session) Info() []PlayerInfo {
	players := make([]PlayerInfo, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, PlayerInfo{ID: p.ID, Name: p.Name, Alive: s.Alive == nil || s.Alive[p.ID]})
	}
	return players
}

func (s *Session) end(winner Faction, now time.Time) error {
	if err := s.transition(PhaseEnded); err != nil {
		return err
	}
	s.Winner = winner
	s.EndedAt = now
	return nil
}

func (s *Session) transition(to Phase) error {
	if !s.Phase.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	s.Phase = to
	return nil
}
