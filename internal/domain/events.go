package domain

import "time"

// EventType represents the type of game event
type EventType string

const (
	EventLobbyUpdated       EventType = "LOBBY_UPDATED"
	EventRoleAssigned       EventType = "ROLE_ASSIGNED"
	EventPublicAnnouncement EventType = "PUBLIC_ANNOUNCEMENT"
	EventNightPrompt        EventType = "NIGHT_PROMPT"
	EventActionRecorded     EventType = "ACTION_RECORDED"
	EventPrivateReveal      EventType = "PRIVATE_REVEAL"
	EventPhaseChanged       EventType = "PHASE_CHANGED"
	EventPlayerDied         EventType = "PLAYER_DIED"
	EventPlayerEliminated   EventType = "PLAYER_ELIMINATED"
	EventGameEnded          EventType = "GAME_ENDED"
	EventDeliveryFailed     EventType = "DELIVERY_FAILED"
)

// Announcement text keys. The transport renders them through its catalog.
const (
	TextSessionCreated  = "session.created"
	TextPlayerJoined    = "lobby.joined"
	TextSessionFull     = "lobby.full"
	TextSessionCanceled = "session.canceled"
	TextGameStarted     = "game.started"
	TextNightFalls      = "night.falls"
	TextDawnDeath       = "dawn.death"
	TextDawnQuiet       = "dawn.quiet"
	TextVoteOpen        = "vote.open"
	TextVoteEliminated  = "vote.eliminated"
	TextVoteTie         = "vote.tie"
	TextVoteNone        = "vote.none"
	TextGameOver        = "game.over"
	TextDeliveryFailed  = "delivery.failed"
)

// GameEvent represents an event that occurred in a session
type GameEvent struct {
	Type      EventType   `json:"type"`
	Room      string      `json:"room"`
	PlayerID  string      `json:"playerId,omitempty"` // If event is player-specific
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// IsPrivate returns true if the event targets a single player
func (e *GameEvent) IsPrivate() bool {
	return e.PlayerID != ""
}

// NewEvent creates a new public event
func NewEvent(eventType EventType, room string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		Room:      room,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates a new player-specific event
func NewPlayerEvent(eventType EventType, room, playerID string, payload interface{}) *GameEvent {
	return &GameEvent{
		Type:      eventType,
		Room:      room,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewAnnouncement creates a public announcement event
func NewAnnouncement(room, key string, params ...string) *GameEvent {
	return NewEvent(EventPublicAnnouncement, room, &AnnouncementPayload{Key: key, Params: params})
}

// Payload types for different events

// LobbyUpdatePayload is sent when lobby membership changes
type LobbyUpdatePayload struct {
	Players    []PlayerInfo `json:"players"`
	CreatorID  string       `json:"creatorId"`
	TargetSize int          `json:"targetSize"`
	Missing    int          `json:"missing"`
}

// RoleAssignedPayload is sent to each player with their role
type RoleAssignedPayload struct {
	Role Role `json:"role"`
}

// AnnouncementPayload carries a text key and its ordered parameters
type AnnouncementPayload struct {
	Key    string   `json:"key"`
	Params []string `json:"params,omitempty"`
}

// NightPromptPayload lists the choices an actor has tonight
type NightPromptPayload struct {
	Role    Role         `json:"role"`
	Round   int          `json:"round"`
	Targets []PlayerInfo `json:"targets"`
}

// ActionRecordedPayload confirms a night action or vote
type ActionRecordedPayload struct {
	Phase  Phase  `json:"phase"`
	Target Player `json:"target"`
}

// PrivateRevealPayload is a detective's investigation result
type PrivateRevealPayload struct {
	Investigated Player `json:"investigated"`
	Role         Role   `json:"role"`
}

// PhaseChangedPayload is sent on every phase transition
type PhaseChangedPayload struct {
	Phase      Phase        `json:"phase"`
	Round      int          `json:"round"`
	Alive      []PlayerInfo `json:"alive"`
	WindowSecs int          `json:"windowSeconds,omitempty"`
}

// PlayerRemovedPayload is sent when a player dies or is eliminated
type PlayerRemovedPayload struct {
	Player Player `json:"player"`
	Round  int    `json:"round"`
}

// GameEndedPayload carries the winner and the full role reveal
type GameEndedPayload struct {
	Winner Faction     `json:"winner"`
	Rounds int         `json:"rounds"`
	Roles  []RoleGroup `json:"roles"`
}

// DeliveryFailedPayload reports a player who could not be reached privately
type DeliveryFailedPayload struct {
	Player Player    `json:"player"`
	Event  EventType `json:"event"`
	Reason string    `json:"reason"`
}
