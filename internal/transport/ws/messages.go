package ws

import (
	"encoding/json"
	"time"

	"mafia/internal/app"
	"mafia/internal/domain"
)

// timeFormat is the wire format of message timestamps
const timeFormat = time.RFC3339

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgCreateSession MessageType = "create_session"
	MsgJoinSession   MessageType = "join_session"
	MsgStartGame     MessageType = "start_game"
	MsgCancelSession MessageType = "cancel_session"
	MsgNightAction   MessageType = "night_action"
	MsgCastVote      MessageType = "cast_vote"
	MsgPing          MessageType = "ping"
)

// Server → Client message types
const (
	MsgConnected        MessageType = "connected"
	MsgAck              MessageType = "ack"
	MsgError            MessageType = "error"
	MsgPong             MessageType = "pong"
	MsgLobbyUpdate      MessageType = "lobby_update"
	MsgRoleAssigned     MessageType = "role_assigned"
	MsgAnnouncement     MessageType = "announcement"
	MsgNightPrompt      MessageType = "night_prompt"
	MsgActionRecorded   MessageType = "action_recorded"
	MsgInvestigation    MessageType = "investigation_result"
	MsgPhaseChanged     MessageType = "phase_changed"
	MsgPlayerDied       MessageType = "player_died"
	MsgPlayerEliminated MessageType = "player_eliminated"
	MsgGameEnded        MessageType = "game_ended"
	MsgDeliveryFailed   MessageType = "delivery_failed"
)

var eventMessages = map[domain.EventType]MessageType{
	domain.EventLobbyUpdated:       MsgLobbyUpdate,
	domain.EventRoleAssigned:       MsgRoleAssigned,
	domain.EventPublicAnnouncement: MsgAnnouncement,
	domain.EventNightPrompt:        MsgNightPrompt,
	domain.EventActionRecorded:     MsgActionRecorded,
	domain.EventPrivateReveal:      MsgInvestigation,
	domain.EventPhaseChanged:       MsgPhaseChanged,
	domain.EventPlayerDied:         MsgPlayerDied,
	domain.EventPlayerEliminated:   MsgPlayerEliminated,
	domain.EventGameEnded:          MsgGameEnded,
	domain.EventDeliveryFailed:     MsgDeliveryFailed,
}

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(timeFormat),
	}
}

// Client message payloads

// CreateSessionPayload is the payload for create_session message
type CreateSessionPayload struct {
	Size int `json:"size"`
}

// NightActionPayload is the payload for night_action message
type NightActionPayload struct {
	Role           domain.Role `json:"role"`
	TargetPlayerID string      `json:"targetPlayerId"`
}

// CastVotePayload is the payload for cast_vote message
type CastVotePayload struct {
	TargetPlayerID string `json:"targetPlayerId"`
}

// Server message payloads

// ConnectedPayload is the payload for connected message
type ConnectedPayload struct {
	PlayerID string        `json:"playerId"`
	Room     string        `json:"room"`
	Session  *app.Snapshot `json:"session,omitempty"`
}

// AckPayload confirms an accepted command
type AckPayload struct {
	Command MessageType `json:"command"`
	Result  interface{} `json:"result,omitempty"`
}

// AnnouncementPayload carries the rendered text next to its key
type AnnouncementPayload struct {
	Key    string   `json:"key"`
	Params []string `json:"params,omitempty"`
	Text   string   `json:"text"`
}

// ErrorPayload is the payload for error message
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes produced by the transport itself. Game rule violations use domain.Code.
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeRateLimited    = "RATE_LIMITED"
)
