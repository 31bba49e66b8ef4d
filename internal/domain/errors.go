package domain

import "errors"

// Domain errors. All of them reject a single request and leave the session intact.
var (
	ErrAlreadyActive     = errors.New("a session is already active in this room")
	ErrInvalidSize       = errors.New("target size must be between 4 and 30")
	ErrNoSession         = errors.New("no session in this room")
	ErrAlreadyJoined     = errors.New("player already joined")
	ErrNotInLobby        = errors.New("session is not in the lobby")
	ErrNotCreator        = errors.New("only the creator can perform this action")
	ErrTooFewPlayers     = errors.New("not enough players to start")
	ErrWrongPhase        = errors.New("invalid action for current phase")
	ErrNotEligible       = errors.New("player cannot act tonight")
	ErrAlreadyActed      = errors.New("already acted this night")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrNotAlive          = errors.New("player is not alive in this game")
	ErrAlreadyVoted      = errors.New("already voted today")
	ErrInvalidTransition = errors.New("invalid phase transition")
	ErrNotReachable      = errors.New("player cannot be reached privately")
)

var errorCodes = map[error]string{
	ErrAlreadyActive:     "ALREADY_ACTIVE",
	ErrInvalidSize:       "INVALID_SIZE",
	ErrNoSession:         "NO_SESSION",
	ErrAlreadyJoined:     "ALREADY_JOINED",
	ErrNotInLobby:        "NOT_IN_LOBBY",
	ErrNotCreator:        "NOT_CREATOR",
	ErrTooFewPlayers:     "TOO_FEW_PLAYERS",
	ErrWrongPhase:        "WRONG_PHASE",
	ErrNotEligible:       "NOT_ELIGIBLE",
	ErrAlreadyActed:      "ALREADY_ACTED",
	ErrInvalidTarget:     "INVALID_TARGET",
	ErrNotAlive:          "NOT_ALIVE",
	ErrAlreadyVoted:      "ALREADY_VOTED",
	ErrInvalidTransition: "INVALID_TRANSITION",
	ErrNotReachable:      "NOT_REACHABLE",
}

// Code returns a stable identifier for a domain error, or INTERNAL_ERROR
func Code(err error) string {
	for target, code := range errorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return "INTERNAL_ERROR"
}
