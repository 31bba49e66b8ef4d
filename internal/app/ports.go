package app

import (
	"context"

	"mafia/internal/domain"
)

// Notifier delivers session events to the chat transport.
// SendPrivate must report players it cannot reach; the session surfaces
// those failures publicly and carries on without the player's input.
type Notifier interface {
	Broadcast(event *domain.GameEvent)
	SendPrivate(event *domain.GameEvent) error
}

// Archiver stores the summary of finished games
type Archiver interface {
	RecordGame(ctx context.Context, record domain.GameRecord) error
}
