package ws

import (
	"log/slog"
	"sync"

	"mafia/internal/domain"
	"mafia/internal/text"
)

// Rooms tracks the live connections of every room and delivers session
// events to them. It is the app.Notifier of the WebSocket transport.
type Rooms struct {
	mu      sync.RWMutex
	rooms   map[string]map[string]*Client
	printer *text.Printer
	logger  *slog.Logger
}

// NewRooms creates an empty connection index rendering announcements with printer
func NewRooms(printer *text.Printer, logger *slog.Logger) *Rooms {
	return &Rooms{
		rooms:   make(map[string]map[string]*Client),
		printer: printer,
		logger:  logger,
	}
}

// Register binds c to its room and player. A previous connection of the same
// player is returned so the caller can close it.
func (r *Rooms) Register(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.rooms[c.room]
	if !ok {
		clients = make(map[string]*Client)
		r.rooms[c.room] = clients
	}

	previous := clients[c.player.ID]
	clients[c.player.ID] = c
	return previous
}

// Unregister removes c unless the player has already reconnected elsewhere
func (r *Rooms) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.rooms[c.room]
	if !ok || clients[c.player.ID] != c {
		return
	}

	delete(clients, c.player.ID)
	if len(clients) == 0 {
		delete(r.rooms, c.room)
	}
}

// Connected returns the number of live connections in room
func (r *Rooms) Connected(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Broadcast sends a public event to everyone connected to its room
func (r *Rooms) Broadcast(event *domain.GameEvent) {
	msg := r.message(event)

	r.mu.RLock()
	clients := make([]*Client, 0, len(r.rooms[event.Room]))
	for _, c := range r.rooms[event.Room] {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(msg); err != nil {
			r.logger.Debug("broadcast skipped client", "room", event.Room, "playerID", c.player.ID, "error", err)
		}
	}
}

// SendPrivate sends an event to its single recipient
func (r *Rooms) SendPrivate(event *domain.GameEvent) error {
	r.mu.RLock()
	c, ok := r.rooms[event.Room][event.PlayerID]
	r.mu.RUnlock()

	if !ok {
		return domain.ErrNotReachable
	}
	return c.Send(r.message(event))
}

// message converts a session event into its wire form
func (r *Rooms) message(event *domain.GameEvent) *ServerMessage {
	msgType, ok := eventMessages[event.Type]
	if !ok {
		msgType = MessageType(event.Type)
	}

	payload := event.Payload
	if a, ok := payload.(*domain.AnnouncementPayload); ok {
		payload = &AnnouncementPayload{
			Key:    a.Key,
			Params: a.Params,
			Text:   r.printer.Render(a.Key, a.Params),
		}
	}

	msg := NewServerMessage(msgType, payload)
	msg.Timestamp = event.Timestamp.UTC().Format(timeFormat)
	return msg
}
