package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"mafia/internal/app"
	"mafia/internal/domain"
	"mafia/internal/metrics"
)

const maxNameLength = 32

// Handler handles WebSocket connections
type Handler struct {
	registry     *app.Registry
	rooms        *Rooms
	metrics      *metrics.Metrics
	upgrader     websocket.Upgrader
	commandRate  rate.Limit
	commandBurst int
	logger       *slog.Logger
}

// NewHandler creates a new WebSocket handler. Each connection may issue
// commandRate commands per second with bursts of commandBurst.
func NewHandler(registry *app.Registry, rooms *Rooms, m *metrics.Metrics, commandRate float64, commandBurst int, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		rooms:    rooms,
		metrics:  m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		commandRate:  rate.Limit(commandRate),
		commandBurst: commandBurst,
		logger:       logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	room := strings.TrimSpace(query.Get("room"))
	if room == "" {
		http.Error(w, "room is required", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(query.Get("name"))
	if name == "" || len(name) > maxNameLength {
		http.Error(w, "name is required and must be at most 32 bytes", http.StatusBadRequest)
		return
	}

	playerID := query.Get("playerId")
	isReconnect := playerID != ""
	if !isReconnect {
		playerID = uuid.New().String()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, h, room, domain.Player{ID: playerID, Name: name})
	if previous := h.rooms.Register(client); previous != nil {
		previous.Close()
	}

	h.logger.Info("websocket connected",
		"room", room,
		"playerID", playerID,
		"isReconnect", isReconnect,
	)

	client.sendConnected()
	client.Run()
}
