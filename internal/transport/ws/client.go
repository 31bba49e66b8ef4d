package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"mafia/internal/app"
	"mafia/internal/domain"
	"mafia/internal/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

var (
	// ErrClientClosed is returned when sending to a closed connection
	ErrClientClosed = errors.New("client connection closed")

	// ErrSendBufferFull is returned when a slow client cannot take more messages
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Client represents one player's WebSocket connection to a room
type Client struct {
	conn     *websocket.Conn
	registry *app.Registry
	rooms    *Rooms
	room     string
	player   domain.Player
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	send     chan []byte
	done     chan struct{}
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, h *Handler, room string, player domain.Player) *Client {
	return &Client{
		conn:     conn,
		registry: h.registry,
		rooms:    h.rooms,
		room:     room,
		player:   player,
		limiter:  rate.NewLimiter(h.commandRate, h.commandBurst),
		metrics:  h.metrics,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		logger:   h.logger.With("room", room, "playerID", player.ID),
	}
}

// PlayerID returns the player ID for this client
func (c *Client) PlayerID() string {
	return c.player.ID
}

// Send queues a message for the write pump
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn("send buffer full, message dropped")
		return ErrSendBufferFull
	}
}

// Close closes the connection once
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.rooms.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	if !c.limiter.Allow() {
		c.metrics.Rejected(ErrCodeRateLimited)
		c.sendError(ErrCodeRateLimited, "Too many commands, slow down")
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgCreateSession:
		c.handleCreateSession(msg.Payload)
	case MsgJoinSession:
		result, err := c.registry.JoinSession(c.room, c.player)
		c.reply(msg.Type, result, err)
	case MsgStartGame:
		c.reply(msg.Type, nil, c.registry.ManualStart(c.room, c.player.ID))
	case MsgCancelSession:
		c.reply(msg.Type, nil, c.registry.Cancel(c.room, c.player.ID))
	case MsgNightAction:
		c.handleNightAction(msg.Payload)
	case MsgCastVote:
		c.handleCastVote(msg.Payload)
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleCreateSession handles a create_session message
func (c *Client) handleCreateSession(raw json.RawMessage) {
	var payload CreateSessionPayload
	if !c.decode(raw, &payload) {
		return
	}

	err := c.registry.CreateSession(c.room, c.player, payload.Size)
	c.reply(MsgCreateSession, nil, err)
}

// handleNightAction handles a night_action message
func (c *Client) handleNightAction(raw json.RawMessage) {
	var payload NightActionPayload
	if !c.decode(raw, &payload) {
		return
	}
	if payload.TargetPlayerID == "" || !payload.Role.Valid() {
		c.sendError(ErrCodeInvalidMessage, "Role and target player ID are required")
		return
	}

	err := c.registry.SubmitNightAction(c.room, c.player.ID, payload.Role, payload.TargetPlayerID)
	c.reply(MsgNightAction, nil, err)
}

// handleCastVote handles a cast_vote message
func (c *Client) handleCastVote(raw json.RawMessage) {
	var payload CastVotePayload
	if !c.decode(raw, &payload) {
		return
	}
	if payload.TargetPlayerID == "" {
		c.sendError(ErrCodeInvalidMessage, "Target player ID is required")
		return
	}

	err := c.registry.SubmitVote(c.room, c.player.ID, payload.TargetPlayerID)
	c.reply(MsgCastVote, nil, err)
}

func (c *Client) decode(raw json.RawMessage, target interface{}) bool {
	if len(raw) == 0 || string(raw) == "null" {
		c.sendError(ErrCodeInvalidMessage, "Payload is required")
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return false
	}
	return true
}

// reply acknowledges a command or reports why it was refused
func (c *Client) reply(command MessageType, result interface{}, err error) {
	if err != nil {
		c.logger.Debug("command rejected", "command", command, "error", err)
		c.sendError(domain.Code(err), err.Error())
		return
	}

	c.Send(NewServerMessage(MsgAck, &AckPayload{
		Command: command,
		Result:  result,
	}))
}

// sendConnected sends the connected message to the client
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		PlayerID: c.player.ID,
		Room:     c.room,
	}
	if session, ok := c.registry.Get(c.room); ok {
		snap := session.Snapshot()
		payload.Session = &snap
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
