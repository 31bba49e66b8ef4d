package app

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"mafia/internal/domain"
	"mafia/internal/metrics"
)

const (
	// StaleLobbyTimeout is how long a lobby may wait for players before it is dropped
	StaleLobbyTimeout = 2 * time.Hour

	// cleanupInterval is how often stale lobbies are looked for
	cleanupInterval = 10 * time.Minute
)

// Registry owns the one active session per room
type Registry struct {
	sessions map[string]*GameSession
	mu       sync.RWMutex

	notifier Notifier
	archiver Archiver
	metrics  *metrics.Metrics
	clock    Clock
	settings Settings
	newRand  func() *rand.Rand
	logger   *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Registry
type Option func(*Registry)

// WithClock sets the clock used for phase windows
func WithClock(clock Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithSettings sets the game pacing
func WithSettings(settings Settings) Option {
	return func(r *Registry) { r.settings = settings }
}

// WithArchiver enables archiving of finished games
func WithArchiver(archiver Archiver) Option {
	return func(r *Registry) { r.archiver = archiver }
}

// WithMetrics enables engine metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithRand sets the source of per-session random generators
func WithRand(newRand func() *rand.Rand) Option {
	return func(r *Registry) { r.newRand = newRand }
}

// NewRegistry creates an empty registry and starts its lobby cleanup loop
func NewRegistry(notifier Notifier, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*GameSession),
		notifier: notifier,
		clock:    RealClock(),
		settings: DefaultSettings(),
		newRand:  newRand,
		logger:   logger,
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	go r.cleanupLoop()

	return r
}

// Create opens a lobby in room. Check and insert happen under one lock so
// two concurrent creates for the same room cannot both succeed.
func (r *Registry) Create(room string, creator domain.Player, targetSize int) (*GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[room]; exists {
		return nil, domain.ErrAlreadyActive
	}

	session, err := domain.NewSession(uuid.NewString(), room, creator, targetSize, r.clock.Now())
	if err != nil {
		return nil, err
	}

	gs := newGameSession(session, r)
	gs.onEnd = func() { r.remove(room, gs) }
	r.sessions[room] = gs

	r.metrics.SessionCreated()
	r.logger.Info("session created", "room", room, "gameID", session.ID, "targetSize", targetSize)

	gs.announceCreated()

	return gs, nil
}

// Get returns the session active in room
func (r *Registry) Get(room string) (*GameSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[room]
	return session, ok
}

// Remove deletes the session in room and shuts it down
func (r *Registry) Remove(room string) {
	r.mu.Lock()
	session, ok := r.sessions[room]
	if ok {
		delete(r.sessions, room)
	}
	r.mu.Unlock()

	if ok {
		session.Close()
		r.metrics.SessionRemoved()
		r.logger.Info("session removed", "room", room)
	}
}

// remove deletes room only if it still maps to session
func (r *Registry) remove(room string, session *GameSession) {
	r.mu.Lock()
	current, ok := r.sessions[room]
	if ok && current == session {
		delete(r.sessions, room)
	}
	r.mu.Unlock()

	if ok && current == session {
		r.metrics.SessionRemoved()
		r.logger.Info("session removed", "room", room)
	}
}

// CreateSession opens a lobby with the creator as its first player
func (r *Registry) CreateSession(room string, creator domain.Player, targetSize int) error {
	_, err := r.Create(room, creator, targetSize)
	if err != nil {
		r.metrics.Rejected(domain.Code(err))
	}
	return err
}

// JoinSession adds player to the lobby in room
func (r *Registry) JoinSession(room string, player domain.Player) (JoinResult, error) {
	session, err := r.lookup(room)
	if err != nil {
		return JoinResult{}, err
	}

	result, err := session.join(player)
	if err != nil {
		r.metrics.Rejected(domain.Code(err))
	}
	return result, err
}

// ManualStart starts the game in room on the creator's request
func (r *Registry) ManualStart(room, requesterID string) error {
	session, err := r.lookup(room)
	if err != nil {
		return err
	}

	if err := session.manualStart(requesterID); err != nil {
		r.metrics.Rejected(domain.Code(err))
		return err
	}
	return nil
}

// Cancel drops the lobby in room on the creator's request
func (r *Registry) Cancel(room, requesterID string) error {
	session, err := r.lookup(room)
	if err != nil {
		return err
	}

	if err := session.cancel(requesterID); err != nil {
		r.metrics.Rejected(domain.Code(err))
		return err
	}

	r.remove(room, session)
	return nil
}

// SubmitNightAction records a night action in room
func (r *Registry) SubmitNightAction(room, actorID string, role domain.Role, targetID string) error {
	session, err := r.lookup(room)
	if err != nil {
		return err
	}
	return session.SubmitNightAction(actorID, role, targetID)
}

// SubmitVote records a day vote in room
func (r *Registry) SubmitVote(room, voterID, targetID string) error {
	session, err := r.lookup(room)
	if err != nil {
		return err
	}
	return session.SubmitVote(voterID, targetID)
}

func (r *Registry) lookup(room string) (*GameSession, error) {
	session, ok := r.Get(room)
	if !ok {
		r.metrics.Rejected(domain.Code(domain.ErrNoSession))
		return nil, domain.ErrNoSession
	}
	return session, nil
}

// SessionCount returns the number of active sessions
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// TotalPlayerCount returns the number of players across all sessions
func (r *Registry) TotalPlayerCount() int {
	total := 0
	for _, session := range r.list() {
		total += session.PlayerCount()
	}
	return total
}

func (r *Registry) list() []*GameSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*GameSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Close shuts down the registry and all sessions
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.done) })

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*GameSession)
	r.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

// cleanupLoop periodically drops lobbies that never filled
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.cleanupStaleLobbies()
		}
	}
}

// cleanupStaleLobbies removes lobbies that have been waiting for too long
func (r *Registry) cleanupStaleLobbies() {
	cutoff := r.clock.Now().Add(-StaleLobbyTimeout)

	for _, session := range r.list() {
		if session.closeIfStale(cutoff) {
			r.remove(session.Room(), session)
			r.logger.Info("stale lobby cleaned up", "room", session.Room())
		}
	}
}
