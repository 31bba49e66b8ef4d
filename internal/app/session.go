package app

import (
	"context"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"mafia/internal/domain"
	"mafia/internal/metrics"
)

const (
	// eventQueueSize bounds the per-session broadcast queue
	eventQueueSize = 256

	// archiveTimeout caps how long a finished game may take to archive
	archiveTimeout = 5 * time.Second
)

// Settings holds the pacing of a running game
type Settings struct {
	NightWindow time.Duration
	DayWindow   time.Duration
	RoundPause  time.Duration
}

// DefaultSettings returns the default game pacing
func DefaultSettings() Settings {
	return Settings{
		NightWindow: 60 * time.Second,
		DayWindow:   60 * time.Second,
		RoundPause:  5 * time.Second,
	}
}

// JoinResult describes the lobby after a successful join
type JoinResult struct {
	Count       int  `json:"count"`
	TargetSize  int  `json:"targetSize"`
	AutoStarted bool `json:"autoStarted"`
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	GameID     string              `json:"gameId"`
	Room       string              `json:"room"`
	Phase      domain.Phase        `json:"phase"`
	Round      int                 `json:"round"`
	CreatorID  string              `json:"creatorId"`
	TargetSize int                 `json:"targetSize"`
	Players    []domain.PlayerInfo `json:"players"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// GameSession wraps a domain session with concurrency control, the game
// loop and event delivery. All state changes happen under mu; the loop
// goroutine is the only caller of the close* transitions.
type GameSession struct {
	session  *domain.Session
	mu       sync.Mutex
	rng      *rand.Rand
	clock    Clock
	settings Settings
	deadline time.Time

	notifier Notifier
	archiver Archiver
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// onEnd runs once the loop finishes, outside mu
	onEnd func()

	events  chan *domain.GameEvent
	done    chan struct{}
	drained chan struct{}
	closed  bool
}

func newGameSession(session *domain.Session, r *Registry) *GameSession {
	s := &GameSession{
		session:  session,
		rng:      r.newRand(),
		clock:    r.clock,
		settings: r.settings,
		notifier: r.notifier,
		archiver: r.archiver,
		metrics:  r.metrics,
		logger:   r.logger.With("room", session.Room, "gameID", session.ID),
		events:   make(chan *domain.GameEvent, eventQueueSize),
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
	}

	go s.eventLoop()

	return s
}

// Room returns the room the session is bound to
func (s *GameSession) Room() string {
	return s.session.Room
}

// GameID returns the unique id of this game instance
func (s *GameSession) GameID() string {
	return s.session.ID
}

// Phase returns the current phase
func (s *GameSession) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Phase
}

// PlayerCount returns the number of joined players
func (s *GameSession) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.session.Players)
}

// Snapshot returns the public state of the session
func (s *GameSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		GameID:     s.session.ID,
		Room:       s.session.Room,
		Phase:      s.session.Phase,
		Round:      s.session.Round,
		CreatorID:  s.session.Creator.ID,
		TargetSize: s.session.TargetSize,
		Players:    s.session.Info(),
		CreatedAt:  s.session.CreatedAt,
	}
}

// Drained is closed once the session ended and every queued event was delivered
func (s *GameSession) Drained() <-chan struct{} {
	return s.drained
}

// announceCreated queues the lobby opening messages
func (s *GameSession) announceCreated() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextSessionCreated,
		s.session.Creator.Name,
		strconv.Itoa(s.session.TargetSize),
		strconv.Itoa(s.session.TargetSize-len(s.session.Players)),
	))
	s.queueEvent(domain.NewEvent(domain.EventLobbyUpdated, s.session.Room, s.lobbyState()))
}

// join adds a player and starts the game once the lobby is full
func (s *GameSession) join(player domain.Player) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return JoinResult{}, domain.ErrNoSession
	}

	if err := s.session.Join(player); err != nil {
		return JoinResult{}, err
	}

	result := JoinResult{
		Count:      len(s.session.Players),
		TargetSize: s.session.TargetSize,
	}

	s.queueEvent(domain.NewEvent(domain.EventLobbyUpdated, s.session.Room, s.lobbyState()))

	if !s.session.IsFull() {
		s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextPlayerJoined,
			player.Name,
			strconv.Itoa(result.Count),
			strconv.Itoa(result.TargetSize),
			strconv.Itoa(result.TargetSize-result.Count),
		))
		return result, nil
	}

	s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextSessionFull))
	if err := s.start(); err != nil {
		return JoinResult{}, err
	}
	result.AutoStarted = true

	return result, nil
}

// manualStart starts the game on the creator's request
func (s *GameSession) manualStart(requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrNoSession
	}

	if err := s.session.CheckManualStart(requesterID); err != nil {
		return err
	}

	return s.start()
}

// cancel ends the lobby on the creator's request
func (s *GameSession) cancel(requesterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Cancel(requesterID, s.clock.Now()); err != nil {
		return err
	}

	s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextSessionCanceled, s.session.Creator.Name))
	s.queueEvent(s.phaseChanged(0))
	s.metrics.GameEnded("canceled", 0)
	s.logger.Info("session canceled")
	s.shutdown()

	return nil
}

// start deals roles and opens the first night (caller must hold lock)
func (s *GameSession) start() error {
	if err := s.session.Start(s.rng, s.clock.Now()); err != nil {
		return err
	}

	s.metrics.GameStarted()
	s.logger.Info("game started", "players", len(s.session.Players))

	for _, p := range s.session.Players {
		s.queueEvent(domain.NewPlayerEvent(domain.EventRoleAssigned, s.session.Room, p.ID, &domain.RoleAssignedPayload{
			Role: s.session.RoleOf(p.ID),
		}))
	}
	s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextGameStarted))

	s.openNight()
	go s.run()

	return nil
}

// run is the game loop. Night and day resolve strictly in sequence.
func (s *GameSession) run() {
	for {
		if !s.waitForDeadline() || s.closeNight() {
			break
		}
		if !s.waitForDeadline() || s.closeDay() {
			break
		}
		if s.settings.RoundPause > 0 && !s.wait(s.settings.RoundPause) {
			break
		}
		if !s.beginNight() {
			break
		}
	}

	if s.onEnd != nil {
		s.onEnd()
	}
}

func (s *GameSession) waitForDeadline() bool {
	s.mu.Lock()
	d := s.deadline.Sub(s.clock.Now())
	s.mu.Unlock()

	return s.wait(d)
}

func (s *GameSession) wait(d time.Duration) bool {
	select {
	case <-s.clock.After(d):
		return true
	case <-s.done:
		return false
	}
}

// openNight announces the night and prompts every actor (caller must hold lock)
func (s *GameSession) openNight() {
	s.deadline = s.clock.Now().Add(s.settings.NightWindow)

	s.queueEvent(s.phaseChanged(s.settings.NightWindow))
	s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextNightFalls,
		strconv.Itoa(s.session.Round),
		strconv.Itoa(int(s.settings.NightWindow.Seconds())),
	))

	targets := s.aliveInfo()
	for _, actor := range s.session.NightActors() {
		s.queueEvent(domain.NewPlayerEvent(domain.EventNightPrompt, s.session.Room, actor.ID, &domain.NightPromptPayload{
			Role:    s.session.RoleOf(actor.ID),
			Round:   s.session.Round,
			Targets: targets,
		}))
	}
}

// closeNight resolves the night; it returns true when the game is over
func (s *GameSession) closeNight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.session.Round
	outcome, winner, err := s.session.ResolveNight(s.rng, s.clock.Now())
	if err != nil {
		s.logger.Error("failed to resolve night", "error", err)
		s.shutdown()
		return true
	}

	for _, inv := range outcome.Investigations {
		target, _ := s.session.GetPlayer(inv.TargetID)
		s.queueEvent(domain.NewPlayerEvent(domain.EventPrivateReveal, s.session.Room, inv.DetectiveID, &domain.PrivateRevealPayload{
			Investigated: target,
			Role:         inv.Role,
		}))
	}

	if outcome.DeadID != "" {
		dead, _ := s.session.GetPlayer(outcome.DeadID)
		s.metrics.PlayerRemoved("night")
		s.logger.Info("player died", "playerID", dead.ID, "round", round)
		s.queueEvent(domain.NewEvent(domain.EventPlayerDied, s.session.Room, &domain.PlayerRemovedPayload{
			Player: dead,
			Round:  round,
		}))
		s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextDawnDeath, dead.Name))
	} else {
		s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextDawnQuiet))
	}

	if winner != domain.FactionNone {
		s.finish()
		return true
	}

	s.openDay()
	return false
}

// openDay announces the vote (caller must hold lock)
func (s *GameSession) openDay() {
	s.deadline = s.clock.Now().Add(s.settings.DayWindow)

	s.queueEvent(s.phaseChanged(s.settings.DayWindow))
	s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextVoteOpen,
		s.names(s.session.AlivePlayers()),
		strconv.Itoa(int(s.settings.DayWindow.Seconds())),
	))
}

// closeDay resolves the vote; it returns true when the game is over
func (s *GameSession) closeDay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.session.Round
	outcome, winner, err := s.session.ResolveDay(s.clock.Now())
	if err != nil {
		s.logger.Error("failed to resolve day", "error", err)
		s.shutdown()
		return true
	}

	switch {
	case outcome.EliminatedID != "":
		eliminated, _ := s.session.GetPlayer(outcome.EliminatedID)
		s.metrics.PlayerRemoved("vote")
		s.logger.Info("player eliminated", "playerID", eliminated.ID, "round", round)
		s.queueEvent(domain.NewEvent(domain.EventPlayerEliminated, s.session.Room, &domain.PlayerRemovedPayload{
			Player: eliminated,
			Round:  round,
		}))
		s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextVoteEliminated, eliminated.Name))
	case outcome.NoVotes():
		s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextVoteNone))
	default:
		tied := make([]domain.Player, 0, len(outcome.TiedIDs))
		for _, id := range outcome.TiedIDs {
			p, _ := s.session.GetPlayer(id)
			tied = append(tied, p)
		}
		s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextVoteTie, s.names(tied)))
	}

	if winner != domain.FactionNone {
		s.finish()
		return true
	}

	return false
}

// beginNight starts the next round; it returns false if the session is gone
func (s *GameSession) beginNight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.BeginNight(); err != nil {
		s.logger.Error("failed to begin night", "error", err)
		s.shutdown()
		return false
	}

	s.openNight()
	return true
}

// finish announces the winner, reveals roles and archives the game (caller must hold lock)
func (s *GameSession) finish() {
	winner := s.session.Winner

	s.queueEvent(s.phaseChanged(0))
	s.queueEvent(domain.NewAnnouncement(s.session.Room, domain.TextGameOver, string(winner)))
	s.queueEvent(domain.NewEvent(domain.EventGameEnded, s.session.Room, &domain.GameEndedPayload{
		Winner: winner,
		Rounds: s.session.Round,
		Roles:  s.session.Reveal(),
	}))

	s.metrics.GameEnded(string(winner), s.session.Round)
	s.logger.Info("game ended", "winner", winner, "rounds", s.session.Round)

	if s.archiver != nil {
		go s.archive(s.session.Record())
	}

	s.shutdown()
}

func (s *GameSession) archive(record domain.GameRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := s.archiver.RecordGame(ctx, record); err != nil {
		s.logger.Error("failed to archive game", "error", err)
	}
}

// SubmitNightAction records a night action. Submissions that arrive after
// the window deadline but before the loop resolves the night are dropped.
func (s *GameSession) SubmitNightAction(actorID string, role domain.Role, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Phase == domain.PhaseNight && s.pastDeadline() {
		s.logger.Debug("late night action ignored", "playerID", actorID)
		return nil
	}

	if err := s.session.SubmitNightAction(actorID, role, targetID); err != nil {
		s.metrics.Rejected(domain.Code(err))
		return err
	}

	target, _ := s.session.GetPlayer(targetID)
	s.queueEvent(domain.NewPlayerEvent(domain.EventActionRecorded, s.session.Room, actorID, &domain.ActionRecordedPayload{
		Phase:  domain.PhaseNight,
		Target: target,
	}))

	return nil
}

// SubmitVote records a day vote, with the same late-submission rule as night actions
func (s *GameSession) SubmitVote(voterID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Phase == domain.PhaseDay && s.pastDeadline() {
		s.logger.Debug("late vote ignored", "playerID", voterID)
		return nil
	}

	if err := s.session.SubmitVote(voterID, targetID); err != nil {
		s.metrics.Rejected(domain.Code(err))
		return err
	}

	target, _ := s.session.GetPlayer(targetID)
	s.queueEvent(domain.NewPlayerEvent(domain.EventActionRecorded, s.session.Room, voterID, &domain.ActionRecordedPayload{
		Phase:  domain.PhaseDay,
		Target: target,
	}))

	return nil
}

func (s *GameSession) pastDeadline() bool {
	return !s.deadline.IsZero() && !s.clock.Now().Before(s.deadline)
}

func (s *GameSession) phaseChanged(window time.Duration) *domain.GameEvent {
	return domain.NewEvent(domain.EventPhaseChanged, s.session.Room, &domain.PhaseChangedPayload{
		Phase:      s.session.Phase,
		Round:      s.session.Round,
		Alive:      s.aliveInfo(),
		WindowSecs: int(window.Seconds()),
	})
}

func (s *GameSession) lobbyState() *domain.LobbyUpdatePayload {
	return &domain.LobbyUpdatePayload{
		Players:    s.session.Info(),
		CreatorID:  s.session.Creator.ID,
		TargetSize: s.session.TargetSize,
		Missing:    max(0, s.session.TargetSize-len(s.session.Players)),
	}
}

func (s *GameSession) aliveInfo() []domain.PlayerInfo {
	alive := s.session.AlivePlayers()
	info := make([]domain.PlayerInfo, 0, len(alive))
	for _, p := range alive {
		info = append(info, domain.PlayerInfo{ID: p.ID, Name: p.Name, Alive: true})
	}
	return info
}

func (s *GameSession) names(players []domain.Player) string {
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// playerName looks up a display name for delivery reports
func (s *GameSession) playerName(playerID string) domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.session.GetPlayer(playerID)
	if !ok {
		return domain.Player{ID: playerID}
	}
	return p
}

// queueEvent adds an event to the broadcast queue (caller must hold lock)
func (s *GameSession) queueEvent(event *domain.GameEvent) {
	if s.closed {
		return
	}

	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type)
	}
}

// eventLoop delivers queued events in order until the session shuts down
func (s *GameSession) eventLoop() {
	defer close(s.drained)

	for event := range s.events {
		s.deliver(event)
	}
}

// deliver sends one event. A failed private delivery is reported to the whole room.
func (s *GameSession) deliver(event *domain.GameEvent) {
	if !event.IsPrivate() {
		s.notifier.Broadcast(event)
		return
	}

	err := s.notifier.SendPrivate(event)
	if err == nil {
		return
	}

	player := s.playerName(event.PlayerID)
	s.metrics.DeliveryFailed(string(event.Type))
	s.logger.Warn("private delivery failed", "playerID", player.ID, "type", event.Type, "error", err)

	s.notifier.Broadcast(domain.NewEvent(domain.EventDeliveryFailed, event.Room, &domain.DeliveryFailedPayload{
		Player: player,
		Event:  event.Type,
		Reason: err.Error(),
	}))
	s.notifier.Broadcast(domain.NewAnnouncement(event.Room, domain.TextDeliveryFailed, player.Name))
}

// shutdown stops the loop and closes the queue after pending events (caller must hold lock)
func (s *GameSession) shutdown() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
	close(s.done)
}

// closeIfStale shuts the session down only if it is still a lobby created
// before cutoff; a lobby that started in the meantime is left running.
func (s *GameSession) closeIfStale(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.session.Phase != domain.PhaseLobby || !s.session.CreatedAt.Before(cutoff) {
		return false
	}
	s.shutdown()
	return true
}

// Close shuts down the session
func (s *GameSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown()
}
