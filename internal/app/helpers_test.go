package app

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mafia/internal/domain"
)

// fakeClock fires After channels only when advanced
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

// fakeEpoch is far from wall time so code reading time.Now directly shows up in tests
var fakeEpoch = time.Date(2024, time.March, 1, 20, 0, 0, 0, time.UTC)

func newFakeClock() *fakeClock {
	return &fakeClock{now: fakeEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, fakeWaiter{at: c.now.Add(d), ch: ch})
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if w.at.After(c.now) {
			pending = append(pending, w)
			continue
		}
		w.ch <- c.now
	}
	c.waiters = pending
}

func (c *fakeClock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// recordingNotifier keeps every delivered event; players in unreachable fail privately
type recordingNotifier struct {
	mu          sync.Mutex
	public      []*domain.GameEvent
	private     []*domain.GameEvent
	unreachable map[string]bool
}

func newRecordingNotifier(unreachable ...string) *recordingNotifier {
	n := &recordingNotifier{unreachable: make(map[string]bool)}
	for _, id := range unreachable {
		n.unreachable[id] = true
	}
	return n
}

func (n *recordingNotifier) Broadcast(event *domain.GameEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.public = append(n.public, event)
}

func (n *recordingNotifier) SendPrivate(event *domain.GameEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.unreachable[event.PlayerID] {
		return domain.ErrNotReachable
	}
	n.private = append(n.private, event)
	return nil
}

func (n *recordingNotifier) Public(eventType domain.EventType) []*domain.GameEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []*domain.GameEvent
	for _, e := range n.public {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (n *recordingNotifier) Private(playerID string, eventType domain.EventType) []*domain.GameEvent {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []*domain.GameEvent
	for _, e := range n.private {
		if e.PlayerID == playerID && e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (n *recordingNotifier) Announced(key string) bool {
	for _, e := range n.Public(domain.EventPublicAnnouncement) {
		if e.Payload.(*domain.AnnouncementPayload).Key == key {
			return true
		}
	}
	return false
}

type recordingArchiver struct {
	mu      sync.Mutex
	records []domain.GameRecord
}

func (a *recordingArchiver) RecordGame(_ context.Context, record domain.GameRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	return nil
}

func (a *recordingArchiver) Records() []domain.GameRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.GameRecord(nil), a.records...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	registry *Registry
	clock    *fakeClock
	notifier *recordingNotifier
	archiver *recordingArchiver
}

func newTestEnv(t *testing.T, unreachable ...string) *testEnv {
	t.Helper()
	return newTestEnvWithSettings(t, Settings{NightWindow: 60 * time.Second, DayWindow: 60 * time.Second}, unreachable...)
}

func newTestEnvWithSettings(t *testing.T, settings Settings, unreachable ...string) *testEnv {
	t.Helper()

	env := &testEnv{
		clock:    newFakeClock(),
		notifier: newRecordingNotifier(unreachable...),
		archiver: &recordingArchiver{},
	}
	seed := int64(0)
	env.registry = NewRegistry(env.notifier, discardLogger(),
		WithClock(env.clock),
		WithArchiver(env.archiver),
		WithSettings(settings),
		WithRand(func() *rand.Rand {
			seed++
			return rand.New(rand.NewSource(seed))
		}),
	)
	t.Cleanup(env.registry.Close)

	return env
}

func player(id string) domain.Player {
	return domain.Player{ID: id, Name: "name-" + id}
}

// waitForWindow blocks until the game loop is waiting on a phase deadline
func (env *testEnv) waitForWindow(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return env.clock.Waiters() == 1 }, time.Second, time.Millisecond)
}

// closeWindow expires the current window and waits for the loop to settle
func (env *testEnv) closeWindow(t *testing.T, session *GameSession) {
	t.Helper()
	env.waitForWindow(t)
	env.clock.Advance(60 * time.Second)
	require.Eventually(t, func() bool {
		return env.clock.Waiters() == 1 || session.Phase() == domain.PhaseEnded
	}, time.Second, time.Millisecond)
}

// overrideRoles replaces the random deal so tests can script a game
func overrideRoles(session *GameSession, roles map[string]domain.Role) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.session.Roles = roles
}

func roleOf(session *GameSession, playerID string) domain.Role {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.session.RoleOf(playerID)
}

func isAlive(session *GameSession, playerID string) bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.session.IsAlive(playerID)
}
