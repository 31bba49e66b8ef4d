package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafia/internal/domain"
)

var scriptedRoles = map[string]domain.Role{
	"p1": domain.RoleMafia,
	"p2": domain.RoleDoctor,
	"p3": domain.RoleDetective,
	"p4": domain.RoleCitizen,
}

// startScripted fills a four player lobby and replaces the deal with scriptedRoles
func startScripted(t *testing.T, env *testEnv) *GameSession {
	t.Helper()

	require.NoError(t, env.registry.CreateSession("room", player("p1"), 4))
	for _, id := range []string{"p2", "p3", "p4"} {
		_, err := env.registry.JoinSession("room", player(id))
		require.NoError(t, err)
	}

	session, ok := env.registry.Get("room")
	require.True(t, ok)
	require.Equal(t, domain.PhaseNight, session.Phase())

	overrideRoles(session, scriptedRoles)
	env.waitForWindow(t)

	return session
}

func waitDrained(t *testing.T, session *GameSession) {
	t.Helper()
	select {
	case <-session.Drained():
	case <-time.After(time.Second):
		t.Fatal("events were not drained")
	}
}

func TestGameCitizensWin(t *testing.T) {
	env := newTestEnv(t)
	session := startScripted(t, env)

	require.NoError(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p4"))
	require.NoError(t, env.registry.SubmitNightAction("room", "p3", domain.RoleDetective, "p1"))
	env.closeWindow(t, session)

	assert.False(t, isAlive(session, "p4"))
	assert.Equal(t, domain.PhaseDay, session.Phase())

	for _, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, env.registry.SubmitVote("room", id, "p1"))
	}
	env.closeWindow(t, session)

	assert.Equal(t, domain.PhaseEnded, session.Phase())
	waitDrained(t, session)

	reveals := env.notifier.Private("p3", domain.EventPrivateReveal)
	require.Len(t, reveals, 1)
	reveal := reveals[0].Payload.(*domain.PrivateRevealPayload)
	assert.Equal(t, "p1", reveal.Investigated.ID)
	assert.Equal(t, domain.RoleMafia, reveal.Role)

	died := env.notifier.Public(domain.EventPlayerDied)
	require.Len(t, died, 1)
	assert.Equal(t, "p4", died[0].Payload.(*domain.PlayerRemovedPayload).Player.ID)

	eliminated := env.notifier.Public(domain.EventPlayerEliminated)
	require.Len(t, eliminated, 1)
	assert.Equal(t, "p1", eliminated[0].Payload.(*domain.PlayerRemovedPayload).Player.ID)

	ended := env.notifier.Public(domain.EventGameEnded)
	require.Len(t, ended, 1)
	payload := ended[0].Payload.(*domain.GameEndedPayload)
	assert.Equal(t, domain.FactionCitizens, payload.Winner)
	assert.Equal(t, 1, payload.Rounds)
	require.Len(t, payload.Roles, 4)
	assert.Equal(t, domain.RoleMafia, payload.Roles[0].Role)
	assert.Equal(t, "p1", payload.Roles[0].Players[0].ID)

	assert.True(t, env.notifier.Announced(domain.TextDawnDeath))
	assert.True(t, env.notifier.Announced(domain.TextVoteEliminated))
	assert.True(t, env.notifier.Announced(domain.TextGameOver))

	require.Eventually(t, func() bool {
		_, ok := env.registry.Get("room")
		return !ok
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool { return len(env.archiver.Records()) == 1 }, time.Second, time.Millisecond)
	record := env.archiver.Records()[0]
	assert.Equal(t, session.GameID(), record.GameID)
	assert.Equal(t, domain.FactionCitizens, record.Winner)
	assert.Len(t, record.Players, 4)
}

func TestGameMafiaWinsAfterTie(t *testing.T) {
	env := newTestEnv(t)
	session := startScripted(t, env)

	require.NoError(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p2"))
	env.closeWindow(t, session)
	require.False(t, isAlive(session, "p2"))

	require.NoError(t, env.registry.SubmitVote("room", "p1", "p3"))
	require.NoError(t, env.registry.SubmitVote("room", "p3", "p4"))
	env.closeWindow(t, session)

	require.Eventually(t, func() bool { return env.notifier.Announced(domain.TextVoteTie) }, time.Second, time.Millisecond)
	assert.Equal(t, domain.PhaseNight, session.Phase())
	assert.Equal(t, 2, session.Snapshot().Round)

	require.NoError(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p3"))
	env.closeWindow(t, session)

	assert.Equal(t, domain.PhaseEnded, session.Phase())
	waitDrained(t, session)

	ended := env.notifier.Public(domain.EventGameEnded)
	require.Len(t, ended, 1)
	payload := ended[0].Payload.(*domain.GameEndedPayload)
	assert.Equal(t, domain.FactionMafia, payload.Winner)
	assert.Equal(t, 2, payload.Rounds)
}

func TestDoctorSavesTarget(t *testing.T) {
	env := newTestEnv(t)
	session := startScripted(t, env)

	require.NoError(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p4"))
	require.NoError(t, env.registry.SubmitNightAction("room", "p2", domain.RoleDoctor, "p4"))
	env.closeWindow(t, session)

	assert.True(t, isAlive(session, "p4"))
	assert.Equal(t, domain.PhaseDay, session.Phase())
	assert.Empty(t, env.notifier.Public(domain.EventPlayerDied))
	require.Eventually(t, func() bool { return env.notifier.Announced(domain.TextDawnQuiet) }, time.Second, time.Millisecond)
}

func TestEmptyDayEliminatesNobody(t *testing.T) {
	env := newTestEnv(t)
	session := startScripted(t, env)

	env.closeWindow(t, session)
	env.closeWindow(t, session)

	assert.Equal(t, domain.PhaseNight, session.Phase())
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		assert.True(t, isAlive(session, id))
	}
	require.Eventually(t, func() bool { return env.notifier.Announced(domain.TextVoteNone) }, time.Second, time.Millisecond)
}

func TestNightActionRejections(t *testing.T) {
	env := newTestEnv(t)
	session := startScripted(t, env)

	assert.ErrorIs(t, env.registry.SubmitNightAction("room", "p4", domain.RoleCitizen, "p1"), domain.ErrNotEligible)
	assert.ErrorIs(t, env.registry.SubmitNightAction("room", "p2", domain.RoleMafia, "p1"), domain.ErrNotEligible)
	assert.ErrorIs(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "nobody"), domain.ErrInvalidTarget)
	assert.ErrorIs(t, env.registry.SubmitVote("room", "p1", "p2"), domain.ErrWrongPhase)

	require.NoError(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p4"))
	assert.ErrorIs(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p3"), domain.ErrAlreadyActed)

	require.Eventually(t, func() bool {
		return len(env.notifier.Private("p1", domain.EventActionRecorded)) == 1
	}, time.Second, time.Millisecond)
	confirm := env.notifier.Private("p1", domain.EventActionRecorded)[0].Payload.(*domain.ActionRecordedPayload)
	assert.Equal(t, domain.PhaseNight, confirm.Phase)
	assert.Equal(t, "p4", confirm.Target.ID)

	env.closeWindow(t, session)
	require.Equal(t, domain.PhaseDay, session.Phase())

	assert.ErrorIs(t, env.registry.SubmitVote("room", "p4", "p1"), domain.ErrNotAlive)
	assert.ErrorIs(t, env.registry.SubmitVote("room", "p1", "p4"), domain.ErrInvalidTarget)
	assert.ErrorIs(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p2"), domain.ErrWrongPhase)
	require.NoError(t, env.registry.SubmitVote("room", "p1", "p2"))
	assert.ErrorIs(t, env.registry.SubmitVote("room", "p1", "p3"), domain.ErrAlreadyVoted)
}

func TestConcurrentVotesCountOnce(t *testing.T) {
	env := newTestEnv(t)
	session := startScripted(t, env)
	env.closeWindow(t, session)
	require.Equal(t, domain.PhaseDay, session.Phase())

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- env.registry.SubmitVote("room", "p2", "p1")
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
	}
	assert.Equal(t, 1, accepted)
}

func TestLateSubmissionIgnored(t *testing.T) {
	env := newTestEnv(t)
	session := startScripted(t, env)

	session.mu.Lock()
	session.deadline = env.clock.Now().Add(-time.Second)
	session.mu.Unlock()

	assert.NoError(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p4"))

	session.mu.Lock()
	acted := session.session.HasActed("p1")
	session.mu.Unlock()
	assert.False(t, acted)
}

func TestNightPromptsGoToActors(t *testing.T) {
	env := newTestEnv(t)
	startScripted(t, env)

	require.Eventually(t, func() bool {
		total := 0
		for _, id := range []string{"p1", "p2", "p3", "p4"} {
			total += len(env.notifier.Private(id, domain.EventNightPrompt))
		}
		return total == 3
	}, time.Second, time.Millisecond)

	// prompts follow the random deal, not the scripted roles
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		prompts := env.notifier.Private(id, domain.EventNightPrompt)
		for _, e := range prompts {
			payload := e.Payload.(*domain.NightPromptPayload)
			assert.True(t, payload.Role.ActsAtNight())
			assert.Equal(t, 1, payload.Round)
			assert.Len(t, payload.Targets, 4)
		}
	}
}

func TestDeliveryFailureIsReported(t *testing.T) {
	env := newTestEnv(t, "p3")
	startScripted(t, env)

	require.Eventually(t, func() bool {
		for _, e := range env.notifier.Public(domain.EventDeliveryFailed) {
			payload := e.Payload.(*domain.DeliveryFailedPayload)
			if payload.Player.ID == "p3" && payload.Event == domain.EventRoleAssigned {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)

	assert.True(t, env.notifier.Announced(domain.TextDeliveryFailed))
	assert.Len(t, env.notifier.Private("p1", domain.EventRoleAssigned), 1)
}

func TestRoundPause(t *testing.T) {
	env := newTestEnvWithSettings(t, Settings{
		NightWindow: 60 * time.Second,
		DayWindow:   60 * time.Second,
		RoundPause:  5 * time.Second,
	})
	session := startScripted(t, env)

	env.closeWindow(t, session)
	env.closeWindow(t, session)

	// the loop now sleeps through the pause before opening night two
	require.Equal(t, domain.PhaseDay, session.Phase())
	env.clock.Advance(5 * time.Second)
	require.Eventually(t, func() bool { return session.Phase() == domain.PhaseNight }, time.Second, time.Millisecond)
	assert.Equal(t, 2, session.Snapshot().Round)
}

func TestCloseStopsLoop(t *testing.T) {
	env := newTestEnv(t)
	session := startScripted(t, env)

	env.registry.Remove("room")
	waitDrained(t, session)

	assert.Equal(t, 0, env.registry.SessionCount())
	assert.ErrorIs(t, env.registry.SubmitNightAction("room", "p1", domain.RoleMafia, "p4"), domain.ErrNoSession)
}
