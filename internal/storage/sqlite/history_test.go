package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafia/internal/domain"
)

func openTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func gameRecord(id, room string, endedAt time.Time) domain.GameRecord {
	return domain.GameRecord{
		GameID: id,
		Room:   room,
		Winner: domain.FactionCitizens,
		Rounds: 2,
		Players: []domain.RecordedPlayer{
			{Player: domain.Player{ID: "p1", Name: "Ana"}, Role: domain.RoleMafia},
			{Player: domain.Player{ID: "p2", Name: "Beto"}, Role: domain.RoleDoctor, Survived: true},
			{Player: domain.Player{ID: "p3", Name: "Cris"}, Role: domain.RoleDetective, Survived: true},
			{Player: domain.Player{ID: "p4", Name: "Dani"}, Role: domain.RoleCitizen},
		},
		StartedAt: endedAt.Add(-5 * time.Minute),
		EndedAt:   endedAt,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestRecordAndListGames(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordGame(ctx, gameRecord("g1", "room", base)))
	require.NoError(t, store.RecordGame(ctx, gameRecord("g2", "room", base.Add(time.Hour))))
	require.NoError(t, store.RecordGame(ctx, gameRecord("g3", "other", base)))

	games, err := store.RecentGames(ctx, "room", 10)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "g2", games[0].GameID)
	assert.Equal(t, "g1", games[1].GameID)

	got := games[1]
	assert.Equal(t, domain.FactionCitizens, got.Winner)
	assert.Equal(t, 2, got.Rounds)
	assert.True(t, base.Equal(got.EndedAt))
	require.Len(t, got.Players, 4)
	assert.Equal(t, "Ana", got.Players[0].Player.Name)
	assert.Equal(t, domain.RoleMafia, got.Players[0].Role)
	assert.False(t, got.Players[0].Survived)
	assert.True(t, got.Players[1].Survived)

	limited, err := store.RecentGames(ctx, "room", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "g2", limited[0].GameID)

	none, err := store.RecentGames(ctx, "empty", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordGameRejectsDuplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	record := gameRecord("g1", "room", time.Now())

	require.NoError(t, store.RecordGame(ctx, record))
	assert.Error(t, store.RecordGame(ctx, record))

	games, err := store.RecentGames(ctx, "room", 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Len(t, games[0].Players, 4)
}

func TestRecordGameValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.RecordGame(ctx, domain.GameRecord{Room: "room"}))
	assert.Error(t, store.RecordGame(ctx, domain.GameRecord{GameID: "g1"}))

	_, err := store.RecentGames(ctx, "room", 0)
	assert.Error(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.RecordGame(canceled, gameRecord("g1", "room", time.Now())), context.Canceled)
}
