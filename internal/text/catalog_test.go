package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafia/internal/domain"
)

var allKeys = []string{
	domain.TextSessionCreated,
	domain.TextPlayerJoined,
	domain.TextSessionFull,
	domain.TextSessionCanceled,
	domain.TextGameStarted,
	domain.TextNightFalls,
	domain.TextDawnDeath,
	domain.TextDawnQuiet,
	domain.TextVoteOpen,
	domain.TextVoteEliminated,
	domain.TextVoteTie,
	domain.TextVoteNone,
	domain.TextGameOver,
	domain.TextDeliveryFailed,
}

func TestEveryKeyIsTranslated(t *testing.T) {
	for tag, messages := range locales {
		for _, key := range allKeys {
			assert.NotEmpty(t, messages[key], "%s is missing %s", tag, key)
		}
		assert.Len(t, messages, len(allKeys), "%s has extra keys", tag)
	}
}

func TestRender(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	en := c.Printer("en")
	assert.Equal(t, "Ana was eliminated by the town's vote.", en.Render(domain.TextVoteEliminated, []string{"Ana"}))
	assert.Equal(t,
		"Ana joined the game. Players: 2/6, 4 more needed.",
		en.Render(domain.TextPlayerJoined, []string{"Ana", "2", "6", "4"}),
	)
	assert.Equal(t, "A new day dawns and nobody died tonight.", en.Render(domain.TextDawnQuiet, nil))

	es := c.Printer("es")
	assert.Equal(t, "¡Empate entre Ana, Beto! Nadie será eliminado hoy.", es.Render(domain.TextVoteTie, []string{"Ana, Beto"}))
}

func TestPrinterFallsBackToEnglish(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	for _, locale := range []string{"", "not a locale", "ja"} {
		got := c.Printer(locale).Render(domain.TextGameOver, []string{"MAFIA"})
		assert.Equal(t, "The game is over. Winners: MAFIA.", got, locale)
	}

	got := c.Printer("es-AR").Render(domain.TextGameOver, []string{"MAFIA"})
	assert.True(t, strings.HasPrefix(got, "¡La partida ha terminado!"), got)
}

func TestRenderUnknownKey(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	p := c.Printer("en")
	assert.Equal(t, "custom.key", p.Render("custom.key", nil))
	assert.Equal(t, "custom.key: a, b", p.Render("custom.key", []string{"a", "b"}))
}
