package text

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"mafia/internal/domain"
)

// BaseLocale is used when a requested locale is unknown
var BaseLocale = language.English

// Announcement strings per locale. Parameters are positional and follow the
// order documented on each domain.Text* key.
var locales = map[language.Tag]map[string]string{
	language.English: {
		domain.TextSessionCreated:  "Game created by %[1]s for %[2]s players. %[3]s more needed to start.",
		domain.TextPlayerJoined:    "%[1]s joined the game. Players: %[2]s/%[3]s, %[4]s more needed.",
		domain.TextSessionFull:     "The lobby is full. Starting...",
		domain.TextSessionCanceled: "The game was canceled by %[1]s.",
		domain.TextGameStarted:     "The game has started. Night falls and the special roles are acting...",
		domain.TextNightFalls:      "Night %[1]s falls over the town. Those with abilities have %[2]s seconds to act.",
		domain.TextDawnDeath:       "A new day dawns. During the night %[1]s was found dead.",
		domain.TextDawnQuiet:       "A new day dawns and nobody died tonight.",
		domain.TextVoteOpen:        "Time to vote! Candidates: %[1]s. You have %[2]s seconds.",
		domain.TextVoteEliminated:  "%[1]s was eliminated by the town's vote.",
		domain.TextVoteTie:         "Tie between %[1]s. Nobody is eliminated today.",
		domain.TextVoteNone:        "Nobody voted. The town eliminates nobody today.",
		domain.TextGameOver:        "The game is over. Winners: %[1]s.",
		domain.TextDeliveryFailed:  "Could not deliver a private message to %[1]s.",
	},
	language.Spanish: {
		domain.TextSessionCreated:  "¡Partida creada por %[1]s! Se jugará con %[2]s jugadores. Faltan %[3]s jugadores...",
		domain.TextPlayerJoined:    "%[1]s se ha unido a la partida. Jugadores actuales: %[2]s/%[3]s. Faltan %[4]s para comenzar...",
		domain.TextSessionFull:     "¡Estamos listos! Iniciando...",
		domain.TextSessionCanceled: "La partida ha sido cancelada por %[1]s.",
		domain.TextGameStarted:     "¡La partida ha comenzado! Cae la noche... Los roles especiales están actuando.",
		domain.TextNightFalls:      "Noche %[1]s. Aquellos con habilidades tienen %[2]s segundos para actuar.",
		domain.TextDawnDeath:       "¡Amanece un nuevo día! Durante la noche, %[1]s fue encontrado sin vida.",
		domain.TextDawnQuiet:       "¡Amanece un nuevo día! Pero esta vez nadie murió.",
		domain.TextVoteOpen:        "Es hora de votar: %[1]s. Tienen %[2]s segundos.",
		domain.TextVoteEliminated:  "%[1]s fue eliminado por votación del pueblo.",
		domain.TextVoteTie:         "¡Empate entre %[1]s! Nadie será eliminado hoy.",
		domain.TextVoteNone:        "Nadie votó. El pueblo decide no eliminar a nadie hoy.",
		domain.TextGameOver:        "¡La partida ha terminado! Ganadores: %[1]s.",
		domain.TextDeliveryFailed:  "No se pudo enviar un mensaje privado a %[1]s.",
	},
}

// Catalog renders announcement keys into localized text
type Catalog struct {
	builder *catalog.Builder
	matcher language.Matcher
	tags    []language.Tag
	keys    map[string]struct{}
}

// New builds the catalog of every supported locale
func New() (*Catalog, error) {
	builder := catalog.NewBuilder(catalog.Fallback(BaseLocale))
	keys := make(map[string]struct{})
	tags := []language.Tag{BaseLocale}

	for tag, messages := range locales {
		if tag != BaseLocale {
			tags = append(tags, tag)
		}
		for key, msg := range messages {
			if err := builder.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("set %s message %q: %w", tag, key, err)
			}
			keys[key] = struct{}{}
		}
	}

	return &Catalog{
		builder: builder,
		matcher: language.NewMatcher(tags),
		tags:    tags,
		keys:    keys,
	}, nil
}

// Printer returns a renderer for the closest supported locale
func (c *Catalog) Printer(locale string) *Printer {
	tag := BaseLocale
	if requested, err := language.Parse(locale); err == nil {
		_, index, _ := c.matcher.Match(requested)
		tag = c.tags[index]
	}

	return &Printer{
		printer: message.NewPrinter(tag, message.Catalog(c.builder)),
		keys:    c.keys,
	}
}

// Printer renders messages in one locale
type Printer struct {
	printer *message.Printer
	keys    map[string]struct{}
}

// Render formats key with its positional params. Unknown keys render as the
// key followed by the params.
func (p *Printer) Render(key string, params []string) string {
	if _, ok := p.keys[key]; !ok {
		if len(params) == 0 {
			return key
		}
		return key + ": " + strings.Join(params, ", ")
	}

	args := make([]interface{}, len(params))
	for i, param := range params {
		args[i] = param
	}
	return p.printer.Sprintf(key, args...)
}
