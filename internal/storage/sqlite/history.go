package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mafia/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	game_id    TEXT PRIMARY KEY,
	room       TEXT NOT NULL,
	winner     TEXT NOT NULL,
	rounds     INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS games_room_ended ON games (room, ended_at DESC);

CREATE TABLE IF NOT EXISTS game_players (
	game_id   TEXT NOT NULL REFERENCES games (game_id) ON DELETE CASCADE,
	seat      INTEGER NOT NULL,
	player_id TEXT NOT NULL,
	name      TEXT NOT NULL,
	role      TEXT NOT NULL,
	survived  INTEGER NOT NULL,
	PRIMARY KEY (game_id, seat)
);
`

// HistoryStore archives finished games in SQLite.
type HistoryStore struct {
	sqlDB *sql.DB
}

// Open opens the history database at path and creates its tables.
func Open(path string) (*HistoryStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &HistoryStore{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *HistoryStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordGame stores one finished game and its seats.
func (s *HistoryStore) RecordGame(ctx context.Context, record domain.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	if strings.TrimSpace(record.Room) == "" {
		return fmt.Errorf("room is required")
	}
	if record.EndedAt.IsZero() {
		record.EndedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record game: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO games (game_id, room, winner, rounds, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		record.GameID,
		record.Room,
		string(record.Winner),
		record.Rounds,
		record.StartedAt.UTC().UnixMilli(),
		record.EndedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	for seat, p := range record.Players {
		_, err = tx.ExecContext(ctx, `
INSERT INTO game_players (game_id, seat, player_id, name, role, survived)
VALUES (?, ?, ?, ?, ?, ?)
`,
			record.GameID,
			seat,
			p.Player.ID,
			p.Player.Name,
			string(p.Role),
			p.Survived,
		)
		if err != nil {
			return fmt.Errorf("insert player %s: %w", p.Player.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record game: %w", err)
	}
	return nil
}

// RecentGames lists the newest finished games of a room.
func (s *HistoryStore) RecentGames(ctx context.Context, room string, limit int) ([]domain.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT game_id, room, winner, rounds, started_at, ended_at
FROM games
WHERE room = ?
ORDER BY ended_at DESC, game_id DESC
LIMIT ?
`, room, limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	records := make([]domain.GameRecord, 0, limit)
	for rows.Next() {
		var record domain.GameRecord
		var winner string
		var startedAt, endedAt int64
		if err := rows.Scan(&record.GameID, &record.Room, &winner, &record.Rounds, &startedAt, &endedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan game: %w", err)
		}
		record.Winner = domain.Faction(winner)
		record.StartedAt = time.UnixMilli(startedAt).UTC()
		record.EndedAt = time.UnixMilli(endedAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	_ = rows.Close()

	for i := range records {
		players, err := s.players(ctx, records[i].GameID)
		if err != nil {
			return nil, err
		}
		records[i].Players = players
	}
	return records, nil
}

func (s *HistoryStore) players(ctx context.Context, gameID string) ([]domain.RecordedPlayer, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT player_id, name, role, survived
FROM game_players
WHERE game_id = ?
ORDER BY seat
`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []domain.RecordedPlayer
	for rows.Next() {
		var p domain.RecordedPlayer
		var role string
		if err := rows.Scan(&p.Player.ID, &p.Player.Name, &role, &p.Survived); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Role = domain.Role(role)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}
