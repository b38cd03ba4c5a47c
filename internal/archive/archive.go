// Package archive journals games to SQLite so a desync can be reproduced
// offline: the init settings, every applied turn and every tick hash.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/woodydrn/OpenFrontIO-sub000/internal/protocol"
	"github.com/woodydrn/OpenFrontIO-sub000/internal/runtime"
)

var (
	ErrGameNotFound = errors.New("archive: game not found")
	ErrGameExists   = errors.New("archive: game already recorded")
	ErrTurnGap      = errors.New("archive: turn out of sequence")
	ErrCorrupt      = errors.New("archive: payload digest mismatch")
)

// GameSummary describes one archived game.
type GameSummary struct {
	GameID    string
	Turns     int
	LastHash  int
	CreatedAt time.Time
}

// Archive is safe for concurrent use.
type Archive struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open creates or opens the archive at path, creating parent directories
// and the schema as needed.
func Open(path string, logger zerolog.Logger) (*Archive, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("archive: cannot create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot open database: %w", err)
	}
	// one writer keeps turn numbering race free
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: cannot connect to database: %w", err)
	}

	a := &Archive{db: db, logger: logger.With().Str("component", "Archive").Logger()}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: migration failed: %w", err)
	}
	a.logger.Info().Str("path", path).Msg("Archive opened")
	return a, nil
}

func (a *Archive) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			setup BLOB NOT NULL,
			digest TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS turns (
			game_id TEXT NOT NULL,
			turn_number INTEGER NOT NULL,
			payload BLOB NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (game_id, turn_number)
		);

		CREATE TABLE IF NOT EXISTS hashes (
			game_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			hash INTEGER NOT NULL,
			PRIMARY KEY (game_id, tick)
		);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// CreateGame records the settings a game was initialized with.
func (a *Archive) CreateGame(ctx context.Context, setup runtime.InitRequest) error {
	blob, digest, err := pack(setup)
	if err != nil {
		return err
	}
	var exists int
	err = a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games WHERE game_id = ?", setup.GameID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("archive: cannot look up game: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrGameExists, setup.GameID)
	}
	_, err = a.db.ExecContext(ctx,
		"INSERT INTO games (game_id, setup, digest) VALUES (?, ?, ?)",
		setup.GameID, blob, digest,
	)
	if err != nil {
		return fmt.Errorf("archive: cannot save game: %w", err)
	}
	return nil
}

// Game returns the settings of an archived game.
func (a *Archive) Game(ctx context.Context, gameID string) (*runtime.InitRequest, error) {
	var blob []byte
	var digest string
	err := a.db.QueryRowContext(ctx, "SELECT setup, digest FROM games WHERE game_id = ?", gameID).Scan(&blob, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("archive: cannot load game: %w", err)
	}
	var setup runtime.InitRequest
	if err := unpack(blob, digest, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

// RecordTurn appends turn to the game's journal. Turns must be recorded
// consecutively from 0.
func (a *Archive) RecordTurn(ctx context.Context, gameID string, turn protocol.Turn) error {
	var next int
	err := a.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(turn_number) + 1, 0) FROM turns WHERE game_id = ?", gameID,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("archive: cannot read turn counter: %w", err)
	}
	if turn.TurnNumber != next {
		return fmt.Errorf("%w: got turn %d, want %d", ErrTurnGap, turn.TurnNumber, next)
	}

	blob, digest, err := pack(turn)
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx,
		"INSERT INTO turns (game_id, turn_number, payload, digest) VALUES (?, ?, ?, ?)",
		gameID, turn.TurnNumber, blob, digest,
	)
	if err != nil {
		return fmt.Errorf("archive: cannot save turn %d: %w", turn.TurnNumber, err)
	}
	return nil
}

// RecordHash stores the hash computed for tick. Recording a tick again
// overwrites it.
func (a *Archive) RecordHash(ctx context.Context, gameID string, tick int, hash uint64) error {
	_, err := a.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO hashes (game_id, tick, hash) VALUES (?, ?, ?)",
		gameID, tick, int64(hash),
	)
	if err != nil {
		return fmt.Errorf("archive: cannot save hash for tick %d: %w", tick, err)
	}
	return nil
}

// Turns returns the journal of a game in turn order.
func (a *Archive) Turns(ctx context.Context, gameID string) ([]protocol.Turn, error) {
	rows, err := a.db.QueryContext(ctx,
		"SELECT payload, digest FROM turns WHERE game_id = ? ORDER BY turn_number", gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot query turns: %w", err)
	}
	defer rows.Close()

	var turns []protocol.Turn
	for rows.Next() {
		var blob []byte
		var digest string
		if err := rows.Scan(&blob, &digest); err != nil {
			return nil, fmt.Errorf("archive: cannot scan turn: %w", err)
		}
		var turn protocol.Turn
		if err := unpack(blob, digest, &turn); err != nil {
			return nil, fmt.Errorf("turn %d: %w", len(turns), err)
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Hashes returns the recorded tick hashes of a game keyed by tick.
func (a *Archive) Hashes(ctx context.Context, gameID string) (map[int]uint64, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT tick, hash FROM hashes WHERE game_id = ?", gameID)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot query hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[int]uint64)
	for rows.Next() {
		var tick int
		var hash int64
		if err := rows.Scan(&tick, &hash); err != nil {
			return nil, fmt.Errorf("archive: cannot scan hash: %w", err)
		}
		hashes[tick] = uint64(hash)
	}
	return hashes, rows.Err()
}

// Games lists the archived games, newest first.
func (a *Archive) Games(ctx context.Context) ([]GameSummary, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT g.game_id, g.created_at,
			(SELECT COUNT(*) FROM turns t WHERE t.game_id = g.game_id),
			(SELECT COALESCE(MAX(tick), 0) FROM hashes h WHERE h.game_id = g.game_id)
		FROM games g
		ORDER BY g.created_at DESC, g.game_id
	`)
	if err != nil {
		return nil, fmt.Errorf("archive: cannot list games: %w", err)
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var s GameSummary
		if err := rows.Scan(&s.GameID, &s.CreatedAt, &s.Turns, &s.LastHash); err != nil {
			return nil, fmt.Errorf("archive: cannot scan game: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteGame removes everything recorded for a game.
func (a *Archive) DeleteGame(ctx context.Context, gameID string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"turns", "hashes", "games"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE game_id = ?", gameID); err != nil {
			return fmt.Errorf("archive: cannot delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}
