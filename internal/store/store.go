// Package store handles SQLite persistence of race history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coderace-dev/coderace/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for race records.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS races (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			lang TEXT NOT NULL,
			mode TEXT NOT NULL,
			room_code TEXT NOT NULL,
			chars_typed INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			completed INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_races_ended_at ON races(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_races_lang ON races(lang);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRace stores a completed race.
func (s *Store) InsertRace(ctx context.Context, rec model.RaceRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO races (started_at, ended_at, lang, mode, room_code, chars_typed, errors, wpm, accuracy, duration_ms, completed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Lang,
		string(rec.Mode),
		rec.RoomCode,
		rec.CharsTyped,
		rec.Errors,
		rec.WPM,
		rec.Accuracy,
		rec.DurationMs,
		boolToInt(rec.Completed),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRaces returns race aggregates filtered by stats config, oldest
// first.
func (s *Store) ListRaces(ctx context.Context, cfg model.StatsConfig) ([]model.RaceAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Lang != "" {
		clauses = append(clauses, "lang = ?")
		args = append(args, cfg.Lang)
	}
	if cfg.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, cfg.Mode)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, lang, mode, chars_typed, errors, wpm, accuracy, duration_ms, completed
		FROM races
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var races []model.RaceAggregate
	for rows.Next() {
		var agg model.RaceAggregate
		var endedAt, mode string
		var completed int
		if err := rows.Scan(&agg.RaceID, &endedAt, &agg.Lang, &mode, &agg.CharsTyped, &agg.Errors, &agg.WPM, &agg.Accuracy, &agg.DurationMs, &completed); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Mode = model.RaceMode(mode)
		agg.Completed = completed != 0
		races = append(races, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(races) > cfg.Last {
		races = races[len(races)-cfg.Last:]
	}
	return races, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
