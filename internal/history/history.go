package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"haptune/internal/config"
)

// Record is one playback row. CompletedAt is nil while the playback's
// completion callback has not fired.
type Record struct {
	ID          int64
	SessionID   string
	Source      string
	Tier        int
	Duration    time.Duration
	EffectCount int
	AudioCount  int
	FileCount   int
	Route       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Store persists playback history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS playbacks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    source TEXT NOT NULL,
    tier INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    effect_count INTEGER NOT NULL,
    audio_count INTEGER NOT NULL,
    file_count INTEGER NOT NULL,
    route TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_playbacks_started_at ON playbacks(started_at);
`

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryDBPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordStart inserts a playback row at schedule time and returns its id.
func (s *Store) RecordStart(ctx context.Context, rec Record) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO playbacks (
            session_id, source, tier, duration_ms,
            effect_count, audio_count, file_count, route, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.Source,
		rec.Tier,
		rec.Duration.Milliseconds(),
		rec.EffectCount,
		rec.AudioCount,
		rec.FileCount,
		rec.Route,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert playback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// MarkComplete stamps the playback's completion time.
func (s *Store) MarkComplete(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE playbacks SET completed_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark playback complete: %w", err)
	}
	return nil
}

// Recent returns up to limit playbacks, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, source, tier, duration_ms,
                effect_count, audio_count, file_count, route,
                started_at, completed_at
         FROM playbacks ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list playbacks: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playback: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playbacks: %w", err)
	}
	return records, nil
}

// GetByID fetches one playback row; nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, session_id, source, tier, duration_ms,
                effect_count, audio_count, file_count, route,
                started_at, completed_at
         FROM playbacks WHERE id = ?`,
		id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get playback: %w", err)
	}
	return &rec, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec          Record
		durationMS   int64
		startedRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.SessionID,
		&rec.Source,
		&rec.Tier,
		&durationMS,
		&rec.EffectCount,
		&rec.AudioCount,
		&rec.FileCount,
		&rec.Route,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return Record{}, err
	}
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		rec.StartedAt = started
	}
	if completedRaw.Valid {
		if completed, err := time.Parse(time.RFC3339Nano, completedRaw.String); err == nil {
			rec.CompletedAt = &completed
		}
	}
	return rec, nil
}
