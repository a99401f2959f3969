// Package history records finished pipeline runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"footech/internal/clips"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound is returned when no run has the requested id
var ErrNotFound = errors.New("run not found")

// Run is the persisted summary of one pipeline run
type Run struct {
	ID                 string         `json:"id"`
	Source             string         `json:"source"`
	CreatedAt          time.Time      `json:"created_at"`
	MediaDuration      float64        `json:"media_duration"`
	DurationKnown      bool           `json:"duration_known"`
	Degraded           bool           `json:"degraded"`
	AcousticEvents     int            `json:"acoustic_events"`
	SemanticEvents     int            `json:"semantic_events"`
	CorrelatedEvents   int            `json:"correlated_events"`
	SuggestedThreshold float64        `json:"suggested_threshold"`
	Windows            []clips.Window `json:"windows"`
	Warnings           []string       `json:"warnings"`
	OutputPath         string         `json:"output_path"`
	ArtifactsDir       string         `json:"artifacts_dir"`
}

// Store manages run persistence backed by SQLite
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the history database and applies migrations
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a run
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	windows := run.Windows
	if windows == nil {
		windows = []clips.Window{}
	}
	windowsJSON, err := json.Marshal(windows)
	if err != nil {
		return fmt.Errorf("marshal windows: %w", err)
	}
	warnings := run.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (
            id, source, created_at, media_duration, duration_known, degraded,
            acoustic_events, semantic_events, correlated_events, suggested_threshold,
            windows_json, warnings_json, output_path, artifacts_dir
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Source,
		run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.MediaDuration,
		boolToInt(run.DurationKnown),
		boolToInt(run.Degraded),
		run.AcousticEvents,
		run.SemanticEvents,
		run.CorrelatedEvents,
		run.SuggestedThreshold,
		string(windowsJSON),
		string(warningsJSON),
		nullableString(run.OutputPath),
		nullableString(run.ArtifactsDir),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectColumns = `id, source, created_at, media_duration, duration_known, degraded,
    acoustic_events, semantic_events, correlated_events, suggested_threshold,
    windows_json, warnings_json, output_path, artifacts_dir`

// Get fetches a run by id
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// List returns the most recent runs first; limit <= 0 returns all
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + selectColumns + " FROM runs ORDER BY created_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                    Run
		createdAt              string
		mediaDuration          sql.NullFloat64
		durationKnown          int
		degraded               int
		suggested              sql.NullFloat64
		windowsJSON, warnsJSON string
		outputPath, artifacts  sql.NullString
	)
	err := row.Scan(
		&run.ID, &run.Source, &createdAt, &mediaDuration, &durationKnown, &degraded,
		&run.AcousticEvents, &run.SemanticEvents, &run.CorrelatedEvents, &suggested,
		&windowsJSON, &warnsJSON, &outputPath, &artifacts,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	run.MediaDuration = mediaDuration.Float64
	run.DurationKnown = durationKnown != 0
	run.Degraded = degraded != 0
	run.SuggestedThreshold = suggested.Float64
	run.OutputPath = outputPath.String
	run.ArtifactsDir = artifacts.String
	if err := json.Unmarshal([]byte(windowsJSON), &run.Windows); err != nil {
		return Run{}, fmt.Errorf("decode windows: %w", err)
	}
	if err := json.Unmarshal([]byte(warnsJSON), &run.Warnings); err != nil {
		return Run{}, fmt.Errorf("decode warnings: %w", err)
	}
	return run, nil
}

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{version: strings.TrimSuffix(name, ".sql"), sql: string(data)})
	}
	return migrations, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, m := range migrations {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
