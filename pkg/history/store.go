// Package history records install runs in a local SQLite database so users
// can see what past runs installed and when.
package history

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Run is one recorded install run.
type Run struct {
	ID          string    `db:"id"`
	ProjectName string    `db:"project_name"`
	InstallMode string    `db:"install_mode"`
	StackID     string    `db:"stack_id"`
	Agents      string    `db:"agents"`
	Skills      string    `db:"skills"`
	Merged      bool      `db:"merged"`
	CreatedAt   time.Time `db:"created_at"`
}

// AgentList returns the agents column split back into ids.
func (r Run) AgentList() []string { return splitList(r.Agents) }

// SkillList returns the skills column split back into ids.
func (r Run) SkillList() []string { return splitList(r.Skills) }

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Store persists install runs.
type Store struct {
	db *sqlx.DB
}

// DefaultDBPath returns the default history database location.
func DefaultDBPath() (string, error) {
	if basePath := os.Getenv("SKILLFORGE_BASE_PATH"); basePath != "" {
		return filepath.Join(basePath, "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".skillforge", "history.db"), nil
}

// Open opens or creates the history database with WAL pragmas and runs
// migrations.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping history database")
	}

	if err := configure(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func configure(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return errors.Wrapf(err, "failed to execute pragma: %s", pragma)
		}
	}

	db.SetMaxIdleConns(1)
	db.SetMaxOpenConns(1)
	return nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS install_runs (
	id TEXT PRIMARY KEY,
	project_name TEXT NOT NULL,
	install_mode TEXT NOT NULL,
	stack_id TEXT NOT NULL DEFAULT '',
	agents TEXT NOT NULL DEFAULT '',
	skills TEXT NOT NULL DEFAULT '',
	merged INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_install_runs_created_at ON install_runs(created_at DESC);
`
	_, err := db.ExecContext(ctx, schema)
	return errors.Wrap(err, "failed to migrate history schema")
}

// RecordRun persists one install run and returns its generated id.
func (s *Store) RecordRun(ctx context.Context, projectName, installMode, stackID string, agents, skills []string, merged bool) (string, error) {
	run := Run{
		ID:          uuid.NewString(),
		ProjectName: projectName,
		InstallMode: installMode,
		StackID:     stackID,
		Agents:      strings.Join(agents, ","),
		Skills:      strings.Join(skills, ","),
		Merged:      merged,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO install_runs (id, project_name, install_mode, stack_id, agents, skills, merged, created_at)
		VALUES (:id, :project_name, :install_mode, :stack_id, :agents, :skills, :merged, :created_at)`, run)
	if err != nil {
		return "", errors.Wrap(err, "failed to record install run")
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []Run
	err := s.db.SelectContext(ctx, &runs,
		"SELECT * FROM install_runs ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list install runs")
	}
	return runs, nil
}
