// Package sqlite stores simulation reports in a local SQLite database so
// runs of the same adventure can be compared over time.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nathoo/questsim/report"
	"github.com/nathoo/questsim/store/sqlite/migrations"
	"github.com/nathoo/questsim/types"
)

// ErrNotFound is returned by GetRun for an unknown run id.
var ErrNotFound = errors.New("run not found")

// RunRecord is the indexed summary of one stored run.
type RunRecord struct {
	RunID           string
	AdventureID     string
	ArchetypeID     string
	Seed            int64
	DiceMode        types.DiceMode
	GMBehavior      types.GMBehavior
	PlayerBehavior  types.PlayerBehavior
	Reason          types.TerminationReason
	ScenesCompleted int
	TotalScenes     int
	CriticalIssues  int
	Warnings        int
	ValidCritiques  int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Store is a SQLite-backed run history.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the run history at path, creating it if needed, and applies
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun stores a report. A run id can only be stored once.
func (s *Store) SaveRun(ctx context.Context, rep types.SimulationReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	m := rep.Meta
	if strings.TrimSpace(m.RunID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(m.AdventureID) == "" {
		return fmt.Errorf("adventure id is required")
	}

	data, err := report.Save(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	var archetypeID string
	var valid int
	if rep.Archetype != nil {
		archetypeID = rep.Archetype.Archetype.ID
	}
	if rep.GMValidated != nil {
		valid = rep.GMValidated.Summary.ValidIssues
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO runs (
	run_id,
	adventure_id,
	archetype_id,
	seed,
	dice_mode,
	gm_behavior,
	player_behavior,
	reason,
	scenes_completed,
	total_scenes,
	critical_issues,
	warnings,
	valid_critiques,
	started_at,
	finished_at,
	report_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		m.RunID,
		m.AdventureID,
		archetypeID,
		m.Seed,
		string(m.Config.DiceMode),
		string(m.Config.GMBehavior),
		string(m.Config.PlayerBehavior),
		string(rep.Termination.Reason),
		rep.Summary.ScenesCompleted,
		rep.Summary.TotalScenes,
		rep.Summary.CriticalIssues,
		rep.Summary.Warnings,
		valid,
		m.StartedAt.UTC().UnixMilli(),
		m.FinishedAt.UTC().UnixMilli(),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// ListRuns lists newest-first runs. An empty adventureID lists every
// adventure.
func (s *Store) ListRuns(ctx context.Context, adventureID string, limit int) ([]RunRecord, error) {
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
SELECT
	run_id,
	adventure_id,
	archetype_id,
	seed,
	dice_mode,
	gm_behavior,
	player_behavior,
	reason,
	scenes_completed,
	total_scenes,
	critical_issues,
	warnings,
	valid_critiques,
	started_at,
	finished_at
FROM runs
WHERE ? = '' OR adventure_id = ?
ORDER BY started_at DESC, run_id DESC
LIMIT ?
`, adventureID, adventureID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	records := make([]RunRecord, 0, limit)
	for rows.Next() {
		var r RunRecord
		var dice, gm, player, reason string
		var started, finished int64
		if err := rows.Scan(
			&r.RunID,
			&r.AdventureID,
			&r.ArchetypeID,
			&r.Seed,
			&dice,
			&gm,
			&player,
			&reason,
			&r.ScenesCompleted,
			&r.TotalScenes,
			&r.CriticalIssues,
			&r.Warnings,
			&r.ValidCritiques,
			&started,
			&finished,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.DiceMode = types.DiceMode(dice)
		r.GMBehavior = types.GMBehavior(gm)
		r.PlayerBehavior = types.PlayerBehavior(player)
		r.Reason = types.TerminationReason(reason)
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// GetRun loads the full report of one run.
func (s *Store) GetRun(ctx context.Context, runID string) (*types.SimulationReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var data string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE run_id = ?`, runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	rep, err := report.Load([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return rep, nil
}
