// Package persistence provides SQLite-based storage for simulation runs.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/contagion/telemetry"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		config_yaml TEXT NOT NULL,
		ticks INTEGER NOT NULL DEFAULT 0,
		summary_json TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id INTEGER NOT NULL,
		window_end INTEGER NOT NULL,
		population INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		created INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		asymptomatic INTEGER NOT NULL,
		symptomatic INTEGER NOT NULL,
		cumulative_infected INTEGER NOT NULL,
		new_infections INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		arrivals INTEGER NOT NULL,
		moves_accepted INTEGER NOT NULL,
		PRIMARY KEY (run_id, window_end)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		category INTEGER NOT NULL,
		site INTEGER NOT NULL,
		from_site INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS milestones (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_milestones_run ON milestones(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is a stored run header.
type Run struct {
	ID          int64  `db:"id"`
	Seed        int64  `db:"seed"`
	StartedAt   string `db:"started_at"`
	ConfigYAML  string `db:"config_yaml"`
	Ticks       int    `db:"ticks"`
	SummaryJSON string `db:"summary_json"`
}

// Summary decodes the stored run summary.
func (r Run) Summary() (telemetry.RunSummary, error) {
	var s telemetry.RunSummary
	if r.SummaryJSON == "" {
		return s, nil
	}
	err := json.Unmarshal([]byte(r.SummaryJSON), &s)
	return s, err
}

// TickStats is one stored telemetry window.
type TickStats struct {
	RunID              int64 `db:"run_id"`
	WindowEnd          int   `db:"window_end"`
	Population         int   `db:"population"`
	Alive              int   `db:"alive"`
	Created            int   `db:"created"`
	Dead               int   `db:"dead"`
	Asymptomatic       int   `db:"asymptomatic"`
	Symptomatic        int   `db:"symptomatic"`
	CumulativeInfected int   `db:"cumulative_infected"`
	NewInfections      int   `db:"new_infections"`
	Deaths             int   `db:"deaths"`
	Arrivals           int   `db:"arrivals"`
	MovesAccepted      int   `db:"moves_accepted"`
}

// EventRow is one stored agent event.
type EventRow struct {
	Tick     int    `db:"tick"`
	Type     string `db:"type"`
	AgentID  uint64 `db:"agent_id"`
	Category int    `db:"category"`
	Site     int    `db:"site"`
	FromSite int    `db:"from_site"`
}

// CreateRun inserts a run header and returns its ID.
func (db *DB) CreateRun(seed int64, configYAML []byte) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO runs (seed, started_at, config_yaml) VALUES (?, ?, ?)",
		seed, time.Now().UTC().Format(time.RFC3339), string(configYAML),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun records the final tick count and summary of a run.
func (db *DB) FinishRun(runID int64, ticks int, summary telemetry.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = db.conn.Exec(
		"UPDATE runs SET ticks = ?, summary_json = ? WHERE id = ?",
		ticks, string(data), runID,
	)
	return err
}

// GetRun loads a run header.
func (db *DB) GetRun(runID int64) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT id, seed, started_at, config_yaml, ticks, summary_json FROM runs WHERE id = ?", runID)
	return r, err
}

// SaveWindow stores one telemetry window.
func (db *DB) SaveWindow(runID int64, s telemetry.WindowStats) error {
	_, err := db.conn.NamedExec(`INSERT OR REPLACE INTO tick_stats
		(run_id, window_end, population, alive, created, dead, asymptomatic, symptomatic,
		 cumulative_infected, new_infections, deaths, arrivals, moves_accepted)
		VALUES (:run_id, :window_end, :population, :alive, :created, :dead, :asymptomatic, :symptomatic,
		 :cumulative_infected, :new_infections, :deaths, :arrivals, :moves_accepted)`,
		TickStats{
			RunID:              runID,
			WindowEnd:          s.WindowEndTick,
			Population:         s.Population,
			Alive:              s.Alive,
			Created:            s.Created,
			Dead:               s.Dead,
			Asymptomatic:       s.Asymptomatic,
			Symptomatic:        s.Symptomatic,
			CumulativeInfected: s.CumulativeInfected,
			NewInfections:      s.NewInfections,
			Deaths:             s.Deaths,
			Arrivals:           s.Arrivals,
			MovesAccepted:      s.MovesAccepted,
		},
	)
	if err != nil {
		return fmt.Errorf("insert window %d: %w", s.WindowEndTick, err)
	}
	return nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(runID int64, events []telemetry.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, tick, type, agent_id, category, site, from_site)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(runID, e.Tick, e.Type.String(), uint64(e.AgentID), int(e.Category), e.Site, e.From); err != nil {
			return fmt.Errorf("insert event for agent %d: %w", e.AgentID, err)
		}
	}

	return tx.Commit()
}

// SaveMilestone appends a milestone.
func (db *DB) SaveMilestone(runID int64, m telemetry.Milestone) error {
	_, err := db.conn.Exec(
		"INSERT INTO milestones (run_id, tick, type, description) VALUES (?, ?, ?, ?)",
		runID, m.Tick, string(m.Type), m.Description,
	)
	return err
}

// Windows returns the stored telemetry windows of a run in tick order.
func (db *DB) Windows(runID int64) ([]TickStats, error) {
	var rows []TickStats
	err := db.conn.Select(&rows, "SELECT * FROM tick_stats WHERE run_id = ? ORDER BY window_end", runID)
	return rows, err
}

// Events returns the events of a run of the given type ("" for all), oldest first.
func (db *DB) Events(runID int64, eventType string) ([]EventRow, error) {
	var rows []EventRow
	query := "SELECT tick, type, agent_id, category, site, from_site FROM events WHERE run_id = ?"
	args := []any{runID}
	if eventType != "" {
		query += " AND type = ?"
		args = append(args, eventType)
	}
	err := db.conn.Select(&rows, query+" ORDER BY id", args...)
	return rows, err
}

// Milestones returns the milestones of a run in insertion order.
func (db *DB) Milestones(runID int64) ([]telemetry.Milestone, error) {
	var rows []struct {
		Tick        int    `db:"tick"`
		Type        string `db:"type"`
		Description string `db:"description"`
	}
	if err := db.conn.Select(&rows, "SELECT tick, type, description FROM milestones WHERE run_id = ? ORDER BY id", runID); err != nil {
		return nil, err
	}

	out := make([]telemetry.Milestone, len(rows))
	for i, r := range rows {
		out[i] = telemetry.Milestone{Type: telemetry.MilestoneType(r.Type), Tick: r.Tick, Description: r.Description}
	}
	return out, nil
}

// CountEvents returns how many events of each type a run stored.
func (db *DB) CountEvents(runID int64) (map[string]int, error) {
	var rows []struct {
		Type  string `db:"type"`
		Count int    `db:"n"`
	}
	if err := db.conn.Select(&rows, "SELECT type, COUNT(*) AS n FROM events WHERE run_id = ? GROUP BY type", runID); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	slog.Debug("counted events", "run_id", runID, "types", len(counts))
	return counts, nil
}
