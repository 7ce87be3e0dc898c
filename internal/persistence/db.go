// Package persistence records every document the tools write in a run ledger.
// SQLite is the default store; a postgres:// DSN selects PostgreSQL.
package persistence

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/talgya/tileforge/internal/scenario"
)

// Run kinds.
const (
	KindExtract  = "extract"
	KindFreeze   = "freeze"
	KindScenario = "scenario"
	KindGenerate = "generate"
)

// Run is one ledger row.
type Run struct {
	ID        int64     `db:"id"`
	Kind      string    `db:"kind"`
	GameID    string    `db:"game_id"`
	Input     string    `db:"input"`
	Output    string    `db:"output"`
	Width     int       `db:"width"`
	Height    int       `db:"height"`
	Tiles     int       `db:"tiles"`
	Cities    int       `db:"cities"`
	Units     int       `db:"units"`
	Bytes     int64     `db:"bytes"`
	SHA256    string    `db:"sha256"`
	CreatedAt time.Time `db:"created_at"`
}

// DB wraps a ledger connection.
type DB struct {
	conn     *sqlx.DB
	postgres bool
}

// Open opens or creates the ledger named by dsn. A dsn starting with
// postgres:// or postgresql:// connects to PostgreSQL; anything else is a
// SQLite file path.
func Open(dsn string) (*DB, error) {
	driver, source := "sqlite", sqliteSource(dsn)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, source = "postgres", dsn
	}

	conn, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	db := &DB{conn: conn, postgres: driver == "postgres"}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// sqliteSource appends the pragmas every pooled connection runs on open.
func sqliteSource(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	key := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.postgres {
		key = "BIGSERIAL PRIMARY KEY"
	}
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id ` + key + `,
		kind TEXT NOT NULL,
		game_id TEXT NOT NULL DEFAULT '',
		input TEXT NOT NULL,
		output TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		tiles INTEGER NOT NULL,
		cities INTEGER NOT NULL,
		units INTEGER NOT NULL,
		bytes BIGINT NOT NULL,
		sha256 TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS claims (
		run_id BIGINT NOT NULL REFERENCES runs(id),
		tile_id INTEGER NOT NULL,
		city_id INTEGER NOT NULL,
		PRIMARY KEY (run_id, tile_id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RecordRun stores run and its territory claims in one transaction and
// returns the new run id. A zero CreatedAt is stamped with the current time.
func (db *DB) RecordRun(run Run, claims []scenario.Claim) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.Get(&id, tx.Rebind(`INSERT INTO runs
		(kind, game_id, input, output, width, height, tiles, cities, units,
		 bytes, sha256, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		run.Kind, run.GameID, run.Input, run.Output, run.Width, run.Height,
		run.Tiles, run.Cities, run.Units, run.Bytes, run.SHA256, run.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	if len(claims) > 0 {
		stmt, err := tx.Preparex(tx.Rebind(
			"INSERT INTO claims (run_id, tile_id, city_id) VALUES (?, ?, ?)"))
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		for _, c := range claims {
			if _, err := stmt.Exec(id, c.TileID, c.CityID); err != nil {
				return 0, fmt.Errorf("insert claim tile %d: %w", c.TileID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Debug("run recorded", "id", id, "kind", run.Kind, "claims", len(claims))
	return id, nil
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, db.conn.Rebind(`SELECT id, kind, game_id, input, output,
		width, height, tiles, cities, units, bytes, sha256, created_at
		FROM runs ORDER BY id DESC LIMIT ?`),
		limit,
	)
	return runs, err
}

// Claims returns the territory claims recorded for a run, by tile id.
func (db *DB) Claims(runID int64) ([]scenario.Claim, error) {
	var claims []scenario.Claim
	err := db.conn.Select(&claims, db.conn.Rebind(
		"SELECT tile_id, city_id FROM claims WHERE run_id = ? ORDER BY tile_id"),
		runID,
	)
	return claims, err
}
