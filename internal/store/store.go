package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when an insight or store does not exist (or has
// been soft-deleted).
var ErrNotFound = errors.New("not found")

// Store handles all database operations for one named store
type Store struct {
	db       *sql.DB
	path     string
	readonly bool
	inTx     bool
}

// New opens (creating if needed) the database at dbPath and applies
// migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The write pipeline assumes statements between BEGIN IMMEDIATE and
	// COMMIT share one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// OpenReadOnly opens an existing database without applying migrations.
// A missing database file is reported as ErrNotFound.
func OpenReadOnly(dbPath string) (*Store, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("store at %s: %w", dbPath, ErrNotFound)
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, path: dbPath, readonly: true}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		// Insights table
		`CREATE TABLE IF NOT EXISTS insights (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'general',
			importance INTEGER NOT NULL DEFAULT 3,
			tags TEXT NOT NULL DEFAULT '[]',
			entities TEXT NOT NULL DEFAULT '[]',
			source TEXT NOT NULL DEFAULT 'user',
			access_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			deleted_at TEXT
		)`,

		// Edges table. Bidirectional links are two rows.
		`CREATE TABLE IF NOT EXISTS edges (
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			edge_type TEXT NOT NULL CHECK (edge_type IN ('temporal','entity','causal','semantic')),
			weight REAL NOT NULL DEFAULT 1.0,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			PRIMARY KEY (source_id, target_id, edge_type),
			FOREIGN KEY (source_id) REFERENCES insights(id) ON DELETE CASCADE,
			FOREIGN KEY (target_id) REFERENCES insights(id) ON DELETE CASCADE
		)`,

		// Operation log
		`CREATE TABLE IF NOT EXISTS oplog (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation TEXT NOT NULL,
			insight_id TEXT,
			detail TEXT,
			created_at TEXT NOT NULL
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_insights_category ON insights(category)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_importance ON insights(importance)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_created ON insights(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_deleted ON insights(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_source ON insights(source)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(edge_type)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_source_type ON edges(source_id, edge_type)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_target_type ON edges(target_id, edge_type)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	// Columns added after the initial schema shipped. Re-running on an
	// up-to-date database reports a duplicate column, which is fine.
	additive := []string{
		`ALTER TABLE insights ADD COLUMN last_accessed_at TEXT`,
		`ALTER TABLE insights ADD COLUMN embedding BLOB`,
		`ALTER TABLE insights ADD COLUMN effective_importance REAL DEFAULT 0.5`,
	}
	for _, stmt := range additive {
		if _, err := s.db.Exec(stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	late := []string{
		`CREATE INDEX IF NOT EXISTS idx_insights_effective ON insights(effective_importance)`,
		`CREATE INDEX IF NOT EXISTS idx_prune_candidates ON insights(deleted_at, importance, access_count, effective_importance)`,
	}
	for _, stmt := range late {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// InTx runs fn inside a BEGIN IMMEDIATE transaction, committing on nil and
// rolling back on error. Nesting is a programming error.
func (s *Store) InTx(fn func() error) error {
	if s.inTx {
		return errors.New("nested transaction")
	}
	if _, err := s.db.Exec("BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.inTx = true
	defer func() { s.inTx = false }()

	if err := fn(); err != nil {
		s.db.Exec("ROLLBACK")
		return err
	}
	if _, err := s.db.Exec("COMMIT"); err != nil {
		s.db.Exec("ROLLBACK")
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Stats summarizes the contents of a store
type Stats struct {
	TotalInsights   int            `json:"total_insights"`
	DeletedInsights int            `json:"deleted_insights"`
	ByCategory      map[string]int `json:"by_category"`
	EdgeCount       int            `json:"edge_count"`
	EdgesByType     map[string]int `json:"edges_by_type"`
	OplogCount      int            `json:"oplog_count"`
	TopEntities     []EntityCount  `json:"top_entities"`
}

// EntityCount is one entry in the top-entities ranking.
type EntityCount struct {
	Entity string `json:"entity"`
	Count  int    `json:"count"`
}

// GetStats returns store statistics
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{
		ByCategory:  make(map[string]int),
		EdgesByType: make(map[string]int),
	}

	row := s.db.QueryRow("SELECT COUNT(*) FROM insights WHERE deleted_at IS NULL")
	if err := row.Scan(&stats.TotalInsights); err != nil {
		return nil, err
	}
	row = s.db.QueryRow("SELECT COUNT(*) FROM insights WHERE deleted_at IS NOT NULL")
	if err := row.Scan(&stats.DeletedInsights); err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT category, COUNT(*) FROM insights WHERE deleted_at IS NULL GROUP BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.ByCategory[category] = count
	}

	row = s.db.QueryRow("SELECT COUNT(*) FROM edges")
	if err := row.Scan(&stats.EdgeCount); err != nil {
		return nil, err
	}

	byType, err := s.CountEdgesByType()
	if err != nil {
		return nil, err
	}
	stats.EdgesByType = byType

	row = s.db.QueryRow("SELECT COUNT(*) FROM oplog")
	if err := row.Scan(&stats.OplogCount); err != nil {
		return nil, err
	}

	entRows, err := s.db.Query(`
		SELECT je.value, COUNT(*) AS n
		FROM insights i, json_each(i.entities) je
		WHERE i.deleted_at IS NULL
		GROUP BY je.value
		ORDER BY n DESC, je.value ASC
		LIMIT 20
	`)
	if err != nil {
		return nil, err
	}
	defer entRows.Close()
	stats.TopEntities = []EntityCount{}
	for entRows.Next() {
		var ec EntityCount
		if err := entRows.Scan(&ec.Entity, &ec.Count); err != nil {
			return nil, err
		}
		stats.TopEntities = append(stats.TopEntities, ec)
	}

	return stats, nil
}
