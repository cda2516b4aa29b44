package store

import (
	"log/slog"

	"github.com/mnemon/mnemon/pkg/models"
)

// maxOplogEntries bounds the operation log; older rows are trimmed after
// every append.
const maxOplogEntries = 5000

// OpEntry is one row of the operation log.
type OpEntry struct {
	ID        int64  `json:"id"`
	Op        string `json:"operation"`
	InsightID string `json:"insight_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

// AppendOp records an operation. Logging is best-effort: a failure here
// must never fail the operation being logged.
func (s *Store) AppendOp(op, insightID, detail string) {
	_, err := s.db.Exec(`
		INSERT INTO oplog (operation, insight_id, detail, created_at) VALUES (?, ?, ?, ?)`,
		op, insightID, detail, formatTime(models.Now()))
	if err != nil {
		slog.Warn("oplog append failed", "op", op, "error", err)
		return
	}
	_, err = s.db.Exec(`
		DELETE FROM oplog
		WHERE id <= (SELECT MAX(id) FROM oplog) - ?`, maxOplogEntries)
	if err != nil {
		slog.Warn("oplog trim failed", "error", err)
	}
}

// RecentOps returns the newest log entries, newest first.
func (s *Store) RecentOps(limit int) ([]OpEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, operation, COALESCE(insight_id, ''), COALESCE(detail, ''), created_at
		FROM oplog ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []OpEntry
	for rows.Next() {
		var e OpEntry
		if err := rows.Scan(&e.ID, &e.Op, &e.InsightID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountOps returns the oplog row count.
func (s *Store) CountOps() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM oplog").Scan(&n)
	return n, err
}
