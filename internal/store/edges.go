package store

import (
	"encoding/json"

	"github.com/mnemon/mnemon/pkg/models"
)

const edgeColumns = "source_id, target_id, edge_type, weight, metadata, created_at"

func scanEdge(sc rowScanner) (*models.Edge, error) {
	var e models.Edge
	var metaJSON, createdAt string
	err := sc.Scan(&e.SourceID, &e.TargetID, &e.EdgeType, &e.Weight, &metaJSON, &createdAt)
	if err != nil {
		return nil, err
	}
	json.Unmarshal([]byte(metaJSON), &e.Metadata)
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

func (s *Store) queryEdges(query string, args ...any) ([]*models.Edge, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []*models.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// UpsertEdge inserts or replaces one directed edge row.
func (s *Store) UpsertEdge(e *models.Edge) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, _ := json.Marshal(meta)
	created := e.CreatedAt
	if created.IsZero() {
		created = models.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO edges (source_id, target_id, edge_type, weight, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.SourceID, e.TargetID, e.EdgeType, e.Weight, string(metaJSON), formatTime(created))
	return err
}

// EdgesFrom returns outgoing edges, optionally restricted to certain types.
func (s *Store) EdgesFrom(id string, types []models.EdgeType) ([]*models.Edge, error) {
	if len(types) == 0 {
		return s.queryEdges(
			"SELECT "+edgeColumns+" FROM edges WHERE source_id = ?", id)
	}
	sqlq := "SELECT " + edgeColumns + " FROM edges WHERE source_id = ? AND edge_type IN (" +
		placeholders(len(types)) + ")"
	args := []any{id}
	for _, t := range types {
		args = append(args, t)
	}
	return s.queryEdges(sqlq, args...)
}

// EdgesTouching returns every edge incident to the node, in either
// direction. The second leg excludes rows already returned by the first so
// a self-loop appears once.
func (s *Store) EdgesTouching(id string) ([]*models.Edge, error) {
	return s.queryEdges(`
		SELECT `+edgeColumns+` FROM edges WHERE source_id = ?
		UNION ALL
		SELECT `+edgeColumns+` FROM edges WHERE target_id = ? AND source_id != ?
	`, id, id, id)
}

// AllEdges returns every edge row in a stable order.
func (s *Store) AllEdges() ([]*models.Edge, error) {
	return s.queryEdges("SELECT " + edgeColumns + " FROM edges ORDER BY source_id, target_id, edge_type")
}

// EdgeCountFor returns how many edges touch the node.
func (s *Store) EdgeCountFor(id string) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM edges WHERE source_id = ? OR target_id = ?", id, id).Scan(&n)
	return n, err
}

// EdgeCountsByNode returns incident-edge counts for every node that has
// edges.
func (s *Store) EdgeCountsByNode() (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT node_id, SUM(n) FROM (
			SELECT source_id AS node_id, COUNT(*) AS n FROM edges GROUP BY source_id
			UNION ALL
			SELECT target_id AS node_id, COUNT(*) AS n FROM edges GROUP BY target_id
		) GROUP BY node_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// CountEdgesByType returns edge totals grouped by layer.
func (s *Store) CountEdgesByType() (map[string]int, error) {
	rows, err := s.db.Query("SELECT edge_type, COUNT(*) FROM edges GROUP BY edge_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// InsightsSharingEntity returns ids of active insights whose entity list
// contains the exact entity, newest first.
func (s *Store) InsightsSharingEntity(entity, excludeID string, limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT i.id FROM insights i, json_each(i.entities) je
		WHERE je.value = ? AND i.deleted_at IS NULL AND i.id != ?
		ORDER BY i.created_at DESC, i.rowid DESC LIMIT ?
	`, entity, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EntityShare ranks an insight by how many query entities it mentions.
type EntityShare struct {
	ID     string
	Shared int
}

// SharedEntityCounts ranks active insights by how many of the given
// entities appear in their entity lists, most shared first, newer first on
// ties.
func (s *Store) SharedEntityCounts(entities []string, limit int) ([]EntityShare, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	sqlq := `
		SELECT i.id, COUNT(DISTINCT je.value) AS shared
		FROM insights i, json_each(i.entities) je
		WHERE i.deleted_at IS NULL AND je.value IN (` + placeholders(len(entities)) + `)
		GROUP BY i.id
		ORDER BY shared DESC, i.created_at DESC, i.rowid DESC
		LIMIT ?`
	args := []any{}
	for _, e := range entities {
		args = append(args, e)
	}
	args = append(args, limit)

	rows, err := s.db.Query(sqlq, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []EntityShare
	for rows.Next() {
		var es EntityShare
		if err := rows.Scan(&es.ID, &es.Shared); err != nil {
			return nil, err
		}
		shares = append(shares, es)
	}
	return shares, rows.Err()
}
