package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mnemon/mnemon/internal/embedding"
	"github.com/mnemon/mnemon/pkg/models"
)

// MaxActiveInsights is the soft capacity that triggers auto-pruning.
const MaxActiveInsights = 1000

// autoPruneBatch caps how many insights one write may prune.
const autoPruneBatch = 10

const insightColumns = `id, content, category, importance, tags, entities, source,
	access_count, created_at, updated_at, deleted_at, last_accessed_at,
	embedding, effective_importance`

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInsight(sc rowScanner) (*models.Insight, error) {
	var in models.Insight
	var tagsJSON, entitiesJSON string
	var createdAt, updatedAt string
	var deletedAt, lastAccessedAt sql.NullString
	var blob []byte
	var ei sql.NullFloat64

	err := sc.Scan(
		&in.ID, &in.Content, &in.Category, &in.Importance,
		&tagsJSON, &entitiesJSON, &in.Source, &in.AccessCount,
		&createdAt, &updatedAt, &deletedAt, &lastAccessedAt,
		&blob, &ei,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(tagsJSON), &in.Tags)
	json.Unmarshal([]byte(entitiesJSON), &in.Entities)
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if in.Entities == nil {
		in.Entities = []string{}
	}
	in.CreatedAt = parseTime(createdAt)
	in.UpdatedAt = parseTime(updatedAt)
	if deletedAt.Valid {
		t := parseTime(deletedAt.String)
		in.DeletedAt = &t
	}
	if lastAccessedAt.Valid {
		t := parseTime(lastAccessedAt.String)
		in.LastAccessedAt = &t
	}
	if len(blob) > 0 {
		in.Embedding = embedding.Decode(blob)
	}
	if ei.Valid {
		in.EffectiveImportance = ei.Float64
	}

	return &in, nil
}

func (s *Store) queryInsights(query string, args ...any) ([]*models.Insight, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []*models.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}

// InsertInsight stores a new insight row.
func (s *Store) InsertInsight(in *models.Insight) error {
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	entities := in.Entities
	if entities == nil {
		entities = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	entitiesJSON, _ := json.Marshal(entities)

	_, err := s.db.Exec(`
		INSERT INTO insights (
			id, content, category, importance, tags, entities, source,
			access_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		in.ID, in.Content, in.Category, in.Importance,
		string(tagsJSON), string(entitiesJSON), in.Source,
		in.AccessCount, formatTime(in.CreatedAt), formatTime(in.UpdatedAt),
	)
	return err
}

// GetInsight returns an active insight by id.
func (s *Store) GetInsight(id string) (*models.Insight, error) {
	row := s.db.QueryRow(
		"SELECT "+insightColumns+" FROM insights WHERE id = ? AND deleted_at IS NULL", id)
	in, err := scanInsight(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("insight %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

// AllActive returns every non-deleted insight, oldest first.
func (s *Store) AllActive() ([]*models.Insight, error) {
	return s.queryInsights(
		"SELECT " + insightColumns + " FROM insights WHERE deleted_at IS NULL ORDER BY created_at ASC, rowid ASC")
}

// RecentActive returns the newest active insights, optionally excluding one
// id.
func (s *Store) RecentActive(limit int, excludeID string) ([]*models.Insight, error) {
	if excludeID != "" {
		return s.queryInsights(`
			SELECT `+insightColumns+` FROM insights
			WHERE deleted_at IS NULL AND id != ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?`, excludeID, limit)
	}
	return s.queryInsights(`
		SELECT `+insightColumns+` FROM insights
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// LatestBySource returns the newest active insight with the given source,
// or nil when none exists.
func (s *Store) LatestBySource(source, excludeID string) (*models.Insight, error) {
	row := s.db.QueryRow(`
		SELECT `+insightColumns+` FROM insights
		WHERE deleted_at IS NULL AND source = ? AND id != ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, source, excludeID)
	in, err := scanInsight(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

// ActiveSince returns active insights created at or after the cutoff,
// newest first.
func (s *Store) ActiveSince(cutoff time.Time, excludeID string, limit int) ([]*models.Insight, error) {
	return s.queryInsights(`
		SELECT `+insightColumns+` FROM insights
		WHERE deleted_at IS NULL AND id != ? AND created_at >= ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		excludeID, formatTime(cutoff), limit)
}

// BasicSearch is a plain substring query with optional category and source
// filters.
func (s *Store) BasicSearch(query, category, source string, limit int) ([]*models.Insight, error) {
	sqlq := "SELECT " + insightColumns + " FROM insights WHERE deleted_at IS NULL AND content LIKE ?"
	args := []any{"%" + query + "%"}
	if category != "" {
		sqlq += " AND category = ?"
		args = append(args, category)
	}
	if source != "" {
		sqlq += " AND source = ?"
		args = append(args, source)
	}
	sqlq += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)
	return s.queryInsights(sqlq, args...)
}

// SoftDeleteInsight marks an insight deleted and hard-deletes every edge
// touching it. Edges from a deleted node would otherwise keep pulling it
// back into traversals.
func (s *Store) SoftDeleteInsight(id string) error {
	now := formatTime(models.Now())
	res, err := s.db.Exec(`
		UPDATE insights SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insight %s: %w", id, ErrNotFound)
	}
	_, err = s.db.Exec("DELETE FROM edges WHERE source_id = ? OR target_id = ?", id, id)
	return err
}

// BumpAccess adds delta to the access counter and stamps the access time.
func (s *Store) BumpAccess(id string, delta int) error {
	res, err := s.db.Exec(`
		UPDATE insights SET access_count = access_count + ?, last_accessed_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		delta, formatTime(models.Now()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("insight %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateEmbedding stores the vector for an insight.
func (s *Store) UpdateEmbedding(id string, vec []float64) error {
	_, err := s.db.Exec("UPDATE insights SET embedding = ? WHERE id = ?", embedding.Encode(vec), id)
	return err
}

// UpdateEntities replaces the entity list on an insight.
func (s *Store) UpdateEntities(id string, entities []string) error {
	if entities == nil {
		entities = []string{}
	}
	entJSON, _ := json.Marshal(entities)
	_, err := s.db.Exec(`
		UPDATE insights SET entities = ?, updated_at = ? WHERE id = ?`,
		string(entJSON), formatTime(models.Now()), id)
	return err
}

// EmbedCache loads every stored vector for active insights.
func (s *Store) EmbedCache() (map[string][]float64, error) {
	rows, err := s.db.Query(
		"SELECT id, embedding FROM insights WHERE deleted_at IS NULL AND embedding IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cache := make(map[string][]float64)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		if vec := embedding.Decode(blob); vec != nil {
			cache[id] = vec
		}
	}
	return cache, rows.Err()
}

// MissingEmbeddings returns active insights that have no stored vector yet.
func (s *Store) MissingEmbeddings(limit int) ([]*models.Insight, error) {
	return s.queryInsights(`
		SELECT `+insightColumns+` FROM insights
		WHERE deleted_at IS NULL AND embedding IS NULL
		ORDER BY created_at ASC, rowid ASC LIMIT ?`, limit)
}

// CountActive returns the number of non-deleted insights.
func (s *Store) CountActive() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM insights WHERE deleted_at IS NULL").Scan(&n)
	return n, err
}

// CountEmbedded returns how many active insights carry a vector.
func (s *Store) CountEmbedded() (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM insights WHERE deleted_at IS NULL AND embedding IS NOT NULL").Scan(&n)
	return n, err
}

// RefreshAllEffectiveImportance recomputes and persists the retention score
// for every active insight.
func (s *Store) RefreshAllEffectiveImportance(now time.Time) error {
	actives, err := s.AllActive()
	if err != nil {
		return err
	}
	counts, err := s.EdgeCountsByNode()
	if err != nil {
		return err
	}
	for _, in := range actives {
		ei := in.EffectiveWeight(now, counts[in.ID])
		if _, err := s.db.Exec(
			"UPDATE insights SET effective_importance = ? WHERE id = ?", ei, in.ID); err != nil {
			return err
		}
	}
	return nil
}

// RefreshEffectiveImportance recomputes the retention score for one insight
// and returns the new value.
func (s *Store) RefreshEffectiveImportance(id string, now time.Time) (float64, error) {
	in, err := s.GetInsight(id)
	if err != nil {
		return 0, err
	}
	edges, err := s.EdgeCountFor(id)
	if err != nil {
		return 0, err
	}
	ei := in.EffectiveWeight(now, edges)
	if _, err := s.db.Exec(
		"UPDATE insights SET effective_importance = ? WHERE id = ?", ei, id); err != nil {
		return 0, err
	}
	return ei, nil
}

// RetentionCandidate is one row in a gc review.
type RetentionCandidate struct {
	ID                  string          `json:"id"`
	Content             string          `json:"content"`
	Category            models.Category `json:"category"`
	Importance          int             `json:"importance"`
	AccessCount         int             `json:"access_count"`
	EffectiveImportance float64         `json:"effective_importance"`
	DaysSinceAccess     float64         `json:"days_since_access"`
	EdgeCount           int             `json:"edge_count"`
	Immune              bool            `json:"immune"`
}

// RetentionCandidates refreshes retention scores and returns the prunable
// insights scoring below threshold, weakest first, along with the active
// total.
func (s *Store) RetentionCandidates(threshold float64, limit int, now time.Time) ([]RetentionCandidate, int, error) {
	if err := s.RefreshAllEffectiveImportance(now); err != nil {
		return nil, 0, err
	}
	total, err := s.CountActive()
	if err != nil {
		return nil, 0, err
	}
	insights, err := s.queryInsights(`
		SELECT `+insightColumns+` FROM insights
		WHERE deleted_at IS NULL AND importance < 4 AND access_count < 3
		  AND effective_importance < ?
		ORDER BY effective_importance ASC, rowid ASC LIMIT ?`, threshold, limit)
	if err != nil {
		return nil, 0, err
	}
	counts, err := s.EdgeCountsByNode()
	if err != nil {
		return nil, 0, err
	}

	candidates := []RetentionCandidate{}
	for _, in := range insights {
		ref := in.CreatedAt
		if in.LastAccessedAt != nil {
			ref = *in.LastAccessedAt
		}
		days := now.Sub(ref).Hours() / 24.0
		if days < 0 {
			days = 0
		}
		candidates = append(candidates, RetentionCandidate{
			ID:                  in.ID,
			Content:             in.Content,
			Category:            in.Category,
			Importance:          in.Importance,
			AccessCount:         in.AccessCount,
			EffectiveImportance: in.EffectiveImportance,
			DaysSinceAccess:     math.Round(days*10) / 10,
			EdgeCount:           counts[in.ID],
			Immune:              in.IsImmune(),
		})
	}
	return candidates, total, nil
}

// AutoPrune soft-deletes the weakest prunable insights when the store is
// over capacity. Returns how many were pruned.
func (s *Store) AutoPrune(excludeIDs []string) (int, error) {
	total, err := s.CountActive()
	if err != nil {
		return 0, err
	}
	if total <= MaxActiveInsights {
		return 0, nil
	}
	n := total - MaxActiveInsights
	if n > autoPruneBatch {
		n = autoPruneBatch
	}

	sqlq := `
		SELECT id FROM insights
		WHERE deleted_at IS NULL AND importance < 4 AND access_count < 3`
	args := []any{}
	if len(excludeIDs) > 0 {
		sqlq += " AND id NOT IN (" + placeholders(len(excludeIDs)) + ")"
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	sqlq += " ORDER BY effective_importance ASC, rowid ASC LIMIT ?"
	args = append(args, n)

	rows, err := s.db.Query(sqlq, args...)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := s.SoftDeleteInsight(id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
