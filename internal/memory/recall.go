package memory

import (
	"fmt"

	"github.com/mnemon/mnemon/internal/graph"
	"github.com/mnemon/mnemon/internal/search"
	"github.com/mnemon/mnemon/pkg/models"
)

// RecallRequest carries one retrieval. Intent is an optional override
// such as "WHY"; Category and Source only filter the basic path.
type RecallRequest struct {
	Query    string
	Limit    int
	Intent   string
	Category string
	Source   string
}

// Recall runs the intent-aware pipeline and bumps the access counter
// of every returned insight by one.
func (s *Service) Recall(req RecallRequest) (*models.RecallResponse, error) {
	var override models.Intent
	if req.Intent != "" {
		parsed, err := search.ParseIntent(req.Intent)
		if err != nil {
			return nil, &InputError{Msg: err.Error()}
		}
		override = parsed
	}

	var vec []float64
	if s.embedder.Available() {
		if v, err := s.embedder.Embed(req.Query); err == nil && len(v) > 0 {
			vec = v
		}
	}

	resp, err := search.Recall(s.store, search.RecallOptions{
		Query:          req.Query,
		QueryVec:       vec,
		QueryEntities:  graph.ExtractEntities(req.Query),
		Limit:          req.Limit,
		IntentOverride: override,
	})
	if err != nil {
		return nil, err
	}

	for _, r := range resp.Results {
		if err := s.store.BumpAccess(r.Insight.ID, 1); err != nil {
			return nil, err
		}
	}
	s.store.AppendOp("recall", "", fmt.Sprintf("q=%s hits=%d", req.Query, len(resp.Results)))
	return resp, nil
}

// BasicRecall is the plain substring path with optional category and
// source filters. Hits get the same access bump as smart recall.
func (s *Service) BasicRecall(req RecallRequest) ([]*models.Insight, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = search.DefaultRecallLimit
	}
	results, err := s.store.BasicSearch(req.Query, req.Category, req.Source, limit)
	if err != nil {
		return nil, err
	}
	for _, in := range results {
		if err := s.store.BumpAccess(in.ID, 1); err != nil {
			return nil, err
		}
	}
	s.store.AppendOp("recall:basic", "", fmt.Sprintf("q=%s hits=%d", req.Query, len(results)))
	return results, nil
}

// SearchRow is one keyword hit in the shape the search command prints.
type SearchRow struct {
	ID         string          `json:"id"`
	Content    string          `json:"content"`
	Category   models.Category `json:"category"`
	Importance int             `json:"importance"`
	Tags       []string        `json:"tags"`
	Score      float64         `json:"score"`
}

// Search scores active insights by query token coverage and bumps the
// access counter of every hit.
func (s *Service) Search(query string, limit int) ([]SearchRow, error) {
	if limit <= 0 {
		limit = search.DefaultRecallLimit
	}
	actives, err := s.store.AllActive()
	if err != nil {
		return nil, err
	}
	matches := search.KeywordSearch(actives, query, limit, nil)

	rows := make([]SearchRow, 0, len(matches))
	for _, m := range matches {
		if err := s.store.BumpAccess(m.Insight.ID, 1); err != nil {
			return nil, err
		}
		rows = append(rows, SearchRow{
			ID:         m.Insight.ID,
			Content:    m.Insight.Content,
			Category:   m.Insight.Category,
			Importance: m.Insight.Importance,
			Tags:       m.Insight.Tags,
			Score:      m.Score,
		})
	}
	s.store.AppendOp("search", "", fmt.Sprintf("q=%s hits=%d", query, len(rows)))
	return rows, nil
}
