package memory

import (
	"fmt"

	"github.com/mnemon/mnemon/internal/graph"
	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

// Forget soft-deletes an insight and drops every edge touching it.
func (s *Service) Forget(id string) error {
	if err := s.store.SoftDeleteInsight(id); err != nil {
		return err
	}
	s.store.AppendOp("forget", id, "")
	return nil
}

// KeepResult reports an explicit retention boost.
type KeepResult struct {
	Status              string  `json:"status"`
	ID                  string  `json:"id"`
	Content             string  `json:"content"`
	NewAccess           int     `json:"new_access"`
	EffectiveImportance float64 `json:"effective_importance"`
	Immune              bool    `json:"immune"`
}

// Keep bumps the access counter by three, which carries the insight
// over the immunity line, then refreshes its effective importance.
func (s *Service) Keep(id string) (*KeepResult, error) {
	in, err := s.store.GetInsight(id)
	if err != nil {
		return nil, err
	}
	if err := s.store.BumpAccess(id, 3); err != nil {
		return nil, err
	}
	ei, err := s.store.RefreshEffectiveImportance(id, models.Now())
	if err != nil {
		return nil, err
	}

	boosted := *in
	boosted.AccessCount += 3
	s.store.AppendOp("gc-keep", id, fmt.Sprintf("access+3, ei=%.4f", ei))
	return &KeepResult{
		Status:              "retained",
		ID:                  id,
		Content:             in.Content,
		NewAccess:           boosted.AccessCount,
		EffectiveImportance: ei,
		Immune:              boosted.IsImmune(),
	}, nil
}

// ReviewResult lists decay candidates for a human to purge or keep.
type ReviewResult struct {
	TotalInsights   int                        `json:"total_insights"`
	Threshold       float64                    `json:"threshold"`
	CandidatesFound int                        `json:"candidates_found"`
	Candidates      []store.RetentionCandidate `json:"candidates"`
	MaxInsights     int                        `json:"max_insights"`
	Actions         map[string]string          `json:"actions"`
}

// Review refreshes effective importance across the active set and
// returns the lowest-scoring prunable insights under threshold.
func (s *Service) Review(threshold float64, limit int) (*ReviewResult, error) {
	cands, total, err := s.store.RetentionCandidates(threshold, limit, models.Now())
	if err != nil {
		return nil, err
	}
	return &ReviewResult{
		TotalInsights:   total,
		Threshold:       threshold,
		CandidatesFound: len(cands),
		Candidates:      cands,
		MaxInsights:     store.MaxActiveInsights,
		Actions: map[string]string{
			"purge": "mnemon forget <id>",
			"keep":  "mnemon gc --keep <id>",
		},
	}, nil
}

// LinkRequest names two insights to connect in both directions.
type LinkRequest struct {
	SourceID string
	TargetID string
	EdgeType string
	Weight   float64
	Metadata map[string]any
}

// LinkResult echoes the stored edge.
type LinkResult struct {
	Status   string          `json:"status"`
	SourceID string          `json:"source_id"`
	TargetID string          `json:"target_id"`
	EdgeType models.EdgeType `json:"edge_type"`
	Weight   float64         `json:"weight"`
	Metadata map[string]any  `json:"metadata"`
}

// Link upserts a manual edge in both directions between two active
// insights. Relinking the same pair overwrites weight and metadata.
func (s *Service) Link(req LinkRequest) (*LinkResult, error) {
	et := models.EdgeType(req.EdgeType)
	if !et.Valid() {
		return nil, inputErrorf("invalid edge type %q", req.EdgeType)
	}
	if req.Weight < 0 || req.Weight > 1 {
		return nil, inputErrorf("weight must be between 0.0 and 1.0")
	}
	if req.SourceID == req.TargetID {
		return nil, inputErrorf("cannot link an insight to itself")
	}
	if _, err := s.store.GetInsight(req.SourceID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetInsight(req.TargetID); err != nil {
		return nil, err
	}

	meta := req.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	meta["created_by"] = "manual"

	now := models.Now()
	forward := &models.Edge{
		SourceID: req.SourceID, TargetID: req.TargetID,
		EdgeType: et, Weight: req.Weight, Metadata: meta, CreatedAt: now,
	}
	back := &models.Edge{
		SourceID: req.TargetID, TargetID: req.SourceID,
		EdgeType: et, Weight: req.Weight, Metadata: meta, CreatedAt: now,
	}
	if err := s.store.UpsertEdge(forward); err != nil {
		return nil, err
	}
	if err := s.store.UpsertEdge(back); err != nil {
		return nil, err
	}

	s.store.AppendOp("link", req.SourceID,
		fmt.Sprintf("%s <-> %s (%s)", req.SourceID, req.TargetID, et))
	return &LinkResult{
		Status:   "linked",
		SourceID: req.SourceID,
		TargetID: req.TargetID,
		EdgeType: et,
		Weight:   req.Weight,
		Metadata: meta,
	}, nil
}

// RelatedEntry is one node reached by graph traversal.
type RelatedEntry struct {
	ID          string          `json:"id"`
	Content     string          `json:"content"`
	Category    models.Category `json:"category"`
	Importance  int             `json:"importance"`
	Depth       int             `json:"depth"`
	ViaEdgeType models.EdgeType `json:"via_edge_type,omitempty"`
}

// Related walks the edge graph breadth-first from a start insight,
// optionally restricted to one edge type. The start must exist and be
// active.
func (s *Service) Related(id, edgeType string, depth int) ([]RelatedEntry, error) {
	if _, err := s.store.GetInsight(id); err != nil {
		return nil, err
	}
	var filter models.EdgeType
	if edgeType != "" {
		filter = models.EdgeType(edgeType)
		if !filter.Valid() {
			return nil, inputErrorf("invalid edge type %q", edgeType)
		}
	}

	nodes, err := graph.BFS(s.store, id, graph.BFSOptions{MaxDepth: depth, EdgeFilter: filter})
	if err != nil {
		return nil, err
	}
	entries := make([]RelatedEntry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, RelatedEntry{
			ID:          n.Insight.ID,
			Content:     n.Insight.Content,
			Category:    n.Insight.Category,
			Importance:  n.Insight.Importance,
			Depth:       n.Hop,
			ViaEdgeType: n.ViaEdge,
		})
	}
	return entries, nil
}
