package graph

import (
	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

// EdgeCounts reports edge rows written per layer while storing one
// insight.
type EdgeCounts struct {
	Temporal int `json:"temporal"`
	Entity   int `json:"entity"`
	Causal   int `json:"causal"`
	Semantic int `json:"semantic"`
}

// Synthesize merges extracted entities into the insight and runs the
// four edge builders in temporal, entity, causal, semantic order. The
// insight's entity list is updated in place; persisting it is the
// caller's job. embeds may be nil when no vectors are available.
func Synthesize(s *store.Store, in *models.Insight, embeds map[string][]float64) (EdgeCounts, error) {
	in.Entities = MergeEntities(in.Entities, ExtractEntities(in.Content))

	var counts EdgeCounts
	var err error
	if counts.Temporal, err = TemporalEdges(s, in); err != nil {
		return counts, err
	}
	if counts.Entity, err = EntityEdges(s, in); err != nil {
		return counts, err
	}
	if counts.Causal, err = CausalEdges(s, in); err != nil {
		return counts, err
	}
	if counts.Semantic, err = SemanticEdges(s, in, embeds); err != nil {
		return counts, err
	}
	return counts, nil
}

// Total sums the per-layer counts.
func (c EdgeCounts) Total() int {
	return c.Temporal + c.Entity + c.Causal + c.Semantic
}
