package graph

import (
	"fmt"
	"sort"

	"github.com/mnemon/mnemon/internal/embedding"
	"github.com/mnemon/mnemon/internal/search"
	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

// Cosine thresholds for the semantic layer. Auto-links need strong
// similarity; the review band below it only surfaces candidates.
const (
	AutoSemanticThreshold   = 0.80
	ReviewSemanticThreshold = 0.40

	minSemanticSimilarity = 0.10
	maxSemanticCandidates = 5
	maxAutoSemanticEdges  = 3
)

type scoredID struct {
	id  string
	sim float64
}

func sortScored(scored []scoredID) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].sim != scored[j].sim {
			return scored[i].sim > scored[j].sim
		}
		return scored[i].id < scored[j].id
	})
}

// SemanticEdges links the new insight bidirectionally to its nearest
// embedded neighbors at cosine 0.80 or above, best three, weight =
// cosine. Without an embedding for the new insight nothing is created.
// embeds may be nil, in which case the cache is loaded here.
func SemanticEdges(s *store.Store, in *models.Insight, embeds map[string][]float64) (int, error) {
	if embeds == nil {
		var err error
		if embeds, err = s.EmbedCache(); err != nil {
			return 0, err
		}
	}
	vec, ok := embeds[in.ID]
	if !ok {
		return 0, nil
	}

	var scored []scoredID
	for id, other := range embeds {
		if id == in.ID {
			continue
		}
		if sim := embedding.Cosine(vec, other); sim >= AutoSemanticThreshold {
			scored = append(scored, scoredID{id, sim})
		}
	}
	if len(scored) == 0 {
		return 0, nil
	}
	sortScored(scored)
	if len(scored) > maxAutoSemanticEdges {
		scored = scored[:maxAutoSemanticEdges]
	}

	now := models.Now()
	count := 0
	for _, sp := range scored {
		meta := map[string]any{"cosine": fmt.Sprintf("%.4f", sp.sim)}
		for _, pair := range [][2]string{{in.ID, sp.id}, {sp.id, in.ID}} {
			err := s.UpsertEdge(&models.Edge{
				SourceID: pair[0], TargetID: pair[1], EdgeType: models.EdgeSemantic,
				Weight: sp.sim, Metadata: meta, CreatedAt: now,
			})
			if err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// SemanticCandidate is an advisory near-miss: similar enough to review,
// not similar enough to auto-link.
type SemanticCandidate struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Cosine     float64 `json:"cosine"`
	AutoLinked bool    `json:"auto_linked"`
}

// SemanticCandidates returns active insights with cosine in the review
// band [0.40, 0.80), best five. When no embedding exists for the new
// insight it falls back to token overlap at 0.10 or above, reported in
// the same shape.
func SemanticCandidates(s *store.Store, in *models.Insight, embeds map[string][]float64) ([]SemanticCandidate, error) {
	if embeds == nil {
		var err error
		if embeds, err = s.EmbedCache(); err != nil {
			return nil, err
		}
	}
	if vec, ok := embeds[in.ID]; ok {
		var scored []scoredID
		for id, other := range embeds {
			if id == in.ID {
				continue
			}
			sim := embedding.Cosine(vec, other)
			if sim >= ReviewSemanticThreshold && sim < AutoSemanticThreshold {
				scored = append(scored, scoredID{id, sim})
			}
		}
		sortScored(scored)
		if len(scored) > maxSemanticCandidates {
			scored = scored[:maxSemanticCandidates]
		}
		candidates := []SemanticCandidate{}
		for _, sp := range scored {
			ins, err := s.GetInsight(sp.id)
			if err != nil {
				continue
			}
			candidates = append(candidates, SemanticCandidate{
				ID: ins.ID, Content: ins.Content, Cosine: sp.sim,
			})
		}
		return candidates, nil
	}

	actives, err := s.AllActive()
	if err != nil {
		return nil, err
	}
	var scored []scoredID
	simByID := make(map[string]*models.Insight)
	for _, other := range actives {
		if other.ID == in.ID {
			continue
		}
		if sim := search.ContentSimilarity(in.Content, other.Content); sim >= minSemanticSimilarity {
			scored = append(scored, scoredID{other.ID, sim})
			simByID[other.ID] = other
		}
	}
	sortScored(scored)
	if len(scored) > maxSemanticCandidates {
		scored = scored[:maxSemanticCandidates]
	}
	candidates := []SemanticCandidate{}
	for _, sp := range scored {
		candidates = append(candidates, SemanticCandidate{
			ID: sp.id, Content: simByID[sp.id].Content, Cosine: sp.sim,
		})
	}
	return candidates, nil
}
