package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mnemon/mnemon/pkg/models"
)

// Intent trigger families. English triggers are word-bounded; the Chinese
// triggers match as plain substrings since \b has no meaning there.
var (
	whyRe = regexp.MustCompile(
		`(?i)\b(why|reason|because|cause|motivation|rationale)\b|为什么|原因|理由`)
	whenRe = regexp.MustCompile(
		`(?i)\b(when|time|date|before|after|during|timeline|history|sequence)\b|什么时候|何时|时间`)
	entityRe = regexp.MustCompile(
		`(?i)\b(what is|who is|tell me about|describe|about)\b|是什么|谁是|关于`)
)

// DetectIntent classifies a query. Families are checked in WHY, WHEN,
// ENTITY order and the first match wins.
func DetectIntent(query string) models.Intent {
	switch {
	case whyRe.MatchString(query):
		return models.IntentWhy
	case whenRe.MatchString(query):
		return models.IntentWhen
	case entityRe.MatchString(query):
		return models.IntentEntity
	default:
		return models.IntentGeneral
	}
}

// ParseIntent validates a caller-supplied intent override.
func ParseIntent(s string) (models.Intent, error) {
	intent := models.Intent(strings.ToUpper(strings.TrimSpace(s)))
	if !intent.Valid() {
		return "", fmt.Errorf("unknown intent %q; valid: WHY, WHEN, ENTITY, GENERAL", s)
	}
	return intent, nil
}

// IntentEdgeWeights scales each edge type's structural contribution during
// traversal.
func IntentEdgeWeights(intent models.Intent) map[models.EdgeType]float64 {
	switch intent {
	case models.IntentWhy:
		return map[models.EdgeType]float64{
			models.EdgeCausal: 0.70, models.EdgeTemporal: 0.20,
			models.EdgeEntity: 0.05, models.EdgeSemantic: 0.05,
		}
	case models.IntentWhen:
		return map[models.EdgeType]float64{
			models.EdgeCausal: 0.15, models.EdgeTemporal: 0.65,
			models.EdgeEntity: 0.10, models.EdgeSemantic: 0.10,
		}
	case models.IntentEntity:
		return map[models.EdgeType]float64{
			models.EdgeCausal: 0.10, models.EdgeTemporal: 0.05,
			models.EdgeEntity: 0.55, models.EdgeSemantic: 0.30,
		}
	default:
		return map[models.EdgeType]float64{
			models.EdgeCausal: 0.25, models.EdgeTemporal: 0.25,
			models.EdgeEntity: 0.25, models.EdgeSemantic: 0.25,
		}
	}
}

// BeamParams bound the graph traversal for one intent.
type BeamParams struct {
	BeamWidth  int
	MaxDepth   int
	MaxVisited int
}

// IntentBeamParams returns the traversal bounds for an intent. WHY gets a
// wider, deeper search because causal chains are long and sparse.
func IntentBeamParams(intent models.Intent) BeamParams {
	switch intent {
	case models.IntentWhy:
		return BeamParams{BeamWidth: 15, MaxDepth: 5, MaxVisited: 500}
	case models.IntentWhen:
		return BeamParams{BeamWidth: 10, MaxDepth: 5, MaxVisited: 400}
	case models.IntentEntity:
		return BeamParams{BeamWidth: 10, MaxDepth: 4, MaxVisited: 400}
	default:
		return BeamParams{BeamWidth: 10, MaxDepth: 4, MaxVisited: 500}
	}
}

// RerankWeights blend the four re-ranking signals.
type RerankWeights struct {
	Keyword    float64
	Entity     float64
	Similarity float64
	Graph      float64
}

// IntentRerankWeights returns the signal blend for an intent. Without a
// query embedding the similarity weight is redistributed: a third to
// keyword, two thirds to graph.
func IntentRerankWeights(intent models.Intent, hasEmbedding bool) RerankWeights {
	var w RerankWeights
	switch intent {
	case models.IntentWhy:
		w = RerankWeights{Keyword: 0.10, Entity: 0.10, Similarity: 0.30, Graph: 0.50}
	case models.IntentWhen:
		w = RerankWeights{Keyword: 0.15, Entity: 0.15, Similarity: 0.30, Graph: 0.40}
	case models.IntentEntity:
		w = RerankWeights{Keyword: 0.20, Entity: 0.40, Similarity: 0.20, Graph: 0.20}
	default:
		w = RerankWeights{Keyword: 0.25, Entity: 0.25, Similarity: 0.25, Graph: 0.25}
	}
	if !hasEmbedding {
		w.Keyword += w.Similarity / 3.0
		w.Graph += 2.0 * w.Similarity / 3.0
		w.Similarity = 0
	}
	return w
}
