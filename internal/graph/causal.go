package graph

import (
	"regexp"

	"github.com/mnemon/mnemon/internal/search"
	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

const (
	minCausalOverlap    = 0.15
	causalLookback      = 10
	maxCausalCandidates = 10
)

var causalPattern = regexp.MustCompile(
	`(?i)\b(because|therefore|due to|caused by|as a result|decided to|` +
		`chosen because|so that|in order to|leads to|results in|` +
		`enables|prevents|consequently|hence|thus)\b|` +
		`\bthis (ensures|means)\b`)

var (
	enablesPattern  = regexp.MustCompile(`(?i)\b(so that|in order to|enables|leads to)\b`)
	preventsPattern = regexp.MustCompile(`(?i)\b(despite|prevented|prevents|blocked)\b`)
)

// CausalSignal returns the first causal keyword in the text, or "".
func CausalSignal(text string) string {
	return causalPattern.FindString(text)
}

func suggestSubType(text string) string {
	if preventsPattern.MatchString(text) {
		return "prevents"
	}
	if enablesPattern.MatchString(text) {
		return "enables"
	}
	return "causes"
}

// tokenOverlap is the intersection size relative to the smaller set.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	inter := 0
	for k := range small {
		if _, ok := big[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(small))
}

// CausalEdges scans the 10 most recent active insights and links those
// sharing at least 15% of the smaller token set with the new insight,
// when either side carries a causal keyword. The keyword bearer becomes
// the edge source; weight is the overlap ratio.
func CausalEdges(s *store.Store, in *models.Insight) (int, error) {
	recent, err := s.RecentActive(causalLookback, in.ID)
	if err != nil {
		return 0, err
	}
	if len(recent) == 0 {
		return 0, nil
	}
	newTokens := search.Tokenize(in.Content)
	if len(newTokens) == 0 {
		return 0, nil
	}

	newSignal := CausalSignal(in.Content)
	now := models.Now()
	count := 0
	for _, prev := range recent {
		prevSignal := CausalSignal(prev.Content)
		if newSignal == "" && prevSignal == "" {
			continue
		}
		overlap := tokenOverlap(newTokens, search.Tokenize(prev.Content))
		if overlap < minCausalOverlap {
			continue
		}

		sourceID, targetID, reason := in.ID, prev.ID, newSignal
		if newSignal == "" {
			sourceID, targetID, reason = prev.ID, in.ID, prevSignal
		}
		err := s.UpsertEdge(&models.Edge{
			SourceID: sourceID, TargetID: targetID, EdgeType: models.EdgeCausal,
			Weight: overlap,
			Metadata: map[string]any{
				"sub_type": suggestSubType(in.Content + " " + prev.Content),
				"reason":   reason,
			},
			CreatedAt: now,
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// CausalCandidate is an advisory near-graph insight that may deserve an
// explicit causal link.
type CausalCandidate struct {
	ID               string          `json:"id"`
	Content          string          `json:"content"`
	Hop              int             `json:"hop"`
	ViaEdge          models.EdgeType `json:"via_edge"`
	CausalSignal     string          `json:"causal_signal"`
	SuggestedSubType string          `json:"suggested_sub_type"`
}

// CausalCandidates walks two hops out from the insight along any edge
// type and keeps reached nodes that pass the same overlap and keyword
// gate used for automatic causal edges, capped at 10.
func CausalCandidates(s *store.Store, in *models.Insight) ([]CausalCandidate, error) {
	nodes, err := BFS(s, in.ID, BFSOptions{MaxDepth: 2})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return []CausalCandidate{}, nil
	}

	newTokens := search.Tokenize(in.Content)
	newSignal := CausalSignal(in.Content)

	candidates := []CausalCandidate{}
	for _, n := range nodes {
		if len(candidates) >= maxCausalCandidates {
			break
		}
		signal := CausalSignal(n.Insight.Content)
		if newSignal == "" && signal == "" {
			continue
		}
		if tokenOverlap(newTokens, search.Tokenize(n.Insight.Content)) < minCausalOverlap {
			continue
		}
		if signal == "" {
			signal = newSignal
		}
		candidates = append(candidates, CausalCandidate{
			ID:               n.Insight.ID,
			Content:          n.Insight.Content,
			Hop:              n.Hop,
			ViaEdge:          n.ViaEdge,
			CausalSignal:     signal,
			SuggestedSubType: suggestSubType(in.Content + " " + n.Insight.Content),
		})
	}
	return candidates, nil
}
