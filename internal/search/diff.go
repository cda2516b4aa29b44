package search

import (
	"strings"

	"github.com/mnemon/mnemon/internal/embedding"
	"github.com/mnemon/mnemon/pkg/models"
)

// Actions the diff engine can recommend for new content.
const (
	DiffAdd     = "added"
	DiffReplace = "replaced"
	DiffSkip    = "skipped"
)

// Advisory relationship labels attached to the diff result.
const (
	SuggestAdd       = "ADD"
	SuggestUpdate    = "UPDATE"
	SuggestConflict  = "CONFLICT"
	SuggestDuplicate = "DUPLICATE"
)

const (
	diffSkipThreshold    = 0.90
	diffReplaceThreshold = 0.65
	cosineOverride       = 0.70
)

// negationWords signal that new content contradicts rather than repeats
// prior content.
var negationWords = []string{
	"not", "no longer", "don't", "doesn't", "never",
	"switched from", "instead of", "rather than", "replaced", "deprecated",
}

// DiffResult describes how new content relates to the closest existing
// insight.
type DiffResult struct {
	Action       string
	Suggestion   string
	MatchID      string
	MatchContent string
	Similarity   float64
}

// Diff compares new content against every active insight and decides
// whether to add it, replace the closest prior insight, or skip the write
// as a duplicate. Token overlap scores each pair; when a cosine score is
// available, at least 0.7, and higher than the token score, cosine is
// authoritative. embeds maps insight id to stored vector and may be nil.
func Diff(insights []*models.Insight, newContent string, newEmbedding []float64, embeds map[string][]float64) DiffResult {
	best := DiffResult{Action: DiffAdd, Suggestion: SuggestAdd}
	for _, ins := range insights {
		sim := ContentSimilarity(newContent, ins.Content)
		if newEmbedding != nil {
			if vec, ok := embeds[ins.ID]; ok {
				if cs := embedding.Cosine(newEmbedding, vec); cs >= cosineOverride && cs > sim {
					sim = cs
				}
			}
		}
		if sim > best.Similarity {
			best.Similarity = sim
			best.MatchID = ins.ID
			best.MatchContent = ins.Content
		}
	}

	switch {
	case best.Similarity > diffSkipThreshold:
		best.Action = DiffSkip
		best.Suggestion = SuggestDuplicate
	case best.Similarity >= diffReplaceThreshold:
		best.Action = DiffReplace
		if hasNegation(newContent) || hasNegation(best.MatchContent) {
			best.Suggestion = SuggestConflict
		} else {
			best.Suggestion = SuggestUpdate
		}
	default:
		best.Action = DiffAdd
		best.Suggestion = SuggestAdd
		best.MatchID = ""
		best.MatchContent = ""
	}
	return best
}

func hasNegation(text string) bool {
	lower := strings.ToLower(text)
	for _, neg := range negationWords {
		if strings.Contains(lower, neg) {
			return true
		}
	}
	return false
}
