package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mnemon/mnemon/pkg/models"
)

// tokenGrid builds content with n distinct non-stopword tokens so tests
// can pin exact Jaccard values.
func tokenGrid(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("alpha%02d", i)
	}
	return strings.Join(parts, " ")
}

func TestDiffEmpty(t *testing.T) {
	got := Diff(nil, "anything new", nil, nil)
	if got.Action != DiffAdd || got.Suggestion != SuggestAdd {
		t.Fatalf("empty store diff = %+v, want add", got)
	}
	if got.MatchID != "" {
		t.Errorf("unexpected match id %q", got.MatchID)
	}
}

func TestDiffSkipBand(t *testing.T) {
	existing := testInsight("User prefers PostgreSQL for analytics", 3)
	got := Diff([]*models.Insight{existing}, "User prefers PostgreSQL for analytics", nil, nil)
	if got.Action != DiffSkip {
		t.Fatalf("action = %s, want skipped", got.Action)
	}
	if got.Suggestion != SuggestDuplicate {
		t.Errorf("suggestion = %s, want DUPLICATE", got.Suggestion)
	}
	if got.MatchID != existing.ID {
		t.Errorf("match id = %q, want %q", got.MatchID, existing.ID)
	}
	if got.Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", got.Similarity)
	}
}

func TestDiffReplaceBand(t *testing.T) {
	existing := testInsight("User prefers PostgreSQL for analytics workloads", 3)
	got := Diff([]*models.Insight{existing},
		"User prefers PostgreSQL for transactional workloads", nil, nil)
	if got.Action != DiffReplace {
		t.Fatalf("action = %s (sim %v), want replaced", got.Action, got.Similarity)
	}
	if got.Suggestion != SuggestUpdate {
		t.Errorf("suggestion = %s, want UPDATE", got.Suggestion)
	}
	if got.MatchID != existing.ID {
		t.Errorf("match id = %q, want existing insight", got.MatchID)
	}
}

func TestDiffConflictNegation(t *testing.T) {
	existing := testInsight("User prefers PostgreSQL for analytics workloads", 3)
	got := Diff([]*models.Insight{existing},
		"User no longer prefers PostgreSQL for analytics workloads", nil, nil)
	if got.Action != DiffReplace {
		t.Fatalf("action = %s (sim %v), want replaced", got.Action, got.Similarity)
	}
	if got.Suggestion != SuggestConflict {
		t.Errorf("suggestion = %s, want CONFLICT", got.Suggestion)
	}
}

func TestDiffConflictNegationInExisting(t *testing.T) {
	existing := testInsight("Team don't deploy on Fridays normally", 3)
	got := Diff([]*models.Insight{existing}, "Team deploy on Fridays normally", nil, nil)
	if got.Action != DiffReplace {
		t.Fatalf("action = %s (sim %v), want replaced", got.Action, got.Similarity)
	}
	if got.Suggestion != SuggestConflict {
		t.Errorf("suggestion = %s, want CONFLICT", got.Suggestion)
	}
}

func TestDiffAddBand(t *testing.T) {
	existing := testInsight("User prefers PostgreSQL for analytics", 3)
	got := Diff([]*models.Insight{existing}, "Deployment cadence moved weekly", nil, nil)
	if got.Action != DiffAdd || got.Suggestion != SuggestAdd {
		t.Fatalf("diff = %+v, want add", got)
	}
	if got.MatchID != "" {
		t.Errorf("add band should clear match id, got %q", got.MatchID)
	}
}

func TestDiffBandBoundaries(t *testing.T) {
	existing := testInsight(tokenGrid(20), 3)

	// 13 of 20 shared tokens: Jaccard exactly 0.65, the replace floor.
	got := Diff([]*models.Insight{existing}, tokenGrid(13), nil, nil)
	if got.Action != DiffReplace {
		t.Errorf("sim 0.65 action = %s, want replaced", got.Action)
	}

	// 18 of 20: exactly 0.90 stays in the replace band.
	got = Diff([]*models.Insight{existing}, tokenGrid(18), nil, nil)
	if got.Action != DiffReplace {
		t.Errorf("sim 0.90 action = %s, want replaced", got.Action)
	}

	// 19 of 20: 0.95 crosses into skip.
	got = Diff([]*models.Insight{existing}, tokenGrid(19), nil, nil)
	if got.Action != DiffSkip {
		t.Errorf("sim 0.95 action = %s, want skipped", got.Action)
	}

	// 12 of 20: 0.60 falls back to add.
	got = Diff([]*models.Insight{existing}, tokenGrid(12), nil, nil)
	if got.Action != DiffAdd {
		t.Errorf("sim 0.60 action = %s, want added", got.Action)
	}
}

func TestDiffCosineOverride(t *testing.T) {
	existing := testInsight("alpha beta", 3)
	embeds := map[string][]float64{existing.ID: {1, 0}}

	// No token overlap, cosine 1.0 takes over: duplicate.
	got := Diff([]*models.Insight{existing}, "gamma delta", []float64{1, 0}, embeds)
	if got.Action != DiffSkip {
		t.Fatalf("cosine 1.0 action = %s, want skipped", got.Action)
	}
	if got.Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", got.Similarity)
	}

	// Cosine 0.8 lands in the replace band.
	embeds[existing.ID] = []float64{0.8, 0.6}
	got = Diff([]*models.Insight{existing}, "gamma delta", []float64{1, 0}, embeds)
	if got.Action != DiffReplace {
		t.Errorf("cosine 0.8 action = %s (sim %v), want replaced", got.Action, got.Similarity)
	}

	// Cosine 0.5 sits below the override floor and is ignored.
	embeds[existing.ID] = []float64{0.5, 0.8660254037844386}
	got = Diff([]*models.Insight{existing}, "gamma delta", []float64{1, 0}, embeds)
	if got.Action != DiffAdd {
		t.Errorf("cosine 0.5 action = %s (sim %v), want added", got.Action, got.Similarity)
	}
}

func TestDiffNoEmbeddingForMatch(t *testing.T) {
	existing := testInsight("User prefers PostgreSQL", 3)
	// Query embedding present but the stored insight has none cached.
	got := Diff([]*models.Insight{existing}, "User prefers PostgreSQL", []float64{1, 0}, map[string][]float64{})
	if got.Action != DiffSkip {
		t.Fatalf("token-only path action = %s, want skipped", got.Action)
	}
}
