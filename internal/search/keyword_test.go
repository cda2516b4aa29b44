package search

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mnemon/mnemon/pkg/models"
)

func testInsight(content string, importance int) *models.Insight {
	now := models.Now()
	return &models.Insight{
		ID:         uuid.NewString(),
		Content:    content,
		Category:   models.CategoryFact,
		Importance: importance,
		Source:     "manual",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The API is RESTful")
	if len(got) != 2 {
		t.Fatalf("Tokenize returned %d tokens, want 2: %v", len(got), got)
	}
	for _, want := range []string{"api", "restful"} {
		if _, ok := got[want]; !ok {
			t.Errorf("missing token %q", want)
		}
	}
	if got := Tokenize(""); len(got) != 0 {
		t.Errorf("empty input produced tokens: %v", got)
	}
	if got := Tokenize("the is a of"); len(got) != 0 {
		t.Errorf("stopword-only input produced tokens: %v", got)
	}
}

func TestSetJaccard(t *testing.T) {
	a := map[string]struct{}{"x": {}, "y": {}}
	b := map[string]struct{}{"y": {}, "z": {}}
	if got := SetJaccard(a, a); got != 1.0 {
		t.Errorf("identical sets = %v, want 1.0", got)
	}
	if got := SetJaccard(a, b); got != 1.0/3.0 {
		t.Errorf("half overlap = %v, want 1/3", got)
	}
	empty := map[string]struct{}{}
	if got := SetJaccard(a, empty); got != 0 {
		t.Errorf("empty set = %v, want 0", got)
	}
	if got := SetJaccard(empty, empty); got != 0 {
		t.Errorf("both empty = %v, want 0", got)
	}
}

func TestContentSimilarity(t *testing.T) {
	got := ContentSimilarity(
		"User prefers PostgreSQL",
		"User prefers PostgreSQL as the primary DB")
	if got != 3.0/5.0 {
		t.Errorf("similarity = %v, want 0.6", got)
	}
	if got := ContentSimilarity("red green", "blue yellow"); got != 0 {
		t.Errorf("disjoint similarity = %v, want 0", got)
	}
}

func TestInsightTokens(t *testing.T) {
	ins := testInsight("Redis backs the cache", 3)
	ins.Tags = []string{"infra"}
	ins.Entities = []string{"Redis", "MemCluster"}
	toks := InsightTokens(ins)
	for _, want := range []string{"redis", "cache", "infra", "memcluster"} {
		if _, ok := toks[want]; !ok {
			t.Errorf("missing token %q in %v", want, toks)
		}
	}
}

func TestKeywordSearch(t *testing.T) {
	full := testInsight("Redis is the cache layer", 3)
	partial := testInsight("Redis cache", 3)
	miss := testInsight("Nothing relevant here", 3)
	insights := []*models.Insight{miss, partial, full}

	cache := make(map[string]map[string]struct{})
	matches := KeywordSearch(insights, "redis cache layer", 10, cache)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2 (zero scores excluded)", len(matches))
	}
	if matches[0].Insight.ID != full.ID {
		t.Errorf("top match = %q, want full overlap insight", matches[0].Insight.Content)
	}
	if matches[0].Score != 1.0 {
		t.Errorf("top score = %v, want 1.0", matches[0].Score)
	}
	if matches[1].Score != 2.0/3.0 {
		t.Errorf("partial score = %v, want 2/3", matches[1].Score)
	}
	if _, ok := cache[full.ID]; !ok {
		t.Error("token cache not populated for scored insight")
	}
}

func TestKeywordSearchImportanceTiebreak(t *testing.T) {
	low := testInsight("Redis cache", 2)
	high := testInsight("Redis cache", 5)
	matches := KeywordSearch([]*models.Insight{low, high}, "redis cache", 10, nil)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Insight.ID != high.ID {
		t.Error("equal scores should rank higher importance first")
	}
}

func TestKeywordSearchLimit(t *testing.T) {
	var insights []*models.Insight
	for i := 0; i < 5; i++ {
		insights = append(insights, testInsight("shared topic words", 3))
	}
	matches := KeywordSearch(insights, "shared topic", 2, nil)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want limit 2", len(matches))
	}
}
