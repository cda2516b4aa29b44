package memory

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mnemon/mnemon/internal/embedding"
	"github.com/mnemon/mnemon/internal/search"
	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

// fakeEmbedder serves canned vectors keyed by exact text. Unknown text
// embeds to nothing, which the pipeline treats as a silent failure.
type fakeEmbedder struct {
	up   bool
	vecs map[string][]float64
}

func (f *fakeEmbedder) Available() bool { return f.up }

func (f *fakeEmbedder) Embed(text string) ([]float64, error) {
	return f.vecs[text], nil
}

func (f *fakeEmbedder) Model() string { return "fake-embed" }

func newTestService(t *testing.T, e embedding.Embedder) (*Service, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "mnemon.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewService(s, e), s
}

func remember(t *testing.T, svc *Service, content string, mutate ...func(*RememberRequest)) *RememberResult {
	t.Helper()
	req := RememberRequest{Content: content, Importance: 3}
	for _, m := range mutate {
		m(&req)
	}
	res, err := svc.Remember(req)
	if err != nil {
		t.Fatalf("remember %q: %v", content, err)
	}
	return res
}

func TestRememberValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)

	cases := []struct {
		name string
		req  RememberRequest
		want string
	}{
		{
			name: "content too long",
			req:  RememberRequest{Content: strings.Repeat("x", 8001), Importance: 3},
			want: "content too long (8001 chars, max 8000)",
		},
		{
			name: "invalid category",
			req:  RememberRequest{Content: "ok", Category: "musing", Importance: 3},
			want: `invalid category "musing"; valid: preference, decision, fact, insight, context, general`,
		},
		{
			name: "importance zero",
			req:  RememberRequest{Content: "ok"},
			want: "importance must be 1-5, got 0",
		},
		{
			name: "importance six",
			req:  RememberRequest{Content: "ok", Importance: 6},
			want: "importance must be 1-5, got 6",
		},
		{
			name: "tag too long",
			req:  RememberRequest{Content: "ok", Importance: 3, Tags: []string{strings.Repeat("t", 101)}},
			want: "tag too long (101 chars, max 100)",
		},
		{
			name: "too many tags",
			req:  RememberRequest{Content: "ok", Importance: 3, Tags: make([]string, 21)},
			want: "too many tags (21, max 20)",
		},
		{
			name: "entity too long",
			req:  RememberRequest{Content: "ok", Importance: 3, Entities: []string{strings.Repeat("e", 201)}},
			want: "entity too long (201 chars, max 200)",
		},
		{
			name: "too many entities",
			req:  RememberRequest{Content: "ok", Importance: 3, Entities: make([]string, 51)},
			want: "too many entities (51, max 50)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Remember(tc.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !IsInputError(err) {
				t.Errorf("error %v is not an InputError", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err.Error(), tc.want)
			}
		})
	}
}

func TestRememberBoundaryContentAccepted(t *testing.T) {
	svc, _ := newTestService(t, nil)
	res := remember(t, svc, strings.Repeat("y", 8000))
	if res.Action != search.DiffAdd {
		t.Errorf("action = %q, want added", res.Action)
	}
}

func TestRememberDefaults(t *testing.T) {
	svc, s := newTestService(t, nil)
	res := remember(t, svc, "team retro moved to fridays")
	if res.Category != models.CategoryGeneral {
		t.Errorf("category = %s, want general", res.Category)
	}
	got, err := s.GetInsight(res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != "user" {
		t.Errorf("source = %q, want user", got.Source)
	}
}

func TestRememberSkipDuplicate(t *testing.T) {
	svc, s := newTestService(t, nil)
	first := remember(t, svc, "quartz marble granite basalt slate")

	second := remember(t, svc, "quartz marble granite basalt slate")
	if second.Action != search.DiffSkip {
		t.Fatalf("action = %q, want skipped", second.Action)
	}
	if second.DiffSuggestion != search.SuggestDuplicate {
		t.Errorf("suggestion = %q, want DUPLICATE", second.DiffSuggestion)
	}
	if second.ReplacedID != first.ID {
		t.Errorf("replaced_id = %q, want %q", second.ReplacedID, first.ID)
	}
	if second.ID == first.ID {
		t.Error("skip must still mint a fresh id for the attempt")
	}

	n, err := s.CountActive()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("active count = %d, want 1 after skip", n)
	}

	ops, err := s.RecentOps(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 || ops[0].Op != "diff-skip" {
		t.Fatalf("newest op = %+v, want diff-skip", ops)
	}
	if !strings.Contains(ops[0].Detail, first.ID) {
		t.Errorf("diff-skip detail = %q, want duplicate pointer to %s", ops[0].Detail, first.ID)
	}
}

func TestRememberReplace(t *testing.T) {
	svc, s := newTestService(t, nil)
	old := remember(t, svc, "quartz marble granite basalt slate gravel pumice obsidian shale flint")

	res := remember(t, svc, "quartz marble granite basalt slate gravel pumice obsidian pebble boulder")
	if res.Action != search.DiffReplace {
		t.Fatalf("action = %q, want replaced", res.Action)
	}
	if res.DiffSuggestion != search.SuggestUpdate {
		t.Errorf("suggestion = %q, want UPDATE", res.DiffSuggestion)
	}
	if res.ReplacedID != old.ID {
		t.Errorf("replaced_id = %q, want %q", res.ReplacedID, old.ID)
	}

	if _, err := s.GetInsight(old.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("old insight lookup = %v, want ErrNotFound after replace", err)
	}
	if _, err := s.GetInsight(res.ID); err != nil {
		t.Errorf("new insight missing: %v", err)
	}

	ops, err := s.RecentOps(5)
	if err != nil {
		t.Fatal(err)
	}
	var sawReplace bool
	for _, op := range ops {
		if op.Op == "diff-replace" && op.InsightID == old.ID {
			sawReplace = true
		}
	}
	if !sawReplace {
		t.Error("no diff-replace op recorded against the replaced insight")
	}
}

func TestRememberConflictSuggestion(t *testing.T) {
	svc, _ := newTestService(t, nil)
	remember(t, svc, "quartz marble granite basalt slate gravel pumice obsidian shale flint")

	res := remember(t, svc, "quartz marble granite basalt slate gravel pumice obsidian is not anymore useful")
	if res.Action != search.DiffReplace {
		t.Fatalf("action = %q, want replaced", res.Action)
	}
	if res.DiffSuggestion != search.SuggestConflict {
		t.Errorf("suggestion = %q, want CONFLICT on negated overlap", res.DiffSuggestion)
	}
}

func TestRememberNoDiff(t *testing.T) {
	svc, s := newTestService(t, nil)
	remember(t, svc, "quartz marble granite basalt slate")
	res := remember(t, svc, "quartz marble granite basalt slate", func(r *RememberRequest) {
		r.NoDiff = true
	})
	if res.Action != search.DiffAdd {
		t.Fatalf("action = %q, want added under no-diff", res.Action)
	}
	n, err := s.CountActive()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("active count = %d, want 2", n)
	}
}

func TestRememberQualityWarnings(t *testing.T) {
	svc, _ := newTestService(t, nil)
	res := remember(t, svc, "all 14 checks verified on line 212")
	if len(res.QualityWarnings) < 2 {
		t.Fatalf("warnings = %v, want verification receipt and line number reference", res.QualityWarnings)
	}
}

func TestRememberEmbedPersistsVector(t *testing.T) {
	fe := &fakeEmbedder{up: true, vecs: map[string][]float64{
		"quartz marble granite": {1, 0},
	}}
	svc, s := newTestService(t, fe)

	res := remember(t, svc, "quartz marble granite")
	if !res.Embedded {
		t.Fatal("embedded = false, want vector persisted")
	}
	n, err := s.CountEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("embedded count = %d, want 1", n)
	}
}

func TestRememberCosineSkip(t *testing.T) {
	fe := &fakeEmbedder{up: true, vecs: map[string][]float64{
		"quartz marble granite": {1, 0},
		"pebble boulder shale":  {1, 0},
	}}
	svc, s := newTestService(t, fe)

	first := remember(t, svc, "quartz marble granite")
	second := remember(t, svc, "pebble boulder shale")
	if second.Action != search.DiffSkip {
		t.Fatalf("action = %q, want cosine-driven skip despite zero token overlap", second.Action)
	}
	if second.ReplacedID != first.ID {
		t.Errorf("replaced_id = %q, want %q", second.ReplacedID, first.ID)
	}
	n, err := s.CountActive()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("active count = %d, want 1", n)
	}
}

func TestRememberSemanticAutoLink(t *testing.T) {
	fe := &fakeEmbedder{up: true, vecs: map[string][]float64{
		"quartz marble granite": {1, 0},
		"pebble boulder shale":  {0.8, 0.6},
	}}
	svc, s := newTestService(t, fe)

	remember(t, svc, "quartz marble granite")
	res := remember(t, svc, "pebble boulder shale", func(r *RememberRequest) { r.NoDiff = true })

	if res.EdgesCreated.Semantic != 2 {
		t.Errorf("semantic edges = %d, want bidirectional pair at cosine 0.80", res.EdgesCreated.Semantic)
	}
	if res.EdgesCreated.Temporal != 2 {
		t.Errorf("temporal edges = %d, want backbone pair", res.EdgesCreated.Temporal)
	}
	if len(res.SemanticCandidates) != 0 {
		t.Errorf("candidates = %v, want none once the peer is auto-linked", res.SemanticCandidates)
	}
	edges, err := s.EdgeCountFor(res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if edges != 4 {
		t.Errorf("edge count = %d, want 4", edges)
	}
}

func TestRememberEffectiveImportance(t *testing.T) {
	svc, _ := newTestService(t, nil)
	res := remember(t, svc, "retention scoring sanity", func(r *RememberRequest) {
		r.Importance = 5
		r.Category = "decision"
	})
	if math.Abs(res.EffectiveImportance-1.0) > 1e-9 {
		t.Errorf("effective importance = %v, want 1.0 for a fresh importance-5 insight", res.EffectiveImportance)
	}
}

func TestRememberOplogEntry(t *testing.T) {
	svc, s := newTestService(t, nil)
	res := remember(t, svc, "audit trail check")

	ops, err := s.RecentOps(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 {
		t.Fatal("no oplog entry after remember")
	}
	if ops[0].Op != "remember" || ops[0].InsightID != res.ID || ops[0].Detail != "audit trail check" {
		t.Errorf("op = %+v, want remember with content detail", ops[0])
	}
}
