package memory

import (
	"errors"
	"testing"

	"github.com/mnemon/mnemon/internal/store"
)

func TestStatus(t *testing.T) {
	svc, s := newTestService(t, nil)
	remember(t, svc, "quartz marble granite basalt", func(r *RememberRequest) {
		r.Category = "decision"
	})
	remember(t, svc, "pebble boulder shale flint")

	st, err := svc.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.TotalInsights != 2 || st.DeletedInsights != 0 {
		t.Errorf("counts = %d/%d, want 2 active 0 deleted", st.TotalInsights, st.DeletedInsights)
	}
	if st.ByCategory["decision"] != 1 || st.ByCategory["general"] != 1 {
		t.Errorf("by_category = %v", st.ByCategory)
	}
	if st.EdgeCount != 2 {
		t.Errorf("edge count = %d, want the backbone pair", st.EdgeCount)
	}
	if st.DBPath != s.Path() {
		t.Errorf("db_path = %q, want %q", st.DBPath, s.Path())
	}
	if st.DBSizeBytes <= 0 {
		t.Errorf("db_size_bytes = %d, want positive", st.DBSizeBytes)
	}
	if st.OllamaAvailable {
		t.Error("ollama_available = true with the null embedder")
	}
	if st.OplogCount != 2 {
		t.Errorf("oplog count = %d, want 2 remember entries", st.OplogCount)
	}
}

func TestEmbeddingCoverage(t *testing.T) {
	fe := &fakeEmbedder{up: true, vecs: map[string][]float64{
		"quartz marble granite": {1, 0},
	}}
	svc, _ := newTestService(t, fe)

	cov, err := svc.EmbeddingCoverage()
	if err != nil {
		t.Fatalf("coverage: %v", err)
	}
	if cov.TotalInsights != 0 || cov.Coverage != "0%" {
		t.Errorf("empty store coverage = %+v", cov)
	}

	remember(t, svc, "quartz marble granite")
	remember(t, svc, "pebble boulder shale")

	cov, err = svc.EmbeddingCoverage()
	if err != nil {
		t.Fatal(err)
	}
	if cov.TotalInsights != 2 || cov.Embedded != 1 || cov.Coverage != "50%" {
		t.Errorf("coverage = %+v, want 1 of 2 at 50%%", cov)
	}
	if !cov.OllamaAvailable || cov.Model != "fake-embed" {
		t.Errorf("provider fields = %+v", cov)
	}
}

func TestEmbedBackfill(t *testing.T) {
	fe := &fakeEmbedder{up: true, vecs: map[string][]float64{}}
	svc, s := newTestService(t, fe)
	remember(t, svc, "quartz marble granite")
	remember(t, svc, "pebble boulder shale")

	fe.vecs["quartz marble granite"] = []float64{1, 0}
	res, err := svc.EmbedBackfill()
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if res.Status != "backfill_complete" || res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("backfill = %+v, want one success one failure", res)
	}
	if res.Model != "fake-embed" {
		t.Errorf("model = %q", res.Model)
	}

	fe.vecs["pebble boulder shale"] = []float64{0, 1}
	res, err = svc.EmbedBackfill()
	if err != nil {
		t.Fatal(err)
	}
	if res.Succeeded != 1 || res.Failed != 0 {
		t.Errorf("second backfill = %+v", res)
	}

	res, err = svc.EmbedBackfill()
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != "complete" || res.Message == "" {
		t.Errorf("third backfill = %+v, want complete with message", res)
	}

	n, err := s.CountEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("embedded count = %d, want 2", n)
	}
}

func TestEmbedBackfillUnavailable(t *testing.T) {
	svc, _ := newTestService(t, nil)
	if _, err := svc.EmbedBackfill(); !errors.Is(err, ErrEmbedderUnavailable) {
		t.Errorf("backfill without provider = %v, want ErrEmbedderUnavailable", err)
	}
}

func TestEmbedOne(t *testing.T) {
	fe := &fakeEmbedder{up: true, vecs: map[string][]float64{}}
	svc, s := newTestService(t, fe)
	ins := remember(t, svc, "quartz marble granite")
	if ins.Embedded {
		t.Fatal("insight embedded before a vector existed")
	}

	fe.vecs["quartz marble granite"] = []float64{0.6, 0.8}
	res, err := svc.EmbedOne(ins.ID)
	if err != nil {
		t.Fatalf("embed one: %v", err)
	}
	if res.Status != "embedded" || res.ID != ins.ID || res.Dimension != 2 {
		t.Errorf("result = %+v", res)
	}

	n, err := s.CountEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("embedded count = %d, want 1", n)
	}

	if _, err := svc.EmbedOne("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("embed missing id = %v, want ErrNotFound", err)
	}
}
