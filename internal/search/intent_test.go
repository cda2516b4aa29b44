package search

import (
	"math"
	"strings"
	"testing"

	"github.com/mnemon/mnemon/pkg/models"
)

func TestDetectIntent(t *testing.T) {
	cases := []struct {
		query string
		want  models.Intent
	}{
		{"Why did we choose Qdrant", models.IntentWhy},
		{"what is the reason for the outage", models.IntentWhy},
		{"WHY IS THIS BROKEN", models.IntentWhy},
		{"为什么选择这个方案", models.IntentWhy},
		{"When did the migration happen", models.IntentWhen},
		{"show me the deployment history", models.IntentWhen},
		{"什么时候上线", models.IntentWhen},
		{"Tell me about the payment service", models.IntentEntity},
		{"who is the service owner", models.IntentEntity},
		{"关于支付服务", models.IntentEntity},
		{"list current facts", models.IntentGeneral},
		{"", models.IntentGeneral},
	}
	for _, tc := range cases {
		if got := DetectIntent(tc.query); got != tc.want {
			t.Errorf("DetectIntent(%q) = %s, want %s", tc.query, got, tc.want)
		}
	}
}

func TestDetectIntentFirstMatchWins(t *testing.T) {
	// "reason" (WHY) and "about" (ENTITY) both present; WHY is checked first.
	if got := DetectIntent("tell me about the reason"); got != models.IntentWhy {
		t.Errorf("got %s, want WHY", got)
	}
	// "timeline" (WHEN) and "describe" (ENTITY); WHEN is checked first.
	if got := DetectIntent("describe the release timeline"); got != models.IntentWhen {
		t.Errorf("got %s, want WHEN", got)
	}
}

func TestParseIntent(t *testing.T) {
	got, err := ParseIntent("why")
	if err != nil {
		t.Fatalf("ParseIntent(why): %v", err)
	}
	if got != models.IntentWhy {
		t.Errorf("got %s, want WHY", got)
	}
	if _, err := ParseIntent(" general "); err != nil {
		t.Errorf("padded intent rejected: %v", err)
	}
	_, err = ParseIntent("bogus")
	if err == nil {
		t.Fatal("expected error for unknown intent")
	}
	if !strings.Contains(err.Error(), "unknown intent") {
		t.Errorf("error = %q, want mention of unknown intent", err)
	}
}

func TestIntentEdgeWeights(t *testing.T) {
	w := IntentEdgeWeights(models.IntentWhy)
	if w[models.EdgeCausal] != 0.70 {
		t.Errorf("WHY causal weight = %v, want 0.70", w[models.EdgeCausal])
	}
	for _, intent := range []models.Intent{
		models.IntentWhy, models.IntentWhen, models.IntentEntity, models.IntentGeneral,
	} {
		sum := 0.0
		for _, v := range IntentEdgeWeights(intent) {
			sum += v
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("%s edge weights sum to %v, want 1.0", intent, sum)
		}
	}
}

func TestIntentBeamParams(t *testing.T) {
	p := IntentBeamParams(models.IntentWhy)
	if p.BeamWidth != 15 || p.MaxDepth != 5 || p.MaxVisited != 500 {
		t.Errorf("WHY params = %+v", p)
	}
	p = IntentBeamParams(models.IntentGeneral)
	if p.BeamWidth != 10 || p.MaxDepth != 4 || p.MaxVisited != 500 {
		t.Errorf("GENERAL params = %+v", p)
	}
}

func TestIntentRerankWeights(t *testing.T) {
	w := IntentRerankWeights(models.IntentWhy, true)
	if w.Keyword != 0.10 || w.Entity != 0.10 || w.Similarity != 0.30 || w.Graph != 0.50 {
		t.Errorf("WHY with embedding = %+v", w)
	}

	w = IntentRerankWeights(models.IntentWhy, false)
	if w.Similarity != 0 {
		t.Errorf("similarity weight not zeroed: %v", w.Similarity)
	}
	if math.Abs(w.Keyword-0.20) > 1e-9 || math.Abs(w.Graph-0.70) > 1e-9 {
		t.Errorf("WHY redistribution = %+v, want kw 0.20, graph 0.70", w)
	}
	sum := w.Keyword + w.Entity + w.Similarity + w.Graph
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("redistributed weights sum to %v, want 1.0", sum)
	}
}
