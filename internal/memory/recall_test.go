package memory

import (
	"strings"
	"testing"

	"github.com/mnemon/mnemon/pkg/models"
)

func TestRecallBumpsAccess(t *testing.T) {
	svc, s := newTestService(t, nil)
	hit := remember(t, svc, "deploy window shifted to evenings")
	remember(t, svc, "sprint planning moved tuesdays")

	resp, err := svc.Recall(RecallRequest{Query: "deploy window"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("no results for a keyword match")
	}
	if resp.Results[0].Insight.ID != hit.ID {
		t.Errorf("top result = %q, want the keyword match first", resp.Results[0].Insight.Content)
	}
	if resp.Meta.IntentSource != "detected" {
		t.Errorf("intent_source = %q, want detected", resp.Meta.IntentSource)
	}
	if resp.Meta.Intent != models.IntentGeneral {
		t.Errorf("intent = %s, want GENERAL", resp.Meta.Intent)
	}

	for _, r := range resp.Results {
		got, err := s.GetInsight(r.Insight.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.AccessCount != 1 {
			t.Errorf("access count for %q = %d, want 1 after recall", got.Content, got.AccessCount)
		}
	}

	ops, err := s.RecentOps(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Op != "recall" {
		t.Fatalf("newest op = %+v, want recall", ops)
	}
	if !strings.Contains(ops[0].Detail, "q=deploy window") {
		t.Errorf("recall detail = %q, want query echo", ops[0].Detail)
	}
}

func TestRecallEmptyStore(t *testing.T) {
	svc, _ := newTestService(t, nil)
	resp, err := svc.Recall(RecallRequest{Query: "anything at all"})
	if err != nil {
		t.Fatalf("recall on empty store: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %d, want none", len(resp.Results))
	}
	if resp.Meta.Hint != "sparse_results" {
		t.Errorf("hint = %q, want sparse_results", resp.Meta.Hint)
	}
}

func TestRecallIntentOverride(t *testing.T) {
	svc, _ := newTestService(t, nil)
	remember(t, svc, "outage traced to dns caching")

	resp, err := svc.Recall(RecallRequest{Query: "dns caching", Intent: "why"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if resp.Meta.Intent != models.IntentWhy {
		t.Errorf("intent = %s, want WHY", resp.Meta.Intent)
	}
	if resp.Meta.IntentSource != "override" {
		t.Errorf("intent_source = %q, want override", resp.Meta.IntentSource)
	}

	_, err = svc.Recall(RecallRequest{Query: "dns caching", Intent: "SOMEDAY"})
	if err == nil {
		t.Fatal("expected error for unknown intent")
	}
	if !IsInputError(err) {
		t.Errorf("error %v is not an InputError", err)
	}
	if !strings.Contains(err.Error(), "unknown intent") {
		t.Errorf("error = %q, want unknown intent message", err.Error())
	}
}

func TestBasicRecallFilters(t *testing.T) {
	svc, s := newTestService(t, nil)
	hit := remember(t, svc, "postgres chosen for the ledger", func(r *RememberRequest) {
		r.Category = "decision"
	})
	remember(t, svc, "sprint retro moved to fridays")

	results, err := svc.BasicRecall(RecallRequest{Query: "postgres", Category: "decision"})
	if err != nil {
		t.Fatalf("basic recall: %v", err)
	}
	if len(results) != 1 || results[0].ID != hit.ID {
		t.Fatalf("results = %v, want the decision insight only", results)
	}

	results, err = svc.BasicRecall(RecallRequest{Query: "postgres", Source: "daemon"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("source filter returned %d results, want 0", len(results))
	}

	got, err := s.GetInsight(hit.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessCount != 1 {
		t.Errorf("access count = %d, want 1 after one basic hit", got.AccessCount)
	}

	ops, err := s.RecentOps(5)
	if err != nil {
		t.Fatal(err)
	}
	var sawBasic bool
	for _, op := range ops {
		if op.Op == "recall:basic" {
			sawBasic = true
		}
	}
	if !sawBasic {
		t.Error("no recall:basic op recorded")
	}
}

func TestSearchRows(t *testing.T) {
	svc, s := newTestService(t, nil)
	hit := remember(t, svc, "deploy window shifted to evenings", func(r *RememberRequest) {
		r.Tags = []string{"ops"}
	})
	remember(t, svc, "sprint planning moved tuesdays")

	rows, err := svc.Search("deploy window", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].ID != hit.ID || rows[0].Score != 1.0 {
		t.Errorf("row = %+v, want full query coverage on the hit", rows[0])
	}
	if len(rows[0].Tags) != 1 || rows[0].Tags[0] != "ops" {
		t.Errorf("tags = %v, want [ops]", rows[0].Tags)
	}

	got, err := s.GetInsight(hit.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessCount != 1 {
		t.Errorf("access count = %d, want 1 after search", got.AccessCount)
	}

	ops, err := s.RecentOps(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 || ops[0].Op != "search" {
		t.Fatalf("newest op = %+v, want search", ops)
	}
}
