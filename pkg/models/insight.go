package models

import (
	"math"
	"time"
)

// Category classifies what kind of knowledge an insight carries
type Category string

const (
	CategoryPreference Category = "preference"
	CategoryDecision   Category = "decision"
	CategoryFact       Category = "fact"
	CategoryInsight    Category = "insight"
	CategoryContext    Category = "context"
	CategoryGeneral    Category = "general"
)

// Categories lists every valid category, in display order.
func Categories() []Category {
	return []Category{
		CategoryPreference,
		CategoryDecision,
		CategoryFact,
		CategoryInsight,
		CategoryContext,
		CategoryGeneral,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPreference, CategoryDecision, CategoryFact, CategoryInsight,
		CategoryContext, CategoryGeneral:
		return true
	}
	return false
}

// EdgeType identifies which graph layer an edge belongs to
type EdgeType string

const (
	EdgeTemporal EdgeType = "temporal"
	EdgeEntity   EdgeType = "entity"
	EdgeCausal   EdgeType = "causal"
	EdgeSemantic EdgeType = "semantic"
)

// EdgeTypes lists every valid edge type.
func EdgeTypes() []EdgeType {
	return []EdgeType{EdgeTemporal, EdgeEntity, EdgeCausal, EdgeSemantic}
}

// Valid reports whether t is a known edge type.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeTemporal, EdgeEntity, EdgeCausal, EdgeSemantic:
		return true
	}
	return false
}

// Intent is the detected or declared shape of a recall query
type Intent string

const (
	IntentWhy     Intent = "WHY"
	IntentWhen    Intent = "WHEN"
	IntentEntity  Intent = "ENTITY"
	IntentGeneral Intent = "GENERAL"
)

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	switch i {
	case IntentWhy, IntentWhen, IntentEntity, IntentGeneral:
		return true
	}
	return false
}

// Insight is a single durable piece of remembered information
type Insight struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	Category    Category   `json:"category"`
	Importance  int        `json:"importance"`
	Tags        []string   `json:"tags"`
	Entities    []string   `json:"entities"`
	Source      string     `json:"source"`
	AccessCount int        `json:"access_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Not part of the public shape
	LastAccessedAt       *time.Time `json:"-"`
	Embedding            []float64  `json:"-"`
	EffectiveImportance  float64    `json:"-"`
}

// BaseWeight maps importance to the starting weight used by
// effective-importance scoring.
func (i *Insight) BaseWeight() float64 {
	switch i.Importance {
	case 5:
		return 1.0
	case 4:
		return 0.8
	case 3:
		return 0.5
	case 2:
		return 0.3
	default:
		return 0.15
	}
}

// IsImmune reports whether the insight is protected from pruning.
// High importance or repeated access both confer immunity.
func (i *Insight) IsImmune() bool {
	return i.Importance >= 4 || i.AccessCount >= 3
}

// EffectiveWeight computes the retention score:
// base * frequency(access) * recency-decay * connectivity.
func (i *Insight) EffectiveWeight(now time.Time, edgeCount int) float64 {
	ref := i.CreatedAt
	if i.LastAccessedAt != nil {
		ref = *i.LastAccessedAt
	}
	days := now.Sub(ref).Hours() / 24.0
	if days < 0 {
		days = 0
	}
	freq := math.Log(1.0 + float64(i.AccessCount))
	if freq < 1.0 {
		freq = 1.0
	}
	decay := math.Pow(0.5, days/30.0)
	conn := edgeCount
	if conn > 5 {
		conn = 5
	}
	return i.BaseWeight() * freq * decay * (1.0 + 0.1*float64(conn))
}

// Edge is one directed row in the typed graph. Bidirectional links are
// stored as two rows.
type Edge struct {
	SourceID  string         `json:"source_id"`
	TargetID  string         `json:"target_id"`
	EdgeType  EdgeType       `json:"edge_type"`
	Weight    float64        `json:"weight"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// Now returns the current UTC time at second precision, the resolution
// every stored timestamp uses.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// RecallSignals are the reranking components attached to each result.
type RecallSignals struct {
	Keyword    float64 `json:"keyword"`
	Entity     float64 `json:"entity"`
	Similarity float64 `json:"similarity"`
	Graph      float64 `json:"graph"`
}

// RecallResult is one scored insight in a recall response.
type RecallResult struct {
	Insight *Insight      `json:"insight"`
	Score   float64       `json:"score"`
	Intent  Intent        `json:"intent"`
	Signals RecallSignals `json:"signals"`
	Via     string        `json:"via,omitempty"`
}

// RecallMeta describes how a recall was answered.
type RecallMeta struct {
	Intent       Intent `json:"intent"`
	IntentSource string `json:"intent_source"`
	AnchorCount  int    `json:"anchor_count"`
	Traversed    int    `json:"traversed"`
	Hint         string `json:"hint,omitempty"`
}

// RecallResponse is the full answer to an intent-aware recall.
type RecallResponse struct {
	Results []RecallResult `json:"results"`
	Meta    RecallMeta     `json:"meta"`
}
