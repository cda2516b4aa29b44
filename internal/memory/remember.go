package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mnemon/mnemon/internal/graph"
	"github.com/mnemon/mnemon/internal/search"
	"github.com/mnemon/mnemon/pkg/models"
)

const (
	maxContentBytes = 8000
	maxTagBytes     = 100
	maxTags         = 20
	maxEntityBytes  = 200
	maxEntities     = 50
)

// RememberRequest carries one write. An empty Category or Source falls
// back to general and user; Importance must be set by the caller.
type RememberRequest struct {
	Content    string
	Category   string
	Importance int
	Tags       []string
	Entities   []string
	Source     string
	NoDiff     bool
}

// RememberResult reports what the write pipeline did. On a skipped
// write only the identity, action, and diff fields are meaningful;
// ReplacedID names the duplicate.
type RememberResult struct {
	ID                  string                    `json:"id"`
	Content             string                    `json:"content"`
	Category            models.Category           `json:"category"`
	Importance          int                       `json:"importance"`
	Tags                []string                  `json:"tags"`
	Entities            []string                  `json:"entities"`
	Action              string                    `json:"action"`
	DiffSuggestion      string                    `json:"diff_suggestion"`
	CreatedAt           time.Time                 `json:"created_at"`
	EdgesCreated        graph.EdgeCounts          `json:"edges_created"`
	SemanticCandidates  []graph.SemanticCandidate `json:"semantic_candidates"`
	CausalCandidates    []graph.CausalCandidate   `json:"causal_candidates"`
	QualityWarnings     []string                  `json:"quality_warnings"`
	Embedded            bool                      `json:"embedded"`
	EffectiveImportance float64                   `json:"effective_importance"`
	AutoPruned          int                       `json:"auto_pruned"`
	ReplacedID          string                    `json:"replaced_id,omitempty"`
}

func validCategoryList() string {
	parts := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ", ")
}

// insight validates the request and builds the row to insert.
func (r RememberRequest) insight() (*models.Insight, error) {
	if len(r.Content) > maxContentBytes {
		return nil, inputErrorf(
			"content too long (%d chars, max %d); consider chunking into multiple remember calls",
			len(r.Content), maxContentBytes)
	}

	cat := models.Category(r.Category)
	if r.Category == "" {
		cat = models.CategoryGeneral
	}
	if !cat.Valid() {
		return nil, inputErrorf("invalid category %q; valid: %s", r.Category, validCategoryList())
	}

	if r.Importance < 1 || r.Importance > 5 {
		return nil, inputErrorf("importance must be 1-5, got %d", r.Importance)
	}

	for _, tag := range r.Tags {
		if len(tag) > maxTagBytes {
			return nil, inputErrorf("tag too long (%d chars, max %d): %.50s", len(tag), maxTagBytes, tag)
		}
	}
	if len(r.Tags) > maxTags {
		return nil, inputErrorf("too many tags (%d, max %d)", len(r.Tags), maxTags)
	}

	for _, ent := range r.Entities {
		if len(ent) > maxEntityBytes {
			return nil, inputErrorf("entity too long (%d chars, max %d): %.50s", len(ent), maxEntityBytes, ent)
		}
	}
	if len(r.Entities) > maxEntities {
		return nil, inputErrorf("too many entities (%d, max %d)", len(r.Entities), maxEntities)
	}

	source := r.Source
	if source == "" {
		source = "user"
	}

	now := models.Now()
	return &models.Insight{
		ID:         uuid.NewString(),
		Content:    r.Content,
		Category:   cat,
		Importance: r.Importance,
		Tags:       r.Tags,
		Entities:   r.Entities,
		Source:     source,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Remember runs the full write pipeline: diff against the active set,
// soft-delete on replace, insert, embedding persist, edge synthesis,
// effective-importance refresh, and auto-prune, all inside one
// transaction. Candidate discovery runs after commit because it only
// reads.
func (s *Service) Remember(req RememberRequest) (*RememberResult, error) {
	in, err := req.insight()
	if err != nil {
		return nil, err
	}

	available := s.embedder.Available()

	var vec []float64
	if available {
		if v, embErr := s.embedder.Embed(in.Content); embErr == nil && len(v) > 0 {
			vec = v
		}
	}

	var embeds map[string][]float64
	if available {
		cache, cacheErr := s.store.EmbedCache()
		if cacheErr != nil {
			return nil, cacheErr
		}
		if len(cache) > 0 {
			embeds = cache
		}
	}

	action := search.DiffAdd
	suggestion := search.SuggestAdd
	matchID := ""
	if !req.NoDiff {
		actives, listErr := s.store.AllActive()
		if listErr != nil {
			return nil, listErr
		}
		d := search.Diff(actives, in.Content, vec, embeds)
		action, suggestion, matchID = d.Action, d.Suggestion, d.MatchID
	}

	warnings := search.CheckContentQuality(in.Content)

	if action == search.DiffSkip {
		s.store.AppendOp("diff-skip", in.ID, fmt.Sprintf("duplicate of %s", matchID))
		return &RememberResult{
			ID:                 in.ID,
			Content:            in.Content,
			Category:           in.Category,
			Importance:         in.Importance,
			Tags:               in.Tags,
			Entities:           in.Entities,
			Action:             action,
			DiffSuggestion:     suggestion,
			CreatedAt:          in.CreatedAt,
			SemanticCandidates: []graph.SemanticCandidate{},
			CausalCandidates:   []graph.CausalCandidate{},
			QualityWarnings:    warnings,
			ReplacedID:         matchID,
		}, nil
	}

	var (
		counts   graph.EdgeCounts
		ei       float64
		pruned   int
		embedded bool
	)
	err = s.store.InTx(func() error {
		if action == search.DiffReplace && matchID != "" {
			if delErr := s.store.SoftDeleteInsight(matchID); delErr != nil {
				return delErr
			}
			s.store.AppendOp("diff-replace", matchID, fmt.Sprintf("replaced by %s", in.ID))
			delete(embeds, matchID)
		}

		if insErr := s.store.InsertInsight(in); insErr != nil {
			return insErr
		}

		if vec != nil {
			if upErr := s.store.UpdateEmbedding(in.ID, vec); upErr != nil {
				return upErr
			}
			embedded = true
			if embeds == nil {
				embeds = make(map[string][]float64, 1)
			}
			embeds[in.ID] = vec
		}

		var synthErr error
		counts, synthErr = graph.Synthesize(s.store, in, embeds)
		if synthErr != nil {
			return synthErr
		}
		if len(in.Entities) > 0 {
			if entErr := s.store.UpdateEntities(in.ID, in.Entities); entErr != nil {
				return entErr
			}
		}

		now := models.Now()
		if refErr := s.store.RefreshAllEffectiveImportance(now); refErr != nil {
			return refErr
		}
		fresh, getErr := s.store.GetInsight(in.ID)
		if getErr != nil {
			return getErr
		}
		ei = fresh.EffectiveImportance

		var pruneErr error
		pruned, pruneErr = s.store.AutoPrune([]string{in.ID})
		if pruneErr != nil {
			return pruneErr
		}

		s.store.AppendOp("remember", in.ID, in.Content)
		return nil
	})
	if err != nil {
		return nil, err
	}

	semCands, err := graph.SemanticCandidates(s.store, in, embeds)
	if err != nil {
		return nil, err
	}
	causCands, err := graph.CausalCandidates(s.store, in)
	if err != nil {
		return nil, err
	}

	res := &RememberResult{
		ID:                  in.ID,
		Content:             in.Content,
		Category:            in.Category,
		Importance:          in.Importance,
		Tags:                in.Tags,
		Entities:            in.Entities,
		Action:              action,
		DiffSuggestion:      suggestion,
		CreatedAt:           in.CreatedAt,
		EdgesCreated:        counts,
		SemanticCandidates:  semCands,
		CausalCandidates:    causCands,
		QualityWarnings:     warnings,
		Embedded:            embedded,
		EffectiveImportance: ei,
		AutoPruned:          pruned,
	}
	if action == search.DiffReplace {
		res.ReplacedID = matchID
	}
	return res, nil
}
