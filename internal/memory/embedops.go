package memory

import (
	"fmt"
	"os"

	"github.com/mnemon/mnemon/internal/store"
)

const backfillBatch = 1000

// StatusResult is the full store health report.
type StatusResult struct {
	*store.Stats
	DBPath          string `json:"db_path"`
	DBSizeBytes     int64  `json:"db_size_bytes"`
	OllamaAvailable bool   `json:"ollama_available"`
}

// Status collects store statistics plus database file size and
// embedding provider reachability.
func (s *Service) Status() (*StatusResult, error) {
	stats, err := s.store.GetStats()
	if err != nil {
		return nil, err
	}
	var size int64
	if fi, statErr := os.Stat(s.store.Path()); statErr == nil {
		size = fi.Size()
	}
	return &StatusResult{
		Stats:           stats,
		DBPath:          s.store.Path(),
		DBSizeBytes:     size,
		OllamaAvailable: s.embedder.Available(),
	}, nil
}

// EmbedStatus reports vector coverage over the active set.
type EmbedStatus struct {
	TotalInsights   int    `json:"total_insights"`
	Embedded        int    `json:"embedded"`
	Coverage        string `json:"coverage"`
	OllamaAvailable bool   `json:"ollama_available"`
	Model           string `json:"model"`
}

// EmbeddingCoverage counts embedded versus total active insights.
func (s *Service) EmbeddingCoverage() (*EmbedStatus, error) {
	total, err := s.store.CountActive()
	if err != nil {
		return nil, err
	}
	embedded, err := s.store.CountEmbedded()
	if err != nil {
		return nil, err
	}
	coverage := "0%"
	if total > 0 {
		coverage = fmt.Sprintf("%d%%", embedded*100/total)
	}
	return &EmbedStatus{
		TotalInsights:   total,
		Embedded:        embedded,
		Coverage:        coverage,
		OllamaAvailable: s.embedder.Available(),
		Model:           s.embedder.Model(),
	}, nil
}

// BackfillResult reports a bulk embedding run.
type BackfillResult struct {
	Status    string `json:"status"`
	Succeeded int    `json:"succeeded,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	Model     string `json:"model,omitempty"`
	Message   string `json:"message,omitempty"`
}

// EmbedBackfill embeds every active insight that lacks a vector.
// Individual failures are counted rather than aborting the run.
func (s *Service) EmbedBackfill() (*BackfillResult, error) {
	if !s.embedder.Available() {
		return nil, fmt.Errorf("%w: %s", ErrEmbedderUnavailable, unavailableDetail(s))
	}
	missing, err := s.store.MissingEmbeddings(backfillBatch)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return &BackfillResult{
			Status:  "complete",
			Message: "all insights already have embeddings",
		}, nil
	}

	succeeded, failed := 0, 0
	for _, in := range missing {
		vec, embErr := s.embedder.Embed(in.Content)
		if embErr != nil || len(vec) == 0 {
			failed++
			continue
		}
		if upErr := s.store.UpdateEmbedding(in.ID, vec); upErr != nil {
			failed++
			continue
		}
		succeeded++
	}
	return &BackfillResult{
		Status:    "backfill_complete",
		Succeeded: succeeded,
		Failed:    failed,
		Model:     s.embedder.Model(),
	}, nil
}

// EmbedOneResult reports a single-insight embedding.
type EmbedOneResult struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Dimension int    `json:"dimension"`
	Model     string `json:"model"`
}

// EmbedOne embeds one insight by id and persists the vector.
func (s *Service) EmbedOne(id string) (*EmbedOneResult, error) {
	if !s.embedder.Available() {
		return nil, fmt.Errorf("%w: %s", ErrEmbedderUnavailable, unavailableDetail(s))
	}
	in, err := s.store.GetInsight(id)
	if err != nil {
		return nil, err
	}
	vec, err := s.embedder.Embed(in.Content)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding for insight %s", id)
	}
	if err := s.store.UpdateEmbedding(id, vec); err != nil {
		return nil, err
	}
	return &EmbedOneResult{
		Status:    "embedded",
		ID:        id,
		Dimension: len(vec),
		Model:     s.embedder.Model(),
	}, nil
}

func unavailableDetail(s *Service) string {
	type messenger interface{ UnavailableMessage() string }
	if m, ok := s.embedder.(messenger); ok {
		return m.UnavailableMessage()
	}
	return "no embedding provider configured"
}
