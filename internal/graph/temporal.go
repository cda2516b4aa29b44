package graph

import (
	"fmt"
	"time"

	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

const (
	temporalWindow    = 24 * time.Hour
	maxProximityEdges = 10
)

// TemporalEdges chains a new insight into the timeline: a bidirectional
// backbone pair to the latest active insight from the same source, plus
// proximity pairs to anything active from the previous 24 hours. Returns
// the number of edge rows written.
func TemporalEdges(s *store.Store, in *models.Insight) (int, error) {
	now := models.Now()
	count := 0

	prev, err := s.LatestBySource(in.Source, in.ID)
	if err != nil {
		return 0, err
	}
	if prev != nil {
		meta := map[string]any{
			"sub_type":   "backbone",
			"hours_diff": fmt.Sprintf("%.2f", hoursBetween(in.CreatedAt, prev.CreatedAt)),
		}
		for _, pair := range [][2]string{{prev.ID, in.ID}, {in.ID, prev.ID}} {
			err := s.UpsertEdge(&models.Edge{
				SourceID: pair[0], TargetID: pair[1], EdgeType: models.EdgeTemporal,
				Weight: 1.0, Metadata: meta, CreatedAt: now,
			})
			if err != nil {
				return count, err
			}
			count++
		}
	}

	recent, err := s.ActiveSince(in.CreatedAt.Add(-temporalWindow), in.ID, maxProximityEdges)
	if err != nil {
		return count, err
	}
	for _, near := range recent {
		if prev != nil && near.ID == prev.ID {
			continue
		}
		hours := hoursBetween(in.CreatedAt, near.CreatedAt)
		meta := map[string]any{
			"sub_type":   "proximity",
			"hours_diff": fmt.Sprintf("%.2f", hours),
		}
		weight := 1.0 / (1.0 + hours)
		for _, pair := range [][2]string{{in.ID, near.ID}, {near.ID, in.ID}} {
			err := s.UpsertEdge(&models.Edge{
				SourceID: pair[0], TargetID: pair[1], EdgeType: models.EdgeTemporal,
				Weight: weight, Metadata: meta, CreatedAt: now,
			})
			if err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func hoursBetween(a, b time.Time) float64 {
	hours := a.Sub(b).Hours()
	if hours < 0 {
		return -hours
	}
	return hours
}
