package graph

import (
	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

// BFSNode is one insight reached during traversal, with the hop count
// and the edge type that led to it.
type BFSNode struct {
	Insight *models.Insight `json:"insight"`
	Hop     int             `json:"hop"`
	ViaEdge models.EdgeType `json:"via_edge"`
}

// BFSOptions bound a traversal. MaxNodes of 0 means unbounded; a
// non-empty EdgeFilter restricts expansion to one edge type.
type BFSOptions struct {
	MaxDepth   int
	MaxNodes   int
	EdgeFilter models.EdgeType
}

// BFS walks the graph outward from startID in breadth-first order over
// active insights. The start node is not part of the result; a node
// whose insight was deleted still consumes its visited slot so revisits
// cannot loop.
func BFS(s *store.Store, startID string, opts BFSOptions) ([]BFSNode, error) {
	actives, err := s.AllActive()
	if err != nil {
		return nil, err
	}
	if len(actives) == 0 {
		return nil, nil
	}
	insightByID := make(map[string]*models.Insight, len(actives))
	for _, ins := range actives {
		insightByID[ins.ID] = ins
	}

	edges, err := s.AllEdges()
	if err != nil {
		return nil, err
	}
	adj := make(map[string][]*models.Edge)
	for _, e := range edges {
		adj[e.SourceID] = append(adj[e.SourceID], e)
		if e.SourceID != e.TargetID {
			adj[e.TargetID] = append(adj[e.TargetID], e)
		}
	}

	type queueItem struct {
		id  string
		hop int
	}
	visited := map[string]bool{startID: true}
	queue := []queueItem{{startID, 0}}
	var result []BFSNode

	for len(queue) > 0 {
		if opts.MaxNodes > 0 && len(result) >= opts.MaxNodes {
			break
		}
		cur := queue[0]
		queue = queue[1:]
		if cur.hop >= opts.MaxDepth {
			continue
		}
		for _, e := range adj[cur.id] {
			if opts.EdgeFilter != "" && e.EdgeType != opts.EdgeFilter {
				continue
			}
			neighbor := e.TargetID
			if neighbor == cur.id {
				neighbor = e.SourceID
			}
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true

			ins, ok := insightByID[neighbor]
			if !ok {
				continue
			}
			result = append(result, BFSNode{Insight: ins, Hop: cur.hop + 1, ViaEdge: e.EdgeType})
			if opts.MaxNodes > 0 && len(result) >= opts.MaxNodes {
				break
			}
			queue = append(queue, queueItem{neighbor, cur.hop + 1})
		}
	}
	return result, nil
}
