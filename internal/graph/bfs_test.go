package graph

import (
	"fmt"
	"testing"

	"github.com/mnemon/mnemon/pkg/models"
)

func TestBFSChain(t *testing.T) {
	s := newGraphStore(t)
	a := seedInsight(t, s, "chain start")
	b := seedInsight(t, s, "one hop out")
	c := seedInsight(t, s, "two hops out")
	d := seedInsight(t, s, "three hops out")
	mustLink(t, s, a.ID, b.ID, models.EdgeTemporal, 1.0)
	mustLink(t, s, b.ID, c.ID, models.EdgeTemporal, 1.0)
	mustLink(t, s, c.ID, d.ID, models.EdgeTemporal, 1.0)

	nodes, err := BFS(s, a.ID, BFSOptions{MaxDepth: 2})
	if err != nil {
		t.Fatalf("bfs: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2 within depth 2: %+v", len(nodes), nodes)
	}
	if nodes[0].Insight.ID != b.ID || nodes[0].Hop != 1 {
		t.Errorf("first node = %s hop %d, want %s hop 1", nodes[0].Insight.ID, nodes[0].Hop, b.ID)
	}
	if nodes[1].Insight.ID != c.ID || nodes[1].Hop != 2 {
		t.Errorf("second node = %s hop %d, want %s hop 2", nodes[1].Insight.ID, nodes[1].Hop, c.ID)
	}
	if nodes[0].ViaEdge != models.EdgeTemporal {
		t.Errorf("via_edge = %v, want temporal", nodes[0].ViaEdge)
	}
}

func TestBFSFollowsEdgesBothWays(t *testing.T) {
	s := newGraphStore(t)
	a := seedInsight(t, s, "stored as source")
	b := seedInsight(t, s, "stored as target")
	mustLink(t, s, a.ID, b.ID, models.EdgeCausal, 0.5)

	nodes, err := BFS(s, b.ID, BFSOptions{MaxDepth: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Insight.ID != a.ID {
		t.Fatalf("directed edge should be walkable backwards, got %+v", nodes)
	}
}

func TestBFSEdgeFilter(t *testing.T) {
	s := newGraphStore(t)
	a := seedInsight(t, s, "filter start")
	b := seedInsight(t, s, "temporal neighbor")
	c := seedInsight(t, s, "causal neighbor")
	mustLink(t, s, a.ID, b.ID, models.EdgeTemporal, 1.0)
	mustLink(t, s, a.ID, c.ID, models.EdgeCausal, 0.5)

	nodes, err := BFS(s, a.ID, BFSOptions{MaxDepth: 2, EdgeFilter: models.EdgeCausal})
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Insight.ID != c.ID {
		t.Fatalf("filter should keep only causal hops, got %+v", nodes)
	}
}

func TestBFSMaxNodes(t *testing.T) {
	s := newGraphStore(t)
	a := seedInsight(t, s, "hub")
	for i := 0; i < 5; i++ {
		peer := seedInsight(t, s, fmt.Sprintf("spoke %d", i))
		mustLink(t, s, a.ID, peer.ID, models.EdgeEntity, 1.0)
	}

	nodes, err := BFS(s, a.ID, BFSOptions{MaxDepth: 3, MaxNodes: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want MaxNodes cap 3", len(nodes))
	}
}

func TestBFSDepthZero(t *testing.T) {
	s := newGraphStore(t)
	a := seedInsight(t, s, "rooted")
	b := seedInsight(t, s, "adjacent")
	mustLink(t, s, a.ID, b.ID, models.EdgeTemporal, 1.0)

	nodes, err := BFS(s, a.ID, BFSOptions{MaxDepth: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Fatalf("depth 0 must not expand, got %+v", nodes)
	}
}

func TestBFSUnknownStart(t *testing.T) {
	s := newGraphStore(t)
	a := seedInsight(t, s, "only resident")
	_ = a

	nodes, err := BFS(s, "missing-id", BFSOptions{MaxDepth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Fatalf("unknown start should reach nothing, got %+v", nodes)
	}
}

func TestBFSEmptyStore(t *testing.T) {
	s := newGraphStore(t)
	nodes, err := BFS(s, "anything", BFSOptions{MaxDepth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if nodes != nil {
		t.Fatalf("empty store should return nil, got %+v", nodes)
	}
}
