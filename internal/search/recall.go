package search

import (
	"sort"
	"strings"

	"github.com/mnemon/mnemon/internal/embedding"
	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

// DefaultRecallLimit caps a recall response when the caller does not ask
// for a specific size.
const DefaultRecallLimit = 10

const (
	anchorTopK   = 20
	rrfK         = 60
	vectorMinSim = 0.10

	lambdaStructural = 1.0
	lambdaSemantic   = 0.4
)

// RecallOptions carry one recall request. QueryVec is nil when no query
// embedding could be produced; QueryEntities are extracted by the caller
// so this package stays independent of the extraction rules.
type RecallOptions struct {
	Query          string
	QueryVec       []float64
	QueryEntities  []string
	Limit          int
	IntentOverride models.Intent
}

// Recall runs the intent-aware pipeline: anchor selection by reciprocal
// rank fusion, beam traversal of the edge graph, multi-factor re-ranking,
// and causal ordering for WHY queries. It reads the store but never
// writes; access counting is the caller's job.
func Recall(s *store.Store, opts RecallOptions) (*models.RecallResponse, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRecallLimit
	}

	intent := opts.IntentOverride
	intentSource := "override"
	if intent == "" {
		intent = DetectIntent(opts.Query)
		intentSource = "detected"
	}

	actives, err := s.AllActive()
	if err != nil {
		return nil, err
	}
	insightByID := make(map[string]*models.Insight, len(actives))
	for _, ins := range actives {
		insightByID[ins.ID] = ins
	}

	var embeds map[string][]float64
	if opts.QueryVec != nil {
		if embeds, err = s.EmbedCache(); err != nil {
			return nil, err
		}
	}
	hasEmbed := len(embeds) > 0

	// Anchor selection. Each signal contributes 1/(k+rank+1) per hit;
	// an insight surfaced by more than one signal becomes "hybrid".
	type anchor struct {
		score float64
		via   string
	}
	anchors := make(map[string]*anchor)
	var anchorIDs []string
	addAnchor := func(id string, rank int, via string) {
		rrf := 1.0 / float64(rrfK+rank+1)
		if a, ok := anchors[id]; ok {
			a.score += rrf
			a.via = "hybrid"
			return
		}
		anchors[id] = &anchor{score: rrf, via: via}
		anchorIDs = append(anchorIDs, id)
	}

	tokenCache := make(map[string]map[string]struct{})
	for rank, m := range KeywordSearch(actives, opts.Query, anchorTopK, tokenCache) {
		addAnchor(m.Insight.ID, rank, "keyword")
	}
	if hasEmbed {
		for rank, hit := range vectorTopK(embeds, opts.QueryVec, anchorTopK) {
			addAnchor(hit.id, rank, "vector")
		}
	}
	// AllActive is ordered oldest first, so recency walks it backwards.
	for rank := 0; rank < anchorTopK && rank < len(actives); rank++ {
		addAnchor(actives[len(actives)-1-rank].ID, rank, "time")
	}
	if len(opts.QueryEntities) > 0 {
		shares, err := s.SharedEntityCounts(opts.QueryEntities, anchorTopK)
		if err != nil {
			return nil, err
		}
		for rank, share := range shares {
			addAnchor(share.ID, rank, "entity")
		}
	}

	var maxAnchor float64
	for _, a := range anchors {
		if a.score > maxAnchor {
			maxAnchor = a.score
		}
	}
	if maxAnchor > 0 {
		for _, a := range anchors {
			a.score /= maxAnchor
		}
	}

	// Best anchors expand first so they spend the visit budget.
	sort.Slice(anchorIDs, func(i, j int) bool {
		ai, aj := anchors[anchorIDs[i]], anchors[anchorIDs[j]]
		if ai.score != aj.score {
			return ai.score > aj.score
		}
		return anchorIDs[i] < anchorIDs[j]
	})

	allEdges, err := s.AllEdges()
	if err != nil {
		return nil, err
	}
	adjacency := make(map[string][]halfEdge)
	for _, e := range allEdges {
		adjacency[e.SourceID] = append(adjacency[e.SourceID], halfEdge{e.TargetID, e.EdgeType, e.Weight})
		adjacency[e.TargetID] = append(adjacency[e.TargetID], halfEdge{e.SourceID, e.EdgeType, e.Weight})
	}

	tr := &traversal{
		params:    IntentBeamParams(intent),
		weights:   IntentEdgeWeights(intent),
		queryVec:  opts.QueryVec,
		embeds:    embeds,
		adjacency: adjacency,
		scoreMap:  make(map[string]float64, len(anchors)),
		viaMap:    make(map[string]string, len(anchors)),
	}
	for id, a := range anchors {
		tr.scoreMap[id] = a.score
		tr.viaMap[id] = a.via
	}
	for _, id := range anchorIDs {
		if tr.visited >= tr.params.MaxVisited {
			break
		}
		tr.expand(id, anchors[id].score)
	}

	// Pool assembly; deleted ids reached through stale state drop out here.
	candidateIDs := make([]string, 0, len(tr.scoreMap))
	for id := range tr.scoreMap {
		if _, ok := insightByID[id]; ok {
			candidateIDs = append(candidateIDs, id)
		}
	}
	sort.Strings(candidateIDs)

	var graphMin, graphMax float64
	for i, id := range candidateIDs {
		raw := tr.scoreMap[id]
		if i == 0 {
			graphMin, graphMax = raw, raw
			continue
		}
		if raw < graphMin {
			graphMin = raw
		}
		if raw > graphMax {
			graphMax = raw
		}
	}
	graphRange := graphMax - graphMin

	queryTokens := Tokenize(opts.Query)
	queryEnts := make(map[string]struct{}, len(opts.QueryEntities))
	for _, e := range opts.QueryEntities {
		queryEnts[strings.ToLower(e)] = struct{}{}
	}

	rw := IntentRerankWeights(intent, hasEmbed)
	results := make([]models.RecallResult, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		ins := insightByID[id]

		var kw float64
		if len(queryTokens) > 0 {
			toks, ok := tokenCache[id]
			if !ok {
				toks = InsightTokens(ins)
			}
			kw = float64(intersectionSize(queryTokens, toks)) / float64(len(queryTokens))
		}

		var ent float64
		if len(queryEnts) > 0 {
			matched := 0
			for _, e := range ins.Entities {
				if _, ok := queryEnts[strings.ToLower(e)]; ok {
					matched++
				}
			}
			ent = float64(matched) / float64(len(queryEnts))
		}

		var sim float64
		if hasEmbed {
			if vec, ok := embeds[id]; ok {
				if cs := embedding.Cosine(opts.QueryVec, vec); cs > 0 {
					sim = cs
				}
			}
		}

		var graph float64
		if graphRange > 0 {
			graph = (tr.scoreMap[id] - graphMin) / graphRange
		}

		results = append(results, models.RecallResult{
			Insight: ins,
			Score:   rw.Keyword*kw + rw.Entity*ent + rw.Similarity*sim + rw.Graph*graph,
			Intent:  intent,
			Signals: models.RecallSignals{Keyword: kw, Entity: ent, Similarity: sim, Graph: graph},
			Via:     tr.viaMap[id],
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Insight.Importance != results[j].Insight.Importance {
			return results[i].Insight.Importance > results[j].Insight.Importance
		}
		return results[i].Insight.ID < results[j].Insight.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if intent == models.IntentWhy {
		results = causalOrder(results, allEdges)
	}

	meta := models.RecallMeta{
		Intent:       intent,
		IntentSource: intentSource,
		AnchorCount:  len(anchors),
		Traversed:    len(tr.scoreMap),
	}
	if len(results) == 0 || len(results) < limit/2 {
		meta.Hint = "sparse_results"
	}
	return &models.RecallResponse{Results: results, Meta: meta}, nil
}

type vectorHit struct {
	id  string
	sim float64
}

// vectorTopK ranks cached embeddings by cosine against the query vector,
// keeping hits with similarity of at least 0.10.
func vectorTopK(embeds map[string][]float64, queryVec []float64, limit int) []vectorHit {
	hits := make([]vectorHit, 0, len(embeds))
	for id, vec := range embeds {
		sim := embedding.Cosine(queryVec, vec)
		if sim < vectorMinSim {
			continue
		}
		hits = append(hits, vectorHit{id, sim})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return hits[i].id < hits[j].id
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

type halfEdge struct {
	neighbor string
	edgeType models.EdgeType
	weight   float64
}

// traversal holds the state shared by every anchor's beam expansion. The
// visit budget is global; each expansion keeps its own seen set so two
// anchors may both reach a node and the better path wins.
type traversal struct {
	params    BeamParams
	weights   map[models.EdgeType]float64
	queryVec  []float64
	embeds    map[string][]float64
	adjacency map[string][]halfEdge
	scoreMap  map[string]float64
	viaMap    map[string]string
	visited   int
}

type frontierNode struct {
	id    string
	score float64
}

func (t *traversal) expand(startID string, startScore float64) {
	if t.visited >= t.params.MaxVisited {
		return
	}
	seen := map[string]bool{startID: true}
	t.visited++
	frontier := []frontierNode{{startID, startScore}}

	for depth := 0; depth < t.params.MaxDepth; depth++ {
		if len(frontier) == 0 || t.visited >= t.params.MaxVisited {
			break
		}
		var next []frontierNode
		for _, node := range frontier {
			for _, he := range t.adjacency[node.id] {
				if t.visited >= t.params.MaxVisited {
					break
				}
				structural := t.weights[he.edgeType] * he.weight
				var semantic float64
				if t.queryVec != nil {
					if vec, ok := t.embeds[he.neighbor]; ok {
						if cs := embedding.Cosine(t.queryVec, vec); cs > 0 {
							semantic = cs
						}
					}
				}
				score := node.score + lambdaStructural*structural + lambdaSemantic*semantic
				if prev, ok := t.scoreMap[he.neighbor]; !ok || score > prev {
					t.scoreMap[he.neighbor] = score
					t.viaMap[he.neighbor] = string(he.edgeType)
				}
				if !seen[he.neighbor] {
					seen[he.neighbor] = true
					t.visited++
					next = append(next, frontierNode{he.neighbor, score})
				}
			}
		}
		sort.Slice(next, func(i, j int) bool {
			if next[i].score != next[j].score {
				return next[i].score > next[j].score
			}
			return next[i].id < next[j].id
		})
		if len(next) > t.params.BeamWidth {
			next = next[:t.params.BeamWidth]
		}
		frontier = next
	}
}

// causalOrder reorders WHY results with Kahn's algorithm over the causal
// edges inside the result set, so edge sources come out before their
// targets. Ready nodes pop by descending score. Nodes trapped in a cycle
// keep their pre-sort relative order at the tail.
func causalOrder(results []models.RecallResult, edges []*models.Edge) []models.RecallResult {
	if len(results) <= 1 {
		return results
	}
	index := make(map[string]int, len(results))
	for i, r := range results {
		index[r.Insight.ID] = i
	}

	adj := make(map[string][]string)
	inDegree := make(map[string]int, len(results))
	for _, r := range results {
		inDegree[r.Insight.ID] = 0
	}
	for _, e := range edges {
		if e.EdgeType != models.EdgeCausal {
			continue
		}
		if _, ok := index[e.SourceID]; !ok {
			continue
		}
		if _, ok := index[e.TargetID]; !ok {
			continue
		}
		adj[e.SourceID] = append(adj[e.SourceID], e.TargetID)
		inDegree[e.TargetID]++
	}

	var ready []string
	for _, r := range results {
		if inDegree[r.Insight.ID] == 0 {
			ready = append(ready, r.Insight.ID)
		}
	}
	popBest := func() string {
		best := 0
		for i := 1; i < len(ready); i++ {
			ri, rb := results[index[ready[i]]], results[index[ready[best]]]
			if ri.Score > rb.Score || (ri.Score == rb.Score && ready[i] < ready[best]) {
				best = i
			}
		}
		id := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		return id
	}

	ordered := make([]models.RecallResult, 0, len(results))
	placed := make(map[string]bool, len(results))
	for len(ready) > 0 {
		id := popBest()
		placed[id] = true
		ordered = append(ordered, results[index[id]])
		for _, target := range adj[id] {
			inDegree[target]--
			if inDegree[target] == 0 {
				ready = append(ready, target)
			}
		}
	}
	if len(ordered) < len(results) {
		for _, r := range results {
			if !placed[r.Insight.ID] {
				ordered = append(ordered, r)
			}
		}
	}
	return ordered
}
