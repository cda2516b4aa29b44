package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mnemon/mnemon/pkg/models"
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a an the is are was were be been being
		have has had do does did will would could
		should may might shall can to of in for
		on with at by from as into about that
		this it its or and but if not no so
		up out than then too very just also more
		some any all each i me my we you your
		he she they them his her our their what
		which who how when where`) {
		stopwords[w] = struct{}{}
	}
}

var wordRe = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Tokenize splits text into lowercase alphanumeric tokens with stopwords
// removed.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopwords[word]; !stop {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

// InsightTokens returns the combined token set from content, tags, and
// entities.
func InsightTokens(in *models.Insight) map[string]struct{} {
	tokens := Tokenize(in.Content)
	for _, tag := range in.Tags {
		for t := range Tokenize(tag) {
			tokens[t] = struct{}{}
		}
	}
	for _, ent := range in.Entities {
		for t := range Tokenize(ent) {
			tokens[t] = struct{}{}
		}
	}
	return tokens
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for t := range a {
		if _, ok := b[t]; ok {
			n++
		}
	}
	return n
}

// SetJaccard computes |a ∩ b| / |a ∪ b| over two token sets.
func SetJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := intersectionSize(a, b)
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// ContentSimilarity is the token-level similarity of two texts.
func ContentSimilarity(a, b string) float64 {
	return SetJaccard(Tokenize(a), Tokenize(b))
}

// Match is one scored keyword hit.
type Match struct {
	Insight *models.Insight
	Score   float64
}

// KeywordSearch scores insights by how much of the query's token set they
// cover. Results are sorted by score, then importance, then id, and cut to
// limit. When tokenCache is non-nil it is filled with each insight's token
// set for reuse by later stages.
func KeywordSearch(insights []*models.Insight, query string, limit int, tokenCache map[string]map[string]struct{}) []Match {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var matches []Match
	for _, in := range insights {
		tokens := InsightTokens(in)
		if tokenCache != nil {
			tokenCache[in.ID] = tokens
		}
		inter := intersectionSize(queryTokens, tokens)
		if inter == 0 {
			continue
		}
		matches = append(matches, Match{
			Insight: in,
			Score:   float64(inter) / float64(len(queryTokens)),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Insight.Importance != matches[j].Insight.Importance {
			return matches[i].Insight.Importance > matches[j].Insight.Importance
		}
		return matches[i].Insight.ID < matches[j].Insight.ID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
