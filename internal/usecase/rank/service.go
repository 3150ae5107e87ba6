// Package rank scores and orders search results against a question analysis.
// Scoring is pure and deterministic: the same results and analysis always
// produce the same ordering, which is what makes cached search outcomes safe
// to reuse.
package rank

import (
	"sort"
	"strings"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// primaryTopicBoost is added to the relevance component when a result came
// from a primary (not fallback) topic query.
const primaryTopicBoost = 0.15

// shortContextChars is the excerpt length below which the quality score is
// halved: a near-empty context rarely carries enough signal to answer from.
const shortContextChars = 40

// Weights are the scoring component weights. They must sum to 1; config
// validation enforces that before a Service is ever built.
type Weights struct {
	Relevance float64
	Service   float64
	Title     float64
	Quality   float64
}

// DefaultWeights matches the documented scoring split.
var DefaultWeights = Weights{Relevance: 0.4, Service: 0.2, Title: 0.2, Quality: 0.2}

// Service ranks search results. Stateless apart from the weights.
type Service struct {
	weights Weights
}

// New builds a ranker. Zero weights fall back to the defaults.
func New(w Weights) *Service {
	if w.Relevance == 0 && w.Service == 0 && w.Title == 0 && w.Quality == 0 {
		w = DefaultWeights
	}
	return &Service{weights: w}
}

// stopWords are question tokens too common to count as a title/context match.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"do": true, "does": true, "did": true, "how": true, "what": true,
	"when": true, "where": true, "which": true, "why": true, "who": true,
	"i": true, "my": true, "me": true, "we": true, "you": true, "it": true,
	"in": true, "on": true, "of": true, "to": true, "for": true, "from": true,
	"with": true, "and": true, "or": true, "not": true, "can": true,
	"should": true, "would": true, "there": true, "this": true, "that": true,
	"be": true, "have": true, "has": true, "get": true, "use": true,
}

// Rank scores every result against the normalized question text and returns
// them ordered best-first. Ties on the composite score break on backend rank
// order, then canonical URL, so the ordering never depends on input order.
func (s *Service) Rank(question string, results []domain.SearchResult, analysis domain.Analysis, strategy domain.Strategy) []domain.Ranking {
	if len(results) == 0 {
		return nil
	}

	primary := make(map[domain.Topic]bool, len(strategy.Primary))
	for _, t := range strategy.Primary {
		primary[t] = true
	}
	services := lowercaseAll(analysis.ServiceNames())
	tokens := questionTokens(question)

	relevance := normalizedRelevance(results)

	ranked := make([]domain.Ranking, len(results))
	for i, r := range results {
		rel := relevance[i]
		if primary[r.Topic] {
			rel += primaryTopicBoost
		}
		if rel > 1 {
			rel = 1
		}

		title := strings.ToLower(r.Title)
		context := strings.ToLower(r.Context)

		rk := domain.Ranking{
			SearchResult: r,
			Relevance:    rel,
			ServiceMatch: containsAny(title, services) || containsAny(context, services),
			TitleMatch:   containsAnyToken(title, tokens),
			ContextMatch: containsAnyToken(context, tokens),
			Quality:      qualityScore(r),
		}
		rk.Final = s.weights.Relevance*rk.Relevance +
			s.weights.Service*boolScore(rk.ServiceMatch) +
			s.weights.Title*textMatchScore(rk.TitleMatch, rk.ContextMatch) +
			s.weights.Quality*rk.Quality
		ranked[i] = rk
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Final != ranked[j].Final {
			return ranked[i].Final > ranked[j].Final
		}
		if ranked[i].RankOrder != ranked[j].RankOrder {
			return ranked[i].RankOrder < ranked[j].RankOrder
		}
		return ranked[i].CanonicalURL() < ranked[j].CanonicalURL()
	})
	return ranked
}

// normalizedRelevance min-max normalizes 1/rankOrder across the result set.
// A degenerate set where every result shares one rank scores 0.5 everywhere,
// leaving headroom for the primary-topic boost to still differentiate.
func normalizedRelevance(results []domain.SearchResult) []float64 {
	raw := make([]float64, len(results))
	min, max := 1.0, 0.0
	for i, r := range results {
		order := r.RankOrder
		if order < 1 {
			order = 1
		}
		raw[i] = 1 / float64(order)
		if raw[i] < min {
			min = raw[i]
		}
		if raw[i] > max {
			max = raw[i]
		}
	}
	out := make([]float64, len(results))
	if max == min {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i := range raw {
		out[i] = (raw[i] - min) / (max - min)
	}
	return out
}

// qualityScore rates the source domain and penalizes thin excerpts.
func qualityScore(r domain.SearchResult) float64 {
	host := hostOf(r.URL)
	var score float64
	switch {
	case host == "docs.aws.amazon.com":
		score = 1.0
	case host == "amazon.com" || strings.HasSuffix(host, ".amazon.com"):
		score = 0.7
	default:
		score = 0.4
	}
	if len(strings.TrimSpace(r.Context)) < shortContextChars {
		score *= 0.5
	}
	return score
}

func hostOf(rawURL string) string {
	u := strings.ToLower(rawURL)
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexAny(u, "/?#"); i >= 0 {
		u = u[:i]
	}
	if i := strings.IndexByte(u, ':'); i >= 0 {
		u = u[:i]
	}
	return u
}

// questionTokens splits the normalized question into lowercase alphanumeric
// tokens, dropping stop words, single characters, and duplicates.
func questionTokens(question string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, f := range strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if len(f) < 2 || stopWords[f] || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

func lowercaseAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func containsAnyToken(haystack string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func textMatchScore(title, context bool) float64 {
	switch {
	case title:
		return 1
	case context:
		return 0.5
	default:
		return 0
	}
}
