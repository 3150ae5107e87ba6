package domain

import (
	"strings"
	"time"
)

// Topic is a documentation backend corpus partition.
type Topic string

const (
	TopicGeneral         Topic = "general"
	TopicReference       Topic = "reference_documentation"
	TopicTroubleshooting Topic = "troubleshooting"
	TopicAPI             Topic = "api_reference"
	TopicCloudFormation  Topic = "cloudformation"
	TopicCDK             Topic = "cdk"
	TopicBestPractices   Topic = "best_practices"
	TopicPricing         Topic = "pricing"
	TopicSecurity        Topic = "security"
)

// SearchResult is one documentation snippet as returned by the backend.
// Results are ephemeral; only the subset selected for an Answer is persisted.
type SearchResult struct {
	URL       string
	Title     string
	Context   string // excerpt around the match
	RankOrder int    // backend-assigned rank, 1 = best
	Topic     Topic  // topic the query that produced this result targeted
}

// CanonicalURL lowercases the URL and strips a trailing slash so results
// can be deduplicated across topics.
func (r SearchResult) CanonicalURL() string {
	return strings.TrimSuffix(strings.ToLower(r.URL), "/")
}

// DocContent is a documentation page body fetched from the backend.
type DocContent struct {
	Content   string
	Truncated bool // true when the backend cut the body at the requested max length
}

// Ranking is a SearchResult with locally computed scores attached.
type Ranking struct {
	SearchResult

	Relevance    float64 // backend rank normalized, primary-topic boosted
	ServiceMatch bool    // title or context mentions a detected service
	TitleMatch   bool    // title contains a question token
	ContextMatch bool    // context contains a question token
	Quality      float64 // URL domain and excerpt length heuristic
	Final        float64 // weighted composite, used for ordering and answer inclusion
}

// Strategy maps classifier output to a concrete search plan.
type Strategy struct {
	Primary     []Topic
	Fallback    []Topic
	MaxResults  int
	Timeout     time.Duration
	AllowCached bool
}

// SearchOutcome is the orchestrated search result for one question.
type SearchOutcome struct {
	Results      []Ranking
	Analysis     Analysis
	Strategy     Strategy
	Elapsed      time.Duration
	UsedFallback bool
	Cached       bool
	FailedTopics map[Topic]string // topic -> backend error kind, after retries
}
