package search

import (
	"context"
	"time"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// DocClient is the documentation backend the orchestrator fans out to.
type DocClient interface {
	Search(ctx context.Context, query string, topic domain.Topic, limit int) ([]domain.SearchResult, error)
}

// ResultCache stores ranked result lists under a composite key with a TTL.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]domain.Ranking, bool, error)
	Put(ctx context.Context, key string, results []domain.Ranking, ttl time.Duration) error
}

// Ranker orders deduplicated results; must be deterministic so cached
// outcomes stay valid.
type Ranker interface {
	Rank(question string, results []domain.SearchResult, analysis domain.Analysis, strategy domain.Strategy) []domain.Ranking
}
