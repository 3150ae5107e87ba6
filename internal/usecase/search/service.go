// Package search orchestrates documentation retrieval for one question:
// cache lookup, bounded parallel fan-out over primary topics, a conditional
// fallback phase, per-topic retries, URL deduplication, and ranking.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/domain"
	"github.com/askaws-cloud/askaws/internal/metrics"
)

// Options configures the orchestrator.
type Options struct {
	CacheTTL          time.Duration
	Concurrency       int // cap on outstanding backend calls across all searches
	MinPrimaryResults int // below this, the fallback phase runs
	Retry             RetryPolicy
}

// Service coordinates the documentation search for one question.
// The semaphore is shared across all in-flight searches, so the backend
// never sees more than Concurrency outstanding requests from this process.
type Service struct {
	client DocClient
	cache  ResultCache
	ranker Ranker
	log    *zap.Logger
	opts   Options
	sem    chan struct{}
}

// New builds a search orchestrator.
func New(client DocClient, cache ResultCache, ranker Ranker, log *zap.Logger, opts Options) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.MinPrimaryResults <= 0 {
		opts.MinPrimaryResults = 3
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = RetryPolicy{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
	}
	return &Service{
		client: client,
		cache:  cache,
		ranker: ranker,
		log:    log,
		opts:   opts,
		sem:    make(chan struct{}, opts.Concurrency),
	}
}

// Search runs the full orchestration. A per-topic failure never aborts the
// search; only every attempted topic failing does, and then the typed error
// still travels with an outcome describing what went wrong per topic.
func (s *Service) Search(ctx context.Context, question string, analysis domain.Analysis, strategy domain.Strategy) (domain.SearchOutcome, error) {
	start := time.Now()
	outcome := domain.SearchOutcome{
		Analysis:     analysis,
		Strategy:     strategy,
		FailedTopics: map[domain.Topic]string{},
	}

	key := cacheKey(question, strategy)
	if strategy.AllowCached {
		if cached, ok := s.cacheGet(ctx, key); ok {
			metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
			outcome.Results = cached
			outcome.Cached = true
			outcome.Elapsed = time.Since(start)
			return outcome, nil
		}
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, strategy.Timeout)
	defer cancel()

	results, attempted := s.runPhase(ctx, question, strategy.Primary, strategy.MaxResults, outcome.FailedTopics)

	if len(results) < s.opts.MinPrimaryResults && len(strategy.Fallback) > 0 {
		outcome.UsedFallback = true
		more, fallbackAttempted := s.runPhase(ctx, question, strategy.Fallback, strategy.MaxResults, outcome.FailedTopics)
		results = append(results, more...)
		attempted += fallbackAttempted
	}

	if len(results) == 0 {
		outcome.Elapsed = time.Since(start)
		// Every attempted topic hard-failed: the backend is effectively
		// down. A deadline that expired with some topics still unanswered
		// is a recoverable no-results outcome instead.
		if attempted > 0 && len(outcome.FailedTopics) == attempted {
			return outcome, fmt.Errorf("%d topics failed: %w", attempted, domain.ErrDocumentationUnavailable)
		}
		return outcome, nil
	}

	ranked := s.ranker.Rank(question, dedupe(results), analysis, strategy)
	if len(ranked) > strategy.MaxResults {
		ranked = ranked[:strategy.MaxResults]
	}
	outcome.Results = ranked
	outcome.Elapsed = time.Since(start)

	if err := s.cache.Put(ctx, key, ranked, s.opts.CacheTTL); err != nil {
		s.log.Warn("search cache write failed", zap.Error(err))
	}
	return outcome, nil
}

type topicResult struct {
	topic   domain.Topic
	results []domain.SearchResult
	err     error
}

// runPhase queries every topic in parallel under the shared concurrency cap
// and merges what came back. Backend failures that survive retries land in
// failed by error kind; deadline expiry does not, so the caller can tell
// "backend down" from "ran out of time".
func (s *Service) runPhase(ctx context.Context, question string, topics []domain.Topic, limit int, failed map[domain.Topic]string) ([]domain.SearchResult, int) {
	ch := make(chan topicResult, len(topics))
	var wg sync.WaitGroup
	for _, topic := range topics {
		wg.Add(1)
		go func(topic domain.Topic) {
			defer wg.Done()
			select {
			case s.sem <- struct{}{}:
				defer func() { <-s.sem }()
			case <-ctx.Done():
				ch <- topicResult{topic: topic, err: ctx.Err()}
				return
			}
			res, err := s.queryTopic(ctx, question, topic, limit)
			if err != nil && ctx.Err() != nil {
				// The phase deadline elapsed while the query was in
				// flight. The transport reports that as a backend
				// timeout; reclassify so it reads as ran-out-of-time.
				err = ctx.Err()
			}
			ch <- topicResult{topic: topic, results: res, err: err}
		}(topic)
	}
	wg.Wait()
	close(ch)

	var merged []domain.SearchResult
	for tr := range ch {
		if tr.err != nil {
			if kind := domain.BackendErrorKind(tr.err); kind != "" {
				failed[tr.topic] = kind
			}
			s.log.Warn("topic query failed",
				zap.String("topic", string(tr.topic)),
				zap.Error(tr.err))
			continue
		}
		merged = append(merged, tr.results...)
	}
	return merged, len(topics)
}

func (s *Service) queryTopic(ctx context.Context, question string, topic domain.Topic, limit int) ([]domain.SearchResult, error) {
	var results []domain.SearchResult
	err := s.opts.Retry.Do(ctx, func(ctx context.Context) error {
		var err error
		results, err = s.client.Search(ctx, question, topic, limit)
		return err
	}, func(attempt int, err error) {
		metrics.DocsRetriesTotal.WithLabelValues(string(topic)).Inc()
		s.log.Debug("retrying topic query",
			zap.String("topic", string(topic)),
			zap.Int("attempt", attempt),
			zap.Error(err))
	})
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Topic = topic
	}
	return results, nil
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]domain.Ranking, bool) {
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to a miss, never to a failed search.
		s.log.Warn("search cache read failed", zap.Error(err))
		return nil, false
	}
	return cached, ok
}

// dedupe removes URL duplicates across topics, keeping the instance with the
// best backend rank; ties keep the lexically smaller topic so the outcome is
// independent of goroutine arrival order.
func dedupe(results []domain.SearchResult) []domain.SearchResult {
	best := make(map[string]domain.SearchResult, len(results))
	for _, r := range results {
		url := r.CanonicalURL()
		cur, seen := best[url]
		if !seen || r.RankOrder < cur.RankOrder ||
			(r.RankOrder == cur.RankOrder && r.Topic < cur.Topic) {
			best[url] = r
		}
	}
	out := make([]domain.SearchResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RankOrder != out[j].RankOrder {
			return out[i].RankOrder < out[j].RankOrder
		}
		return out[i].CanonicalURL() < out[j].CanonicalURL()
	})
	return out
}

// cacheKey hashes (question text, sorted topic set, result limit) so any
// difference in what would be fetched maps to a different entry.
func cacheKey(question string, strategy domain.Strategy) string {
	topics := make([]string, 0, len(strategy.Primary)+len(strategy.Fallback))
	for _, t := range strategy.Primary {
		topics = append(topics, string(t))
	}
	for _, t := range strategy.Fallback {
		topics = append(topics, string(t))
	}
	sort.Strings(topics)

	h := sha256.New()
	h.Write([]byte(question))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(topics, ",")))
	fmt.Fprintf(h, "|%d", strategy.MaxResults)
	return hex.EncodeToString(h.Sum(nil))
}
