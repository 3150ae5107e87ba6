package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/domain"
)

type mockDocClient struct {
	mu       sync.Mutex
	calls    []domain.Topic
	searchFn func(ctx context.Context, query string, topic domain.Topic, limit int) ([]domain.SearchResult, error)
}

func (m *mockDocClient) Search(ctx context.Context, query string, topic domain.Topic, limit int) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, topic)
	m.mu.Unlock()
	return m.searchFn(ctx, query, topic, limit)
}

func (m *mockDocClient) callCount(topic domain.Topic) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.calls {
		if t == topic {
			n++
		}
	}
	return n
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]domain.Ranking
	puts    int
	getErr  error
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string][]domain.Ranking{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]domain.Ranking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	r, ok := m.entries[key]
	return r, ok, nil
}

func (m *mockCache) Put(_ context.Context, key string, results []domain.Ranking, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = results
	m.puts++
	return nil
}

// passRanker wraps results without reordering; Final mirrors backend rank.
type passRanker struct{}

func (passRanker) Rank(_ string, results []domain.SearchResult, _ domain.Analysis, _ domain.Strategy) []domain.Ranking {
	out := make([]domain.Ranking, len(results))
	for i, r := range results {
		out[i] = domain.Ranking{SearchResult: r, Final: 1 / float64(r.RankOrder)}
	}
	return out
}

func testStrategy() domain.Strategy {
	return domain.Strategy{
		Primary:     []domain.Topic{domain.TopicGeneral, domain.TopicReference},
		Fallback:    []domain.Topic{domain.TopicBestPractices},
		MaxResults:  8,
		Timeout:     5 * time.Second,
		AllowCached: true,
	}
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestService(client DocClient, cache ResultCache) *Service {
	return New(client, cache, passRanker{}, zap.NewNop(), Options{
		CacheTTL:          time.Minute,
		Concurrency:       2,
		MinPrimaryResults: 3,
		Retry:             fastRetry(),
	})
}

func resultsFor(topic domain.Topic, n int) []domain.SearchResult {
	out := make([]domain.SearchResult, n)
	for i := range out {
		out[i] = domain.SearchResult{
			URL:       fmt.Sprintf("https://docs.aws.amazon.com/%s/%d", topic, i),
			Title:     fmt.Sprintf("%s doc %d", topic, i),
			Context:   "excerpt",
			RankOrder: i + 1,
		}
	}
	return out
}

func TestSearch_PrimaryOnlyWhenEnoughResults(t *testing.T) {
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		return resultsFor(topic, 2), nil
	}}
	svc := newTestService(client, newMockCache())

	got, err := svc.Search(context.Background(), "how to use s3", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got.UsedFallback {
		t.Error("UsedFallback = true, want false (primary returned 4 >= 3)")
	}
	if got.Cached {
		t.Error("Cached = true, want false")
	}
	if client.callCount(domain.TopicBestPractices) != 0 {
		t.Error("fallback topic was queried despite enough primary results")
	}
	if len(got.Results) != 4 {
		t.Errorf("results = %d, want 4", len(got.Results))
	}
	if len(got.FailedTopics) != 0 {
		t.Errorf("FailedTopics = %v, want empty", got.FailedTopics)
	}
}

func TestSearch_FallbackPhaseWhenPrimaryThin(t *testing.T) {
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		if topic == domain.TopicBestPractices {
			return resultsFor(topic, 3), nil
		}
		return resultsFor(topic, 1), nil
	}}
	svc := newTestService(client, newMockCache())

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !got.UsedFallback {
		t.Error("UsedFallback = false, want true (primary returned 2 < 3)")
	}
	if client.callCount(domain.TopicBestPractices) != 1 {
		t.Errorf("fallback queried %d times, want 1", client.callCount(domain.TopicBestPractices))
	}
	if len(got.Results) != 5 {
		t.Errorf("results = %d, want 5", len(got.Results))
	}
}

func TestSearch_CacheHitSkipsBackend(t *testing.T) {
	cache := newMockCache()
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		return resultsFor(topic, 3), nil
	}}
	svc := newTestService(client, cache)

	first, err := svc.Search(context.Background(), "cached question", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("first Search: %v", err)
	}
	if first.Cached {
		t.Fatal("first search reported cached")
	}
	callsAfterFirst := client.callCount(domain.TopicGeneral) + client.callCount(domain.TopicReference)

	second, err := svc.Search(context.Background(), "cached question", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if !second.Cached {
		t.Error("second search not served from cache")
	}
	if got := client.callCount(domain.TopicGeneral) + client.callCount(domain.TopicReference); got != callsAfterFirst {
		t.Errorf("backend called again on cache hit: %d calls, want %d", got, callsAfterFirst)
	}
	if len(second.Results) != len(first.Results) {
		t.Fatalf("cached results = %d, want %d", len(second.Results), len(first.Results))
	}
	for i := range first.Results {
		if second.Results[i].URL != first.Results[i].URL {
			t.Errorf("cached result %d = %q, want %q", i, second.Results[i].URL, first.Results[i].URL)
		}
	}
}

func TestSearch_CacheDisallowedBypassesCache(t *testing.T) {
	cache := newMockCache()
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		return resultsFor(topic, 3), nil
	}}
	svc := newTestService(client, cache)

	strategy := testStrategy()
	strategy.AllowCached = false

	if _, err := svc.Search(context.Background(), "q", domain.Analysis{}, strategy); err != nil {
		t.Fatalf("first Search: %v", err)
	}
	before := client.callCount(domain.TopicGeneral)
	if _, err := svc.Search(context.Background(), "q", domain.Analysis{}, strategy); err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if client.callCount(domain.TopicGeneral) == before {
		t.Error("cache served a search with AllowCached=false")
	}
}

func TestSearch_CacheErrorDegradesToMiss(t *testing.T) {
	cache := newMockCache()
	cache.getErr = errors.New("redis down")
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		return resultsFor(topic, 3), nil
	}}
	svc := newTestService(client, cache)

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got.Cached || len(got.Results) == 0 {
		t.Errorf("Cached=%v results=%d, want fresh results despite cache error", got.Cached, len(got.Results))
	}
}

func TestSearch_RetriesTransientFailure(t *testing.T) {
	var mu sync.Mutex
	failures := map[domain.Topic]int{domain.TopicGeneral: 2}
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		mu.Lock()
		defer mu.Unlock()
		if failures[topic] > 0 {
			failures[topic]--
			return nil, domain.ErrBackendConnection
		}
		return resultsFor(topic, 2), nil
	}}
	svc := newTestService(client, newMockCache())

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if client.callCount(domain.TopicGeneral) != 3 {
		t.Errorf("general topic called %d times, want 3 (2 failures + success)", client.callCount(domain.TopicGeneral))
	}
	if len(got.FailedTopics) != 0 {
		t.Errorf("FailedTopics = %v, want empty after successful retry", got.FailedTopics)
	}
	if len(got.Results) != 4 {
		t.Errorf("results = %d, want 4", len(got.Results))
	}
}

func TestSearch_PartialFailureKeepsGoing(t *testing.T) {
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		if topic == domain.TopicReference {
			return nil, domain.ErrBackendTimeout
		}
		return resultsFor(topic, 3), nil
	}}
	svc := newTestService(client, newMockCache())

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("Search: %v (partial failure must not abort)", err)
	}
	if kind := got.FailedTopics[domain.TopicReference]; kind != "TIMEOUT" {
		t.Errorf("FailedTopics[reference] = %q, want TIMEOUT", kind)
	}
	if len(got.Results) != 3 {
		t.Errorf("results = %d, want 3 from the surviving topic", len(got.Results))
	}
	if client.callCount(domain.TopicReference) != 3 {
		t.Errorf("failing topic called %d times, want 3 retries", client.callCount(domain.TopicReference))
	}
}

func TestSearch_AllTopicsFailed(t *testing.T) {
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, _ domain.Topic, _ int) ([]domain.SearchResult, error) {
		return nil, domain.ErrBackendConnection
	}}
	svc := newTestService(client, newMockCache())

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, testStrategy())
	if !errors.Is(err, domain.ErrDocumentationUnavailable) {
		t.Fatalf("err = %v, want ErrDocumentationUnavailable", err)
	}
	// Primary failed entirely, so the fallback phase also ran and failed.
	if len(got.FailedTopics) != 3 {
		t.Errorf("FailedTopics = %v, want all 3 topics", got.FailedTopics)
	}
	for topic, kind := range got.FailedTopics {
		if kind != "CONNECTION_FAILED" {
			t.Errorf("FailedTopics[%s] = %q, want CONNECTION_FAILED", topic, kind)
		}
	}
}

func TestSearch_DeadlineExpiryIsNotABackendFailure(t *testing.T) {
	// Queries still in flight when the phase deadline passes come back
	// from the transport looking like backend timeouts. The search must
	// report an empty outcome, not documentation-unavailable.
	client := &mockDocClient{searchFn: func(ctx context.Context, _ string, _ domain.Topic, _ int) ([]domain.SearchResult, error) {
		<-ctx.Done()
		return nil, fmt.Errorf("search request: %w", domain.ErrBackendTimeout)
	}}
	svc := newTestService(client, newMockCache())

	strategy := testStrategy()
	strategy.Timeout = 20 * time.Millisecond

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, strategy)
	if err != nil {
		t.Fatalf("Search: %v, want nil when the deadline elapsed", err)
	}
	if len(got.FailedTopics) != 0 {
		t.Errorf("FailedTopics = %v, want empty for deadline expiry", got.FailedTopics)
	}
	if len(got.Results) != 0 {
		t.Errorf("results = %d, want 0", len(got.Results))
	}
}

func TestSearch_NonRetryableFailsFast(t *testing.T) {
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		if topic == domain.TopicReference {
			return nil, errors.New("schema drift")
		}
		return resultsFor(topic, 3), nil
	}}
	svc := newTestService(client, newMockCache())

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if client.callCount(domain.TopicReference) != 1 {
		t.Errorf("non-retryable error retried: %d calls, want 1", client.callCount(domain.TopicReference))
	}
	// Unknown errors carry no backend kind and stay out of FailedTopics.
	if _, ok := got.FailedTopics[domain.TopicReference]; ok {
		t.Errorf("FailedTopics = %v, want no entry for unknown error kind", got.FailedTopics)
	}
}

func TestSearch_DeduplicatesAcrossTopics(t *testing.T) {
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, _ int) ([]domain.SearchResult, error) {
		if topic == domain.TopicGeneral {
			return []domain.SearchResult{
				{URL: "https://docs.aws.amazon.com/s3/guide/", Title: "from general", RankOrder: 2},
				{URL: "https://docs.aws.amazon.com/unique", Title: "unique", RankOrder: 3},
				{URL: "https://docs.aws.amazon.com/other", Title: "other", RankOrder: 4},
			}, nil
		}
		return []domain.SearchResult{
			// Same document, different casing and no trailing slash.
			{URL: "https://docs.aws.amazon.com/S3/Guide", Title: "from reference", RankOrder: 1},
		}, nil
	}}
	svc := newTestService(client, newMockCache())

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, testStrategy())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got.Results) != 3 {
		t.Fatalf("results = %d, want 3 after dedup", len(got.Results))
	}
	var kept *domain.Ranking
	for i := range got.Results {
		if got.Results[i].CanonicalURL() == "https://docs.aws.amazon.com/s3/guide" {
			kept = &got.Results[i]
		}
	}
	if kept == nil {
		t.Fatal("deduplicated document missing from results")
	}
	if kept.Title != "from reference" {
		t.Errorf("kept %q, want the better-ranked duplicate", kept.Title)
	}
}

func TestSearch_CapsResultsAtStrategyMax(t *testing.T) {
	client := &mockDocClient{searchFn: func(_ context.Context, _ string, topic domain.Topic, limit int) ([]domain.SearchResult, error) {
		return resultsFor(topic, limit), nil
	}}
	svc := newTestService(client, newMockCache())

	strategy := testStrategy()
	strategy.MaxResults = 4

	got, err := svc.Search(context.Background(), "q", domain.Analysis{}, strategy)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got.Results) != 4 {
		t.Errorf("results = %d, want capped at 4", len(got.Results))
	}
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 200 * time.Millisecond, MaxDelay: 500 * time.Millisecond}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 500 * time.Millisecond}, // capped
		{4, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := p.delay(tt.attempt); got != tt.want {
			t.Errorf("delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicy_ContextCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastRetry().Do(ctx, func(context.Context) error {
		calls++
		return domain.ErrBackendConnection
	}, nil)
	if !errors.Is(err, domain.ErrBackendConnection) {
		t.Fatalf("err = %v, want the last backend error", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1 under a cancelled context", calls)
	}
}
