// Package strategy turns a question analysis into a concrete search plan:
// which topics to query first, which to hold in reserve, how many results to
// keep, and how long the search may take.
package strategy

import (
	"time"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// Per-complexity plan tiers. Result counts grow with complexity while the
// timeout does too: a complex question is worth waiting longer for.
var tiers = map[domain.Complexity]struct {
	maxResults int
	timeout    time.Duration
}{
	domain.ComplexitySimple:   {maxResults: 5, timeout: 5 * time.Second},
	domain.ComplexityModerate: {maxResults: 8, timeout: 10 * time.Second},
	domain.ComplexityComplex:  {maxResults: 12, timeout: 15 * time.Second},
}

// Options configures the strategist.
type Options struct {
	MaxPrimaryTopics  int
	MaxFallbackTopics int
	FallbackPool      []string      // topic names eligible as fallbacks
	TimeoutCeiling    time.Duration // hard cap on the per-search timeout
}

// Service builds search strategies. Pure and stateless apart from Options.
type Service struct {
	opts Options
}

// New builds a strategist.
func New(opts Options) *Service {
	if opts.MaxPrimaryTopics <= 0 {
		opts.MaxPrimaryTopics = 3
	}
	if opts.MaxFallbackTopics <= 0 {
		opts.MaxFallbackTopics = 2
	}
	if len(opts.FallbackPool) == 0 {
		opts.FallbackPool = []string{
			string(domain.TopicGeneral),
			string(domain.TopicReference),
			string(domain.TopicBestPractices),
		}
	}
	if opts.TimeoutCeiling <= 0 {
		opts.TimeoutCeiling = 30 * time.Second
	}
	return &Service{opts: opts}
}

// Build maps an analysis to a search strategy. Primary topics come from the
// analysis in suggestion order; fallbacks are pool topics not already primary.
func (s *Service) Build(analysis domain.Analysis) domain.Strategy {
	primary := analysis.Topics
	if len(primary) > s.opts.MaxPrimaryTopics {
		primary = primary[:s.opts.MaxPrimaryTopics]
	}
	primary = append([]domain.Topic(nil), primary...)

	inPrimary := make(map[domain.Topic]bool, len(primary))
	for _, t := range primary {
		inPrimary[t] = true
	}
	var fallback []domain.Topic
	for _, name := range s.opts.FallbackPool {
		t := domain.Topic(name)
		if inPrimary[t] {
			continue
		}
		fallback = append(fallback, t)
		if len(fallback) == s.opts.MaxFallbackTopics {
			break
		}
	}

	tier := tiers[analysis.Complexity]
	if tier.maxResults == 0 {
		tier = tiers[domain.ComplexityModerate]
	}
	timeout := tier.timeout
	if timeout > s.opts.TimeoutCeiling {
		timeout = s.opts.TimeoutCeiling
	}

	return domain.Strategy{
		Primary:     primary,
		Fallback:    fallback,
		MaxResults:  tier.maxResults,
		Timeout:     timeout,
		AllowCached: true,
	}
}
