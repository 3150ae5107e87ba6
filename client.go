// Package askaws is the embedded SDK: the full question pipeline wired
// in-process, without the HTTP server.
package askaws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/db"
	dbRedis "github.com/askaws-cloud/askaws/internal/db/redis"
	"github.com/askaws-cloud/askaws/internal/repository/qcache"
	sessionrepo "github.com/askaws-cloud/askaws/internal/repository/session"
	"github.com/askaws-cloud/askaws/internal/transport/awsdocs"
	answeruc "github.com/askaws-cloud/askaws/internal/usecase/answer"
	classifyuc "github.com/askaws-cloud/askaws/internal/usecase/classify"
	normalizeuc "github.com/askaws-cloud/askaws/internal/usecase/normalize"
	pipelineuc "github.com/askaws-cloud/askaws/internal/usecase/pipeline"
	rankuc "github.com/askaws-cloud/askaws/internal/usecase/rank"
	searchuc "github.com/askaws-cloud/askaws/internal/usecase/search"
	strategyuc "github.com/askaws-cloud/askaws/internal/usecase/strategy"
	validateuc "github.com/askaws-cloud/askaws/internal/usecase/validate"
)

const defaultReadinessTimeout = 10 * time.Second

// Summarizer polishes a drafted answer. Implementations must not invent
// content; a failed polish is not fatal, the draft ships as-is.
type Summarizer interface {
	Polish(ctx context.Context, question, draft string) (string, error)
}

// Client is the askaws SDK entry point.
type Client struct {
	store    db.Store
	pipe     *pipelineuc.Service
	sessions *sessionrepo.Repository
}

// New creates an askaws Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:  "askaws:",
		sessionTTL: 30 * time.Minute,
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("askaws: database address required (use WithRedis)")
	}
	if cfg.docsBaseURL == "" {
		return nil, errors.New("askaws: docs backend URL required (use WithDocsBackend)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("askaws: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("askaws: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	docsClient := awsdocs.New(&awsdocs.Config{
		BaseURL: cfg.docsBaseURL,
		APIKey:  cfg.docsAPIKey,
		Timeout: cfg.docsTimeout,
		Logger:  logger,
	})

	resultCache := qcache.New(store, cfg.keyPrefix, logger)
	sessions := sessionrepo.New(store, cfg.keyPrefix, cfg.sessionTTL, logger)

	validator := validateuc.New(validateuc.Options{})
	normalizer := normalizeuc.New()
	classifier := classifyuc.New(classifyuc.Options{TypePriority: cfg.typePriority})
	strategist := strategyuc.New(strategyuc.Options{})
	ranker := rankuc.New(rankuc.Weights{})
	searcher := searchuc.New(docsClient, resultCache, ranker, logger, searchuc.Options{})

	// Pass nil interface (not typed nil pointer!) if polishing is disabled.
	var summarizer answeruc.Summarizer
	if cfg.summarizer != nil {
		summarizer = &summarizerAdapter{inner: cfg.summarizer}
	}
	answerer := answeruc.New(logger, answeruc.Options{}, summarizer)

	pipe := pipelineuc.New(
		validator, normalizer, classifier, strategist,
		searcher, answerer, sessions, logger,
	)

	return &Client{store: store, pipe: pipe, sessions: sessions}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Questions returns the question processing service.
func (c *Client) Questions() *QuestionService {
	return &QuestionService{pipe: c.pipe}
}

// Sessions returns the session service.
func (c *Client) Sessions() *SessionService {
	return &SessionService{pipe: c.pipe, repo: c.sessions}
}

// summarizerAdapter wraps the public Summarizer to satisfy the internal one.
type summarizerAdapter struct {
	inner Summarizer
}

func (a *summarizerAdapter) Polish(ctx context.Context, question, draft string) (string, error) {
	polished, err := a.inner.Polish(ctx, question, draft)
	if err != nil {
		return "", fmt.Errorf("polish: %w", err)
	}
	return polished, nil
}
