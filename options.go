package askaws

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	docsBaseURL string
	docsAPIKey  string
	docsTimeout time.Duration

	summarizer   Summarizer
	logger       *zap.Logger
	sessionTTL   time.Duration
	typePriority []string
}

// WithRedis sets the Redis address(es) backing the result cache and session store.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	}
}

// WithKeyPrefix sets the Redis key prefix. Defaults to "askaws:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithDocsBackend sets the documentation search backend. apiKey may be empty
// when the backend does not require authentication.
func WithDocsBackend(baseURL, apiKey string) Option {
	return func(c *clientConfig) {
		c.docsBaseURL = baseURL
		c.docsAPIKey = apiKey
	}
}

// WithDocsTimeout sets the per-request timeout for the documentation backend.
func WithDocsTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.docsTimeout = timeout
	}
}

// WithSummarizer enables answer polishing through the given summarizer.
func WithSummarizer(s Summarizer) Option {
	return func(c *clientConfig) {
		c.summarizer = s
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithSessionTTL sets the session idle expiry. Defaults to 30 minutes.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.sessionTTL = ttl
	}
}

// WithTypePriority overrides the question-type tie-break order.
func WithTypePriority(types ...string) Option {
	return func(c *clientConfig) {
		c.typePriority = types
	}
}
