// Package awsdocs is the HTTP client for the documentation search backend.
// Every failure maps to one of the four backend error sentinels so the
// search orchestrator can decide retryability without inspecting transport
// details.
package awsdocs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/askaws-cloud/askaws/internal/domain"
	"github.com/askaws-cloud/askaws/internal/metrics"
)

// Config holds the documentation backend settings.
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	RateLimitRPS float64 // 0 = unlimited
	RateBurst    int
	Logger       *zap.Logger
}

// Client talks to the documentation search backend.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a documentation backend client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  cfg.Logger,
	}
}

type searchRequest struct {
	Query string `json:"query"`
	Topic string `json:"topic"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Results []struct {
		URL       string `json:"url"`
		Title     string `json:"title"`
		Context   string `json:"context"`
		RankOrder int    `json:"rank_order"`
	} `json:"results"`
}

// Search queries one topic. The returned results carry the backend's rank
// order; topic attribution is filled in by the caller.
func (c *Client) Search(ctx context.Context, query string, topic domain.Topic, limit int) ([]domain.SearchResult, error) {
	body, err := json.Marshal(searchRequest{Query: query, Topic: string(topic), Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	start := time.Now()
	data, err := c.do(ctx, http.MethodPost, "/api/search", bytes.NewReader(body))
	metrics.DocsRequestDuration.WithLabelValues(string(topic)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DocsRequestsTotal.WithLabelValues(string(topic), "error").Inc()
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		metrics.DocsRequestsTotal.WithLabelValues(string(topic), "error").Inc()
		return nil, fmt.Errorf("decode search response: %w", domain.ErrBackendSearch)
	}
	if !resp.Success {
		metrics.DocsRequestsTotal.WithLabelValues(string(topic), "error").Inc()
		return nil, fmt.Errorf("backend reported %q: %w", resp.Error, domain.ErrBackendSearch)
	}
	metrics.DocsRequestsTotal.WithLabelValues(string(topic), "success").Inc()

	results := make([]domain.SearchResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = domain.SearchResult{
			URL:       r.URL,
			Title:     r.Title,
			Context:   r.Context,
			RankOrder: r.RankOrder,
		}
	}
	return results, nil
}

type readResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// Read fetches one documentation page body. maxLength <= 0 means no limit.
func (c *Client) Read(ctx context.Context, pageURL string, maxLength int) (domain.DocContent, error) {
	q := url.Values{"url": {pageURL}}
	if maxLength > 0 {
		q.Set("max_length", strconv.Itoa(maxLength))
	}

	data, err := c.do(ctx, http.MethodGet, "/api/read?"+q.Encode(), nil)
	if err != nil {
		return domain.DocContent{}, err
	}

	var resp readResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.DocContent{}, fmt.Errorf("decode read response: %w", domain.ErrBackendSearch)
	}
	if !resp.Success {
		return domain.DocContent{}, fmt.Errorf("backend reported %q: %w", resp.Error, domain.ErrBackendSearch)
	}
	return domain.DocContent{Content: resp.Content, Truncated: resp.Truncated}, nil
}

// HealthCheck verifies backend availability.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodGet, "/health", nil); err != nil {
		return fmt.Errorf("docs backend health: %w", err)
	}
	return nil
}

// do runs one rate-limited request and maps transport failures to the
// backend error sentinels.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", domain.ErrBackendConnection)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrBackendRateLimited)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrBackendTimeout)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrBackendSearch)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrBackendSearch)
	}
	return data, nil
}

func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request: %w", domain.ErrBackendTimeout)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("request: %w", domain.ErrBackendTimeout)
	}
	return fmt.Errorf("request: %w", domain.ErrBackendConnection)
}
