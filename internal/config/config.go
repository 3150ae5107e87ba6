package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the askaws API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Docs       DocsConfig       `yaml:"docs"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Validation ValidationConfig `yaml:"validation"`
	Classify   ClassifyConfig   `yaml:"classify"`
	Search     SearchConfig     `yaml:"search"`
	Rank       RankConfig       `yaml:"rank"`
	Answer     AnswerConfig     `yaml:"answer"`
	Session    SessionConfig    `yaml:"session"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis connection settings for the cache and session store.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// DocsConfig holds documentation search backend settings.
type DocsConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	RateLimitRPS      float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateBurst         int     `yaml:"rate_burst"`
}

// OpenAIConfig holds the optional answer-polish model settings.
type OpenAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ValidationConfig holds question validation bounds.
type ValidationConfig struct {
	MinLength       int      `yaml:"min_length"`
	MaxLength       int      `yaml:"max_length"`
	ProfanityFilter bool     `yaml:"profanity_filter"`
	BlockedTerms    []string `yaml:"blocked_terms"`
}

// ClassifyConfig holds question classification policy.
type ClassifyConfig struct {
	// TypePriority breaks keyword-score ties; earlier entries win.
	TypePriority []string `yaml:"type_priority"`
}

// RetryConfig holds the per-topic retry policy.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
}

// SearchConfig holds search orchestration settings.
type SearchConfig struct {
	CacheTTLSec       int         `yaml:"cache_ttl_sec"`
	Concurrency       int         `yaml:"concurrency"` // global cap on outstanding backend calls
	MinPrimaryResults int         `yaml:"min_primary_results"`
	MaxPrimaryTopics  int         `yaml:"max_primary_topics"`
	MaxFallbackTopics int         `yaml:"max_fallback_topics"`
	FallbackPool      []string    `yaml:"fallback_pool"` // topics eligible as fallbacks
	TimeoutCeilingSec int         `yaml:"timeout_ceiling_sec"`
	Retry             RetryConfig `yaml:"retry"`
}

// RankConfig holds result scoring weights. Weights must sum to 1.
type RankConfig struct {
	RelevanceWeight float64 `yaml:"relevance_weight"`
	ServiceWeight   float64 `yaml:"service_weight"`
	TitleWeight     float64 `yaml:"title_weight"`
	QualityWeight   float64 `yaml:"quality_weight"`
}

// AnswerConfig holds answer synthesis settings.
type AnswerConfig struct {
	MaxSources int     `yaml:"max_sources"`
	MinScore   float64 `yaml:"min_score"`
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	IdleTTLSec int `yaml:"idle_ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "askaws:"
	}
	if c.Docs.RequestTimeoutSec <= 0 {
		c.Docs.RequestTimeoutSec = 15
	}
	if c.Docs.RateBurst <= 0 {
		c.Docs.RateBurst = 1
	}
	if c.Validation.MinLength <= 0 {
		c.Validation.MinLength = 3
	}
	if c.Validation.MaxLength <= 0 {
		c.Validation.MaxLength = 2000
	}
	if len(c.Classify.TypePriority) == 0 {
		c.Classify.TypePriority = []string{
			"troubleshooting", "howto", "technical", "comparison",
			"conceptual", "pricing", "security", "performance", "integration",
		}
	}
	if c.Search.CacheTTLSec <= 0 {
		c.Search.CacheTTLSec = 600
	}
	if c.Search.Concurrency <= 0 {
		c.Search.Concurrency = 5
	}
	if c.Search.MinPrimaryResults <= 0 {
		c.Search.MinPrimaryResults = 3
	}
	if c.Search.MaxPrimaryTopics <= 0 {
		c.Search.MaxPrimaryTopics = 3
	}
	if c.Search.MaxFallbackTopics <= 0 {
		c.Search.MaxFallbackTopics = 2
	}
	if len(c.Search.FallbackPool) == 0 {
		c.Search.FallbackPool = []string{"general", "reference_documentation", "best_practices"}
	}
	if c.Search.TimeoutCeilingSec <= 0 {
		c.Search.TimeoutCeilingSec = 30
	}
	if c.Search.Retry.MaxAttempts <= 0 {
		c.Search.Retry.MaxAttempts = 3
	}
	if c.Search.Retry.BaseDelayMs <= 0 {
		c.Search.Retry.BaseDelayMs = 200
	}
	if c.Search.Retry.MaxDelayMs <= 0 {
		c.Search.Retry.MaxDelayMs = 5000
	}
	if c.Rank.RelevanceWeight == 0 && c.Rank.ServiceWeight == 0 &&
		c.Rank.TitleWeight == 0 && c.Rank.QualityWeight == 0 {
		c.Rank.RelevanceWeight = 0.4
		c.Rank.ServiceWeight = 0.2
		c.Rank.TitleWeight = 0.2
		c.Rank.QualityWeight = 0.2
	}
	if c.Answer.MaxSources <= 0 {
		c.Answer.MaxSources = 5
	}
	if c.Answer.MinScore <= 0 {
		c.Answer.MinScore = 0.1
	}
	if c.Session.IdleTTLSec <= 0 {
		c.Session.IdleTTLSec = 1800
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Docs.BaseURL == "" {
		return fmt.Errorf("docs.base_url is required")
	}
	if c.Validation.MinLength > c.Validation.MaxLength {
		return fmt.Errorf("validation.min_length %d exceeds max_length %d",
			c.Validation.MinLength, c.Validation.MaxLength)
	}
	sum := c.Rank.RelevanceWeight + c.Rank.ServiceWeight + c.Rank.TitleWeight + c.Rank.QualityWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("rank weights must sum to 1, got %g", sum)
	}
	if c.OpenAI.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required when openai.enabled is true")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
