package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/config"
	dbRedis "github.com/askaws-cloud/askaws/internal/db/redis"
	logpkg "github.com/askaws-cloud/askaws/internal/logger"
	"github.com/askaws-cloud/askaws/internal/metrics"
	"github.com/askaws-cloud/askaws/internal/repository/qcache"
	sessionrepo "github.com/askaws-cloud/askaws/internal/repository/session"
	"github.com/askaws-cloud/askaws/internal/transport/awsdocs"
	chiTransport "github.com/askaws-cloud/askaws/internal/transport/chi"
	openaiSum "github.com/askaws-cloud/askaws/internal/transport/openai"
	answeruc "github.com/askaws-cloud/askaws/internal/usecase/answer"
	classifyuc "github.com/askaws-cloud/askaws/internal/usecase/classify"
	healthuc "github.com/askaws-cloud/askaws/internal/usecase/health"
	normalizeuc "github.com/askaws-cloud/askaws/internal/usecase/normalize"
	pipelineuc "github.com/askaws-cloud/askaws/internal/usecase/pipeline"
	rankuc "github.com/askaws-cloud/askaws/internal/usecase/rank"
	searchuc "github.com/askaws-cloud/askaws/internal/usecase/search"
	strategyuc "github.com/askaws-cloud/askaws/internal/usecase/strategy"
	validateuc "github.com/askaws-cloud/askaws/internal/usecase/validate"
	"github.com/askaws-cloud/askaws/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting askaws API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("docs_base_url", cfg.Docs.BaseURL),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Documentation backend client
	docsClient := awsdocs.New(&awsdocs.Config{
		BaseURL:      cfg.Docs.BaseURL,
		APIKey:       cfg.Docs.APIKey,
		Timeout:      time.Duration(cfg.Docs.RequestTimeoutSec) * time.Second,
		RateLimitRPS: cfg.Docs.RateLimitRPS,
		RateBurst:    cfg.Docs.RateBurst,
		Logger:       logger,
	})

	// Repositories
	resultCache := qcache.New(store, cfg.Database.KeyPrefix, logger)
	sessions := sessionrepo.New(store, cfg.Database.KeyPrefix,
		time.Duration(cfg.Session.IdleTTLSec)*time.Second, logger)

	// Pipeline stage services
	validator := validateuc.New(validateuc.Options{
		MinLength:       cfg.Validation.MinLength,
		MaxLength:       cfg.Validation.MaxLength,
		ProfanityFilter: cfg.Validation.ProfanityFilter,
		BlockedTerms:    cfg.Validation.BlockedTerms,
	})
	normalizer := normalizeuc.New()
	classifier := classifyuc.New(classifyuc.Options{
		TypePriority: cfg.Classify.TypePriority,
	})
	strategist := strategyuc.New(strategyuc.Options{
		MaxPrimaryTopics:  cfg.Search.MaxPrimaryTopics,
		MaxFallbackTopics: cfg.Search.MaxFallbackTopics,
		FallbackPool:      cfg.Search.FallbackPool,
		TimeoutCeiling:    time.Duration(cfg.Search.TimeoutCeilingSec) * time.Second,
	})
	ranker := rankuc.New(rankuc.Weights{
		Relevance: cfg.Rank.RelevanceWeight,
		Service:   cfg.Rank.ServiceWeight,
		Title:     cfg.Rank.TitleWeight,
		Quality:   cfg.Rank.QualityWeight,
	})
	searcher := searchuc.New(docsClient, resultCache, ranker, logger, searchuc.Options{
		CacheTTL:          time.Duration(cfg.Search.CacheTTLSec) * time.Second,
		Concurrency:       cfg.Search.Concurrency,
		MinPrimaryResults: cfg.Search.MinPrimaryResults,
		Retry: searchuc.RetryPolicy{
			MaxAttempts: cfg.Search.Retry.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Search.Retry.BaseDelayMs) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.Search.Retry.MaxDelayMs) * time.Millisecond,
		},
	})

	// Pass nil interface (not typed nil pointer!) if polishing is disabled.
	// Go gotcha: (*openaiSum.Summarizer)(nil) wrapped in answer.Summarizer != nil.
	var summarizer answeruc.Summarizer
	if cfg.OpenAI.Enabled {
		summarizer = openaiSum.NewSummarizer(&openaiSum.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Logger:  logger,
		})
		logger.Info("Answer polishing enabled", zap.String("model", cfg.OpenAI.Model))
	}
	answerer := answeruc.New(logger, answeruc.Options{
		MaxSources: cfg.Answer.MaxSources,
		MinScore:   cfg.Answer.MinScore,
	}, summarizer)

	pipe := pipelineuc.New(
		validator, normalizer, classifier, strategist,
		searcher, answerer, sessions, logger,
	)

	// Health service
	healthSvc := healthuc.New(store, docsClient)

	// Create chi server
	server := chiTransport.NewServer(pipe, sessions, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "INTERNAL_ERROR",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
