// Package pipeline chains the question stages end to end: validate,
// normalize, classify, plan, search, answer, and record to the session
// history. Each stage is injected behind a narrow interface so transports
// and tests compose the pipeline from whatever implementations they need.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/domain"
	"github.com/askaws-cloud/askaws/internal/metrics"
)

// Metadata is request-scoped context recorded alongside a question.
type Metadata struct {
	UserAgent string
	Origin    string
}

// Service is the question processing pipeline.
type Service struct {
	validator  Validator
	normalizer Normalizer
	classifier Classifier
	strategist Strategist
	searcher   Searcher
	answerer   AnswerGenerator
	sessions   SessionStore
	log        *zap.Logger
}

// New wires the pipeline stages together.
func New(
	validator Validator,
	normalizer Normalizer,
	classifier Classifier,
	strategist Strategist,
	searcher Searcher,
	answerer AnswerGenerator,
	sessions SessionStore,
	log *zap.Logger,
) *Service {
	return &Service{
		validator:  validator,
		normalizer: normalizer,
		classifier: classifier,
		strategist: strategist,
		searcher:   searcher,
		answerer:   answerer,
		sessions:   sessions,
		log:        log,
	}
}

// ProcessQuestion runs the full pipeline for one question. A validation
// rejection or an unavailable documentation backend returns a typed error
// together with whatever stage output was produced before the failure; the
// session store failing never fails the question.
func (s *Service) ProcessQuestion(ctx context.Context, text, sessionID string, meta Metadata) (domain.ProcessResult, error) {
	start := time.Now()
	result := domain.ProcessResult{
		Question: domain.Question{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Text:      text,
			UserAgent: meta.UserAgent,
			Origin:    meta.Origin,
			CreatedAt: time.Now().UTC(),
		},
	}

	result.Validation = s.validator.Validate(text)
	if !result.Validation.Valid {
		metrics.QuestionsTotal.WithLabelValues("", "", "rejected").Inc()
		result.TotalElapsed = time.Since(start)
		return result, validationError(result.Validation)
	}

	result.Normalization = s.normalizer.Normalize(text)
	result.Question.Normalized = result.Normalization.Normalized

	result.Analysis = s.classifier.Analyze(result.Normalization.Normalized)
	strategy := s.strategist.Build(result.Analysis)

	if result.Question.SessionID == "" {
		session, err := s.sessions.Create(ctx, nil)
		if err != nil {
			s.log.Warn("session create failed, continuing without history", zap.Error(err))
		} else {
			result.Question.SessionID = session.ID
		}
	}

	outcome, err := s.searcher.Search(ctx, result.Normalization.Normalized, result.Analysis, strategy)
	result.Cached = outcome.Cached
	result.UsedFallback = outcome.UsedFallback
	result.SearchElapsed = outcome.Elapsed
	if err != nil {
		s.countQuestion(result.Analysis, "failed")
		result.TotalElapsed = time.Since(start)
		return result, err
	}

	result.Answer = s.answerer.Generate(ctx, result.Normalization.Normalized, outcome)
	result.TotalElapsed = time.Since(start)

	s.countQuestion(result.Analysis, "ok")
	metrics.PipelineDuration.WithLabelValues(string(result.Analysis.Type)).
		Observe(result.TotalElapsed.Seconds())

	s.recordHistory(ctx, result)
	return result, nil
}

// Validate runs only the validation stage, for tooling endpoints.
func (s *Service) Validate(text string) domain.Validation {
	return s.validator.Validate(text)
}

// Normalize runs only the normalization stage, for tooling endpoints.
func (s *Service) Normalize(text string) domain.Normalization {
	return s.normalizer.Normalize(text)
}

// Analyze normalizes and classifies without searching, for tooling endpoints.
func (s *Service) Analyze(text string) domain.Analysis {
	return s.classifier.Analyze(s.normalizer.Normalize(text).Normalized)
}

func (s *Service) countQuestion(analysis domain.Analysis, status string) {
	metrics.QuestionsTotal.WithLabelValues(
		string(analysis.Type), string(analysis.Complexity), status).Inc()
}

// recordHistory appends the finished question to the session, best-effort.
func (s *Service) recordHistory(ctx context.Context, result domain.ProcessResult) {
	if result.Question.SessionID == "" {
		return
	}
	entry := domain.ConversationEntry{
		QuestionID:     result.Question.ID,
		Question:       result.Question.Text,
		Answer:         result.Answer.Text,
		Sources:        result.Answer.Sources,
		ResponseTimeMs: result.TotalElapsed.Milliseconds(),
		AskedAt:        result.Question.CreatedAt,
	}
	if err := s.sessions.Append(ctx, result.Question.SessionID, entry); err != nil {
		s.log.Warn("history append failed",
			zap.String("session_id", result.Question.SessionID),
			zap.Error(err))
	}
}

// validationError maps a failed validation to its sentinel error.
func validationError(v domain.Validation) error {
	var err error
	switch code := v.FirstErrorCode(); code {
	case domain.CodeEmptyQuestion:
		err = domain.ErrEmptyQuestion
	case domain.CodeTooShort:
		err = domain.ErrQuestionTooShort
	case domain.CodeTooLong:
		err = domain.ErrQuestionTooLong
	case domain.CodeOffensiveContent:
		err = domain.ErrOffensiveContent
	default:
		return fmt.Errorf("validation failed with code %q", code)
	}
	if len(v.Errors) > 0 && v.Errors[0].Message != "" {
		return fmt.Errorf("%s: %w", v.Errors[0].Message, err)
	}
	return err
}
