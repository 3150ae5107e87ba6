package pipeline

import (
	"context"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// Validator screens raw question text.
type Validator interface {
	Validate(text string) domain.Validation
}

// Normalizer cleans question text for downstream stages.
type Normalizer interface {
	Normalize(text string) domain.Normalization
}

// Classifier analyzes normalized question text.
type Classifier interface {
	Analyze(text string) domain.Analysis
}

// Strategist maps an analysis to a search plan.
type Strategist interface {
	Build(analysis domain.Analysis) domain.Strategy
}

// Searcher runs the documentation search orchestration.
type Searcher interface {
	Search(ctx context.Context, question string, analysis domain.Analysis, strategy domain.Strategy) (domain.SearchOutcome, error)
}

// AnswerGenerator synthesizes the final answer.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, outcome domain.SearchOutcome) domain.Answer
}

// SessionStore persists sessions and conversation history. The pipeline
// treats it as best-effort: a store failure degrades history, not answers.
type SessionStore interface {
	Create(ctx context.Context, preferences map[string]string) (domain.Session, error)
	Append(ctx context.Context, sessionID string, entry domain.ConversationEntry) error
}
