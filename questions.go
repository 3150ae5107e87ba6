package askaws

import (
	"context"
	"fmt"

	pipelineuc "github.com/askaws-cloud/askaws/internal/usecase/pipeline"
)

// QuestionService processes questions outside of any session.
type QuestionService struct {
	pipe *pipelineuc.Service
}

// Ask runs the full pipeline for one question. The returned Result is
// populated as far as processing got even when err is non-nil.
func (q *QuestionService) Ask(ctx context.Context, question string) (Result, error) {
	res, err := q.pipe.ProcessQuestion(ctx, question, "", pipelineuc.Metadata{})
	if err != nil {
		return fromDomainResult(res), fmt.Errorf("ask: %w", err)
	}
	return fromDomainResult(res), nil
}

// Validate screens a raw question without processing it.
func (q *QuestionService) Validate(question string) Validation {
	return fromDomainValidation(q.pipe.Validate(question))
}

// Normalize returns the cleaned form of a question.
func (q *QuestionService) Normalize(question string) string {
	return q.pipe.Normalize(question).Normalized
}

// Analyze classifies a question without searching.
func (q *QuestionService) Analyze(question string) Analysis {
	return fromDomainAnalysis(q.pipe.Analyze(question))
}
