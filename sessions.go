package askaws

import (
	"context"
	"fmt"

	sessionrepo "github.com/askaws-cloud/askaws/internal/repository/session"
	pipelineuc "github.com/askaws-cloud/askaws/internal/usecase/pipeline"
)

// SessionService manages sessions and session-scoped questions.
type SessionService struct {
	pipe *pipelineuc.Service
	repo *sessionrepo.Repository
}

// New creates a session. preferences may be nil.
func (s *SessionService) New(ctx context.Context, preferences map[string]string) (Session, error) {
	session, err := s.repo.Create(ctx, preferences)
	if err != nil {
		return Session{}, fmt.Errorf("new session: %w", err)
	}
	return fromDomainSession(session), nil
}

// Get fetches a session by ID.
func (s *SessionService) Get(ctx context.Context, sessionID string) (Session, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return fromDomainSession(session), nil
}

// Ask runs the full pipeline for one question inside a session; the
// question/answer pair is appended to the session history.
func (s *SessionService) Ask(ctx context.Context, sessionID, question string) (Result, error) {
	res, err := s.pipe.ProcessQuestion(ctx, question, sessionID, pipelineuc.Metadata{})
	if err != nil {
		return fromDomainResult(res), fmt.Errorf("ask: %w", err)
	}
	return fromDomainResult(res), nil
}

// History returns the session's conversation entries in chronological order.
func (s *SessionService) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	entries, err := s.repo.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = fromDomainEntry(e)
	}
	return out, nil
}
