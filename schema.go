package askaws

import (
	"time"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// Source is one cited documentation page.
type Source struct {
	URL   string
	Title string
}

// Answer is the synthesized response for one question.
type Answer struct {
	Text        string // markdown
	Sources     []Source
	Confidence  float64
	Suggestions []string // rephrase hints when nothing was found
}

// ServiceRef is one detected AWS service mention.
type ServiceRef struct {
	Name       string
	Code       string
	Category   string
	Confidence float64
}

// Analysis is the classifier output for one question.
type Analysis struct {
	Type       string
	Complexity string
	Services   []ServiceRef
	Confidence float64
	Topics     []string
}

// Issue is one validation error or warning.
type Issue struct {
	Code       string
	Severity   string
	Message    string
	Suggestion string
}

// Validation is the validator output for one raw question string.
type Validation struct {
	Valid      bool
	AWSRelated bool
	Language   string
	Errors     []Issue
	Warnings   []Issue
}

// Result is the full pipeline output for one question.
type Result struct {
	QuestionID   string
	SessionID    string
	Answer       Answer
	Analysis     Analysis
	Validation   Validation
	Cached       bool
	UsedFallback bool
	SearchTime   time.Duration
	TotalTime    time.Duration
}

// Session groups a chronological sequence of questions and answers.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
	Preferences  map[string]string
}

// HistoryEntry is one question/answer pair in a session history.
type HistoryEntry struct {
	QuestionID   string
	Question     string
	Answer       string
	Sources      []Source
	ResponseTime time.Duration
	AskedAt      time.Time
}

func fromDomainSources(sources []domain.Source) []Source {
	out := make([]Source, len(sources))
	for i, s := range sources {
		out[i] = Source{URL: s.URL, Title: s.Title}
	}
	return out
}

func fromDomainAnswer(a domain.Answer) Answer {
	return Answer{
		Text:        a.Text,
		Sources:     fromDomainSources(a.Sources),
		Confidence:  a.Confidence,
		Suggestions: a.Suggestions,
	}
}

func fromDomainAnalysis(a domain.Analysis) Analysis {
	services := make([]ServiceRef, len(a.Services))
	for i, s := range a.Services {
		services[i] = ServiceRef{
			Name:       s.Name,
			Code:       s.Code,
			Category:   s.Category,
			Confidence: s.Confidence,
		}
	}
	topics := make([]string, len(a.Topics))
	for i, t := range a.Topics {
		topics[i] = string(t)
	}
	return Analysis{
		Type:       string(a.Type),
		Complexity: string(a.Complexity),
		Services:   services,
		Confidence: a.Confidence,
		Topics:     topics,
	}
}

func fromDomainIssues(issues []domain.ValidationIssue) []Issue {
	if len(issues) == 0 {
		return nil
	}
	out := make([]Issue, len(issues))
	for i, iss := range issues {
		out[i] = Issue{
			Code:       iss.Code,
			Severity:   string(iss.Severity),
			Message:    iss.Message,
			Suggestion: iss.Suggestion,
		}
	}
	return out
}

func fromDomainValidation(v domain.Validation) Validation {
	return Validation{
		Valid:      v.Valid,
		AWSRelated: v.AWSRelated,
		Language:   v.Language,
		Errors:     fromDomainIssues(v.Errors),
		Warnings:   fromDomainIssues(v.Warnings),
	}
}

func fromDomainResult(r domain.ProcessResult) Result {
	return Result{
		QuestionID:   r.Question.ID,
		SessionID:    r.Question.SessionID,
		Answer:       fromDomainAnswer(r.Answer),
		Analysis:     fromDomainAnalysis(r.Analysis),
		Validation:   fromDomainValidation(r.Validation),
		Cached:       r.Cached,
		UsedFallback: r.UsedFallback,
		SearchTime:   r.SearchElapsed,
		TotalTime:    r.TotalElapsed,
	}
}

func fromDomainSession(s domain.Session) Session {
	return Session{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		ExpiresAt:    s.ExpiresAt,
		Preferences:  s.Preferences,
	}
}

func fromDomainEntry(e domain.ConversationEntry) HistoryEntry {
	return HistoryEntry{
		QuestionID:   e.QuestionID,
		Question:     e.Question,
		Answer:       e.Answer,
		Sources:      fromDomainSources(e.Sources),
		ResponseTime: time.Duration(e.ResponseTimeMs) * time.Millisecond,
		AskedAt:      e.AskedAt,
	}
}
