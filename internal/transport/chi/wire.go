package chi

import (
	"time"

	"github.com/askaws-cloud/askaws/internal/domain"
	healthuc "github.com/askaws-cloud/askaws/internal/usecase/health"
)

type errorResponse struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type sourceWire struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type answerWire struct {
	Text        string       `json:"text"`
	Sources     []sourceWire `json:"sources"`
	Confidence  float64      `json:"confidence"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

type serviceRefWire struct {
	Name       string  `json:"name"`
	Code       string  `json:"code,omitempty"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
}

type analysisWire struct {
	Type       string           `json:"type"`
	Complexity string           `json:"complexity"`
	Services   []serviceRefWire `json:"services"`
	Confidence float64          `json:"confidence"`
	Topics     []string         `json:"topics"`
}

type issueWire struct {
	Code       string `json:"code"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

type validationWire struct {
	Valid      bool        `json:"valid"`
	AWSRelated bool        `json:"aws_related"`
	Language   string      `json:"language"`
	Errors     []issueWire `json:"errors,omitempty"`
	Warnings   []issueWire `json:"warnings,omitempty"`
}

type changeWire struct {
	Type        string `json:"type"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Position    int    `json:"position"`
}

type normalizationWire struct {
	Original   string       `json:"original"`
	Normalized string       `json:"normalized"`
	Changes    []changeWire `json:"changes"`
}

type processResultWire struct {
	QuestionID   string         `json:"question_id"`
	SessionID    string         `json:"session_id,omitempty"`
	Answer       answerWire     `json:"answer"`
	Analysis     analysisWire   `json:"analysis"`
	Validation   validationWire `json:"validation"`
	Cached       bool           `json:"cached"`
	UsedFallback bool           `json:"used_fallback"`
	SearchTimeMs int64          `json:"search_time_ms"`
	TotalTimeMs  int64          `json:"total_time_ms"`
}

type sessionWire struct {
	SessionID    string            `json:"session_id"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
	ExpiresAt    time.Time         `json:"expires_at"`
	Preferences  map[string]string `json:"preferences,omitempty"`
}

type conversationEntryWire struct {
	QuestionID     string       `json:"question_id"`
	Question       string       `json:"question"`
	Answer         string       `json:"answer"`
	Sources        []sourceWire `json:"sources,omitempty"`
	ResponseTimeMs int64        `json:"response_time_ms"`
	AskedAt        time.Time    `json:"asked_at"`
}

type historyResponse struct {
	SessionID string                  `json:"session_id"`
	Items     []conversationEntryWire `json:"items"`
}

type healthWire struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func sourcesToWire(sources []domain.Source) []sourceWire {
	out := make([]sourceWire, len(sources))
	for i, s := range sources {
		out[i] = sourceWire{URL: s.URL, Title: s.Title}
	}
	return out
}

func answerToWire(a domain.Answer) answerWire {
	return answerWire{
		Text:        a.Text,
		Sources:     sourcesToWire(a.Sources),
		Confidence:  a.Confidence,
		Suggestions: a.Suggestions,
	}
}

func analysisToWire(a domain.Analysis) analysisWire {
	services := make([]serviceRefWire, len(a.Services))
	for i, s := range a.Services {
		services[i] = serviceRefWire{
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
	return analysisWire{
		Type:       string(a.Type),
		Complexity: string(a.Complexity),
		Services:   services,
		Confidence: a.Confidence,
		Topics:     topics,
	}
}

func issuesToWire(issues []domain.ValidationIssue) []issueWire {
	if len(issues) == 0 {
		return nil
	}
	out := make([]issueWire, len(issues))
	for i, iss := range issues {
		out[i] = issueWire{
			Code:       iss.Code,
			Severity:   string(iss.Severity),
			Message:    iss.Message,
			Suggestion: iss.Suggestion,
		}
	}
	return out
}

func validationToWire(v domain.Validation) validationWire {
	return validationWire{
		Valid:      v.Valid,
		AWSRelated: v.AWSRelated,
		Language:   v.Language,
		Errors:     issuesToWire(v.Errors),
		Warnings:   issuesToWire(v.Warnings),
	}
}

func normalizationToWire(n domain.Normalization) normalizationWire {
	changes := make([]changeWire, len(n.Changes))
	for i, c := range n.Changes {
		changes[i] = changeWire{
			Type:        string(c.Type),
			Original:    c.Original,
			Replacement: c.Replacement,
			Position:    c.Position,
		}
	}
	return normalizationWire{
		Original:   n.Original,
		Normalized: n.Normalized,
		Changes:    changes,
	}
}

func processResultToWire(r domain.ProcessResult) processResultWire {
	return processResultWire{
		QuestionID:   r.Question.ID,
		SessionID:    r.Question.SessionID,
		Answer:       answerToWire(r.Answer),
		Analysis:     analysisToWire(r.Analysis),
		Validation:   validationToWire(r.Validation),
		Cached:       r.Cached,
		UsedFallback: r.UsedFallback,
		SearchTimeMs: r.SearchElapsed.Milliseconds(),
		TotalTimeMs:  r.TotalElapsed.Milliseconds(),
	}
}

func sessionToWire(s domain.Session) sessionWire {
	return sessionWire{
		SessionID:    s.ID,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
		ExpiresAt:    s.ExpiresAt,
		Preferences:  s.Preferences,
	}
}

func entryToWire(e domain.ConversationEntry) conversationEntryWire {
	return conversationEntryWire{
		QuestionID:     e.QuestionID,
		Question:       e.Question,
		Answer:         e.Answer,
		Sources:        sourcesToWire(e.Sources),
		ResponseTimeMs: e.ResponseTimeMs,
		AskedAt:        e.AskedAt,
	}
}

func healthToWire(r healthuc.Report) healthWire {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return healthWire{Status: string(r.Status), Checks: checks}
}
