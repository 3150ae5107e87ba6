package askaws

import (
	"testing"
	"time"

	"github.com/askaws-cloud/askaws/internal/domain"
)

func TestFromDomainResult(t *testing.T) {
	in := domain.ProcessResult{
		Question: domain.Question{ID: "q-1", SessionID: "sess-1"},
		Validation: domain.Validation{
			Valid:      true,
			AWSRelated: true,
			Language:   "en",
			Warnings: []domain.ValidationIssue{{
				Code:       domain.CodeNotAWSRelated,
				Severity:   domain.SeverityWarning,
				Message:    "no AWS service detected",
				Suggestion: "mention the service you are asking about",
			}},
		},
		Analysis: domain.Analysis{
			Type:       domain.TypeHowTo,
			Complexity: domain.ComplexitySimple,
			Services:   []domain.ServiceRef{{Name: "S3", Code: "s3", Category: "storage", Confidence: 0.95}},
			Confidence: 0.8,
			Topics:     []domain.Topic{domain.TopicGeneral},
		},
		Answer: domain.Answer{
			Text:       "Use the console.",
			Sources:    []domain.Source{{URL: "https://docs.aws.amazon.com/s3", Title: "S3 Guide"}},
			Confidence: 0.9,
		},
		Cached:        true,
		UsedFallback:  true,
		SearchElapsed: 120 * time.Millisecond,
		TotalElapsed:  340 * time.Millisecond,
	}

	out := fromDomainResult(in)

	if out.QuestionID != "q-1" || out.SessionID != "sess-1" {
		t.Errorf("ids: got %q/%q", out.QuestionID, out.SessionID)
	}
	if out.Answer.Text != "Use the console." || out.Answer.Confidence != 0.9 {
		t.Errorf("answer: got %+v", out.Answer)
	}
	if len(out.Answer.Sources) != 1 || out.Answer.Sources[0].Title != "S3 Guide" {
		t.Errorf("sources: got %+v", out.Answer.Sources)
	}
	if out.Analysis.Type != "howto" || out.Analysis.Complexity != "simple" {
		t.Errorf("analysis: got %+v", out.Analysis)
	}
	if len(out.Analysis.Services) != 1 || out.Analysis.Services[0].Name != "S3" {
		t.Errorf("services: got %+v", out.Analysis.Services)
	}
	if len(out.Analysis.Topics) != 1 || out.Analysis.Topics[0] != "general" {
		t.Errorf("topics: got %+v", out.Analysis.Topics)
	}
	if len(out.Validation.Warnings) != 1 || out.Validation.Warnings[0].Code != domain.CodeNotAWSRelated {
		t.Errorf("warnings: got %+v", out.Validation.Warnings)
	}
	if out.Validation.Errors != nil {
		t.Errorf("errors should be nil, got %+v", out.Validation.Errors)
	}
	if !out.Cached || !out.UsedFallback {
		t.Error("cached/fallback flags lost in conversion")
	}
	if out.SearchTime != 120*time.Millisecond || out.TotalTime != 340*time.Millisecond {
		t.Errorf("timings: got %v/%v", out.SearchTime, out.TotalTime)
	}
}

func TestFromDomainSession(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	in := domain.Session{
		ID:           "sess-7",
		CreatedAt:    created,
		LastActivity: created.Add(5 * time.Minute),
		ExpiresAt:    created.Add(35 * time.Minute),
		Preferences:  map[string]string{"detail_level": "expert"},
	}

	out := fromDomainSession(in)

	if out.ID != "sess-7" {
		t.Errorf("id: got %q", out.ID)
	}
	if !out.ExpiresAt.Equal(created.Add(35 * time.Minute)) {
		t.Errorf("expires_at: got %v", out.ExpiresAt)
	}
	if out.Preferences["detail_level"] != "expert" {
		t.Errorf("preferences: got %v", out.Preferences)
	}
}

func TestFromDomainEntry(t *testing.T) {
	asked := time.Date(2026, 5, 1, 12, 3, 0, 0, time.UTC)
	in := domain.ConversationEntry{
		QuestionID:     "q-9",
		Question:       "How do I enable versioning?",
		Answer:         "Enable it on the bucket properties tab.",
		Sources:        []domain.Source{{URL: "https://docs.aws.amazon.com/s3/versioning", Title: "Versioning"}},
		ResponseTimeMs: 250,
		AskedAt:        asked,
	}

	out := fromDomainEntry(in)

	if out.QuestionID != "q-9" {
		t.Errorf("question_id: got %q", out.QuestionID)
	}
	if out.ResponseTime != 250*time.Millisecond {
		t.Errorf("response_time: got %v", out.ResponseTime)
	}
	if !out.AskedAt.Equal(asked) {
		t.Errorf("asked_at: got %v", out.AskedAt)
	}
	if len(out.Sources) != 1 || out.Sources[0].URL != "https://docs.aws.amazon.com/s3/versioning" {
		t.Errorf("sources: got %+v", out.Sources)
	}
}
