package domain

import "time"

// Question is one user question, immutable once created.
type Question struct {
	ID         string
	SessionID  string
	Text       string // original text as submitted
	Normalized string
	UserAgent  string
	Origin     string
	CreatedAt  time.Time
}

// QuestionType classifies the intent of a question.
type QuestionType string

const (
	TypeTechnical       QuestionType = "technical"
	TypeConceptual      QuestionType = "conceptual"
	TypeTroubleshooting QuestionType = "troubleshooting"
	TypeHowTo           QuestionType = "howto"
	TypeComparison      QuestionType = "comparison"
	TypePricing         QuestionType = "pricing"
	TypeSecurity        QuestionType = "security"
	TypePerformance     QuestionType = "performance"
	TypeIntegration     QuestionType = "integration"
)

// Complexity is the estimated effort tier of a question.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ServiceRef is one detected AWS service mention.
type ServiceRef struct {
	Name       string // canonical service name, e.g. "DynamoDB"
	Code       string // short code, e.g. "ddb"
	Category   string // e.g. "compute", "storage", "database"
	Confidence float64
	Context    string // surrounding text the match was found in
}

// Analysis is the classifier output for one question.
// Services are deduplicated by canonical name; Topics always has at least
// one entry (the generic fallback topic when no signal was found).
type Analysis struct {
	Type       QuestionType
	Complexity Complexity
	Services   []ServiceRef
	Confidence float64 // in [0,1]
	Topics     []Topic
}

// ServiceNames returns the canonical names of all detected services.
func (a Analysis) ServiceNames() []string {
	names := make([]string, len(a.Services))
	for i, s := range a.Services {
		names[i] = s.Name
	}
	return names
}
