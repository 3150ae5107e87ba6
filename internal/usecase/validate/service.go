package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/askaws-cloud/askaws/internal/domain"
	"github.com/askaws-cloud/askaws/internal/lexicon"
)

// Options holds validation bounds and the content filter setting.
type Options struct {
	MinLength       int
	MaxLength       int
	ProfanityFilter bool
	BlockedTerms    []string
}

// Service rejects malformed questions before any backend work happens.
// Validation is a pure function over the input string and static options.
type Service struct {
	opts    Options
	blocked []string // lowercased
}

// New creates a validator. Zero-value bounds fall back to 3/2000.
func New(opts Options) *Service {
	if opts.MinLength <= 0 {
		opts.MinLength = 3
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = 2000
	}
	blocked := make([]string, 0, len(opts.BlockedTerms))
	for _, t := range opts.BlockedTerms {
		if t != "" {
			blocked = append(blocked, strings.ToLower(t))
		}
	}
	return &Service{opts: opts, blocked: blocked}
}

// Validate applies the rules in order, short-circuiting on the first error.
// A question with no detectable AWS signal is flagged with a warning, not
// rejected.
func (s *Service) Validate(raw string) domain.Validation {
	v := domain.Validation{Language: detectLanguage(raw)}
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		v.Errors = append(v.Errors, domain.ValidationIssue{
			Code:       domain.CodeEmptyQuestion,
			Severity:   domain.SeverityError,
			Message:    "question is empty",
			Suggestion: "enter a question about an AWS service",
		})
		return v
	}

	if utf8.RuneCountInString(trimmed) < s.opts.MinLength {
		v.TooShort = true
		v.Errors = append(v.Errors, domain.ValidationIssue{
			Code:       domain.CodeTooShort,
			Severity:   domain.SeverityError,
			Message:    "question is too short",
			Suggestion: "add more detail about what you are trying to do",
		})
		return v
	}

	if utf8.RuneCountInString(trimmed) > s.opts.MaxLength {
		v.TooLong = true
		v.Errors = append(v.Errors, domain.ValidationIssue{
			Code:       domain.CodeTooLong,
			Severity:   domain.SeverityError,
			Message:    "question is too long",
			Suggestion: "shorten the question to its essential parts",
		})
		return v
	}

	if s.opts.ProfanityFilter {
		lower := strings.ToLower(trimmed)
		for _, term := range s.blocked {
			if strings.Contains(lower, term) {
				v.Errors = append(v.Errors, domain.ValidationIssue{
					Code:       domain.CodeOffensiveContent,
					Severity:   domain.SeverityError,
					Message:    "question contains blocked content",
					Suggestion: "rephrase the question without offensive language",
				})
				return v
			}
		}
	}

	v.Valid = true
	v.AWSRelated = lexicon.HasAWSSignal(trimmed)
	if !v.AWSRelated {
		v.Warnings = append(v.Warnings, domain.ValidationIssue{
			Code:       domain.CodeNotAWSRelated,
			Severity:   domain.SeverityWarning,
			Message:    "no AWS service or keyword detected",
			Suggestion: "mention the AWS service the question is about, e.g. S3 or Lambda",
		})
	}

	return v
}

// detectLanguage is best-effort: mostly non-Latin letters report "und",
// everything else defaults to "en".
func detectLanguage(text string) string {
	var letters, latin int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r < 0x250 { // Latin plus Latin-1/Extended
			latin++
		}
	}
	if letters > 0 && float64(latin)/float64(letters) < 0.5 {
		return "und"
	}
	return "en"
}
