// Package classify analyzes a normalized question: which AWS services it
// mentions, what kind of question it is, how complex it is, and which
// documentation topics are worth searching for it.
package classify

import (
	"regexp"
	"strings"

	"github.com/askaws-cloud/askaws/internal/domain"
	"github.com/askaws-cloud/askaws/internal/lexicon"
)

// Match-kind confidence tiers: a full service name is a stronger signal
// than an alias, which is stronger than a bare short code.
const (
	nameConfidence  = 0.95
	aliasConfidence = 0.85
	codeConfidence  = 0.70
)

// typeScoreCeiling is the keyword score at which type confidence saturates.
const typeScoreCeiling = 4

// Options configures the classifier.
type Options struct {
	// TypePriority breaks keyword-score ties, highest priority first.
	// Unknown names are ignored; types missing from the list keep their
	// default relative order after the listed ones.
	TypePriority []string
}

// Service is the question classifier. Safe for concurrent use.
type Service struct {
	priority []domain.QuestionType
}

var keywordPatterns = compileKeywords()

func compileKeywords() map[domain.QuestionType][]*regexp.Regexp {
	out := make(map[domain.QuestionType][]*regexp.Regexp, len(typeKeywords))
	for t, phrases := range typeKeywords {
		res := make([]*regexp.Regexp, 0, len(phrases))
		for _, p := range phrases {
			res = append(res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(p)+`\b`))
		}
		out[t] = res
	}
	return out
}

// New builds a classifier with the given tie-break priority.
func New(opts Options) *Service {
	return &Service{priority: resolvePriority(opts.TypePriority)}
}

func resolvePriority(names []string) []domain.QuestionType {
	known := make(map[domain.QuestionType]bool, len(defaultTypePriority))
	for _, t := range defaultTypePriority {
		known[t] = true
	}
	var out []domain.QuestionType
	seen := make(map[domain.QuestionType]bool)
	for _, n := range names {
		t := domain.QuestionType(strings.ToLower(strings.TrimSpace(n)))
		if known[t] && !seen[t] {
			out = append(out, t)
			seen[t] = true
		}
	}
	for _, t := range defaultTypePriority {
		if !seen[t] {
			out = append(out, t)
		}
	}
	return out
}

// Analyze classifies text. The result always carries at least one topic.
func (s *Service) Analyze(text string) domain.Analysis {
	services := extractServices(text)
	qType, score := s.classifyType(text)
	return domain.Analysis{
		Type:       qType,
		Complexity: complexityOf(text, len(services)),
		Services:   services,
		Confidence: confidenceOf(services, score),
		Topics:     topicsFor(qType, services),
	}
}

// extractServices finds service mentions and merges duplicates, keeping the
// highest-confidence mention of each service and first-mention order.
func extractServices(text string) []domain.ServiceRef {
	var refs []domain.ServiceRef
	index := make(map[string]int)
	for _, m := range lexicon.FindServices(text) {
		ref := domain.ServiceRef{
			Name:       m.Entry.Name,
			Code:       m.Entry.Code,
			Category:   m.Entry.Category,
			Confidence: kindConfidence(m.Kind),
			Context:    m.Context,
		}
		if i, ok := index[ref.Name]; ok {
			if ref.Confidence > refs[i].Confidence {
				refs[i].Confidence = ref.Confidence
				refs[i].Context = ref.Context
			}
			continue
		}
		index[ref.Name] = len(refs)
		refs = append(refs, ref)
	}
	return refs
}

func kindConfidence(k lexicon.MatchKind) float64 {
	switch k {
	case lexicon.MatchName:
		return nameConfidence
	case lexicon.MatchAlias:
		return aliasConfidence
	default:
		return codeConfidence
	}
}

// classifyType scores every type by keyword hits and returns the winner with
// its score. Ties go to the higher-priority type; zero hits everywhere falls
// back to conceptual with score zero.
func (s *Service) classifyType(text string) (domain.QuestionType, int) {
	scores := make(map[domain.QuestionType]int, len(keywordPatterns))
	for t, patterns := range keywordPatterns {
		for _, re := range patterns {
			if re.MatchString(text) {
				scores[t]++
			}
		}
	}
	for _, re := range technicalPatterns {
		if re.MatchString(text) {
			scores[domain.TypeTechnical]++
		}
	}

	best := domain.TypeConceptual
	bestScore := 0
	for _, t := range s.priority {
		if scores[t] > bestScore {
			best = t
			bestScore = scores[t]
		}
	}
	return best, bestScore
}

func complexityOf(text string, serviceCount int) domain.Complexity {
	tokens := len(strings.Fields(text))
	questions := strings.Count(text, "?")
	switch {
	case serviceCount >= 3 || tokens > 30 || questions >= 2:
		return domain.ComplexityComplex
	case serviceCount <= 1 && tokens < 12:
		return domain.ComplexitySimple
	default:
		return domain.ComplexityModerate
	}
}

// confidenceOf blends the service-match signal with the keyword-score
// signal. With no detected services and no keyword hits it bottoms out at
// zero, which callers read as a low-confidence default classification.
func confidenceOf(services []domain.ServiceRef, typeScore int) float64 {
	var avg float64
	if len(services) > 0 {
		var sum float64
		for _, s := range services {
			sum += s.Confidence
		}
		avg = sum / float64(len(services))
	}
	boost := float64(typeScore) / typeScoreCeiling
	if boost > 1 {
		boost = 1
	}
	return 0.6*avg + 0.4*boost
}

// topicsFor combines the type's base topics with service-specific topics.
// The generic topic is always present so a search strategy can never end up
// with an empty topic list.
func topicsFor(qType domain.QuestionType, services []domain.ServiceRef) []domain.Topic {
	topics := append([]domain.Topic(nil), typeTopics[qType]...)
	have := make(map[domain.Topic]bool, len(topics)+2)
	for _, t := range topics {
		have[t] = true
	}
	for _, svc := range services {
		if t, ok := serviceTopics[svc.Name]; ok && !have[t] {
			topics = append(topics, t)
			have[t] = true
		}
	}
	if !have[domain.TopicGeneral] {
		topics = append(topics, domain.TopicGeneral)
	}
	return topics
}
