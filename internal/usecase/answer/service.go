// Package answer synthesizes a markdown answer from ranked documentation
// results. The synthesizer never invents content: everything in the answer
// body is assembled from result excerpts, and an empty selection produces
// the fixed not-found response instead of prose.
package answer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/domain"
	"github.com/askaws-cloud/askaws/internal/metrics"
)

// Confidence dampers. Applied multiplicatively to the average source score.
const (
	lowAnalysisConfidence = 0.5  // threshold below which the damper applies
	analysisDamper        = 0.8  // weak classification
	fewSourcesDamper      = 0.75 // fewer than two sources
)

// Summarizer optionally rewrites a drafted answer for readability. A failed
// polish is not an error: the draft ships as-is.
type Summarizer interface {
	Polish(ctx context.Context, question, draft string) (string, error)
}

// Options configures answer synthesis.
type Options struct {
	MaxSources int     // top-N results cited, default 5
	MinScore   float64 // results scoring below this are dropped, default 0.1
}

// Service builds answers. Safe for concurrent use.
type Service struct {
	opts       Options
	summarizer Summarizer // nil disables polishing
	log        *zap.Logger
}

// New builds an answer synthesizer. summarizer may be nil.
func New(log *zap.Logger, opts Options, summarizer Summarizer) *Service {
	if opts.MaxSources <= 0 {
		opts.MaxSources = 5
	}
	if opts.MinScore <= 0 {
		opts.MinScore = 0.1
	}
	return &Service{opts: opts, summarizer: summarizer, log: log}
}

// Generate synthesizes an answer from a search outcome. Elapsed covers only
// synthesis, not the search that produced the outcome.
func (s *Service) Generate(ctx context.Context, question string, outcome domain.SearchOutcome) domain.Answer {
	start := time.Now()

	selected := s.selectResults(outcome.Results)
	if len(selected) == 0 {
		metrics.AnswersWithoutSources.Inc()
		ans := notFoundAnswer(outcome.Analysis)
		ans.Elapsed = time.Since(start)
		return ans
	}

	text := s.composeBody(selected, outcome.Analysis)
	if s.summarizer != nil {
		polished, err := s.summarizer.Polish(ctx, question, text)
		if err != nil {
			s.log.Warn("answer polish failed, shipping draft", zap.Error(err))
		} else if polished != "" {
			text = polished
		}
	}

	return domain.Answer{
		Text:       text,
		Sources:    sourcesOf(selected),
		Confidence: s.confidence(selected, outcome.Analysis),
		Elapsed:    time.Since(start),
	}
}

func (s *Service) selectResults(results []domain.Ranking) []domain.Ranking {
	var out []domain.Ranking
	for _, r := range results {
		if r.Final < s.opts.MinScore {
			continue
		}
		out = append(out, r)
		if len(out) == s.opts.MaxSources {
			break
		}
	}
	return out
}

func notFoundAnswer(analysis domain.Analysis) domain.Answer {
	suggestions := []string{
		"Try rephrasing the question with more specific terms",
	}
	if names := analysis.ServiceNames(); len(names) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Ask about one aspect of %s at a time", strings.Join(names, " and ")))
	} else {
		suggestions = append(suggestions,
			"Include the AWS service name the question is about")
	}
	suggestions = append(suggestions,
		"Use full service names instead of abbreviations")

	return domain.Answer{
		Text: fmt.Sprintf("%s for your question.\n\nSuggestions:\n- %s\n",
			domain.NotFoundMarker, strings.Join(suggestions, "\n- ")),
		Confidence:  0,
		Suggestions: suggestions,
	}
}

// composeBody assembles the markdown answer: an opening paragraph from the
// top excerpts, an optional numbered steps section, code snippets in fenced
// blocks, and the source list.
func (s *Service) composeBody(selected []domain.Ranking, analysis domain.Analysis) string {
	var b strings.Builder

	b.WriteString(openingParagraph(selected))
	b.WriteString("\n")

	if analysis.Type == domain.TypeHowTo || analysis.Type == domain.TypeTroubleshooting {
		if steps := imperativeSentences(selected); len(steps) > 0 {
			b.WriteString("\n## Steps\n\n")
			for i, step := range steps {
				fmt.Fprintf(&b, "%d. %s\n", i+1, step)
			}
		}
	}

	if snippets := codeSnippets(selected); len(snippets) > 0 {
		b.WriteString("\n## Examples\n")
		for _, snip := range snippets {
			fmt.Fprintf(&b, "\n```\n%s\n```\n", snip)
		}
	}

	b.WriteString("\n## Sources\n\n")
	seen := make(map[string]bool, len(selected))
	for _, r := range selected {
		url := r.CanonicalURL()
		if seen[url] {
			continue
		}
		seen[url] = true
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(&b, "- [%s](%s)\n", title, r.URL)
	}
	return b.String()
}

// openingParagraph joins the top one or two excerpts into a direct answer.
func openingParagraph(selected []domain.Ranking) string {
	var parts []string
	for _, r := range selected {
		if text := collapseSpace(r.Context); text != "" {
			parts = append(parts, ensurePeriod(text))
		}
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, " ") + "\n"
}

var imperativeLeads = map[string]bool{
	"open": true, "choose": true, "select": true, "click": true, "run": true,
	"create": true, "configure": true, "enable": true, "set": true,
	"add": true, "use": true, "install": true, "navigate": true, "go": true,
	"check": true, "verify": true, "update": true, "delete": true,
	"attach": true, "specify": true, "define": true, "sign": true,
}

// imperativeSentences pulls step-like sentences out of the excerpts.
func imperativeSentences(selected []domain.Ranking) []string {
	var steps []string
	seen := make(map[string]bool)
	for _, r := range selected {
		for _, sentence := range splitSentences(r.Context) {
			fields := strings.Fields(sentence)
			if len(fields) < 2 {
				continue
			}
			if !imperativeLeads[strings.ToLower(fields[0])] {
				continue
			}
			step := ensurePeriod(sentence)
			if seen[step] {
				continue
			}
			seen[step] = true
			steps = append(steps, step)
		}
	}
	return steps
}

var codeSpanRe = regexp.MustCompile("`([^`\n]+)`")
var cliCommandRe = regexp.MustCompile(`\baws [a-z0-9-]+ [a-z0-9-]+(?: --?[a-zA-Z0-9-]+(?: [^\s.,]+)?)*`)

// codeSnippets extracts code-like substrings verbatim: inline code spans and
// CLI invocations.
func codeSnippets(selected []domain.Ranking) []string {
	var snippets []string
	seen := make(map[string]bool)
	add := func(snip string) {
		snip = strings.TrimSpace(snip)
		if snip == "" || seen[snip] {
			return
		}
		for _, existing := range snippets {
			if strings.Contains(existing, snip) {
				return
			}
		}
		seen[snip] = true
		snippets = append(snippets, snip)
	}
	for _, r := range selected {
		for _, m := range codeSpanRe.FindAllStringSubmatch(r.Context, -1) {
			add(m[1])
		}
		for _, m := range cliCommandRe.FindAllString(r.Context, -1) {
			add(m)
		}
	}
	return snippets
}

// confidence averages the selected scores, dampened when the classification
// itself was shaky or when too few sources back the answer.
func (s *Service) confidence(selected []domain.Ranking, analysis domain.Analysis) float64 {
	var sum float64
	for _, r := range selected {
		sum += r.Final
	}
	conf := sum / float64(len(selected))
	if analysis.Confidence < lowAnalysisConfidence {
		conf *= analysisDamper
	}
	if len(selected) < 2 {
		conf *= fewSourcesDamper
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}

func sourcesOf(selected []domain.Ranking) []domain.Source {
	seen := make(map[string]bool, len(selected))
	var out []domain.Source
	for _, r := range selected {
		url := r.CanonicalURL()
		if seen[url] {
			continue
		}
		seen[url] = true
		out = append(out, domain.Source{URL: r.URL, Title: r.Title})
	}
	return out
}

var spaceRun = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func ensurePeriod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s[len(s)-1:], ".!?:") {
		return s
	}
	return s + "."
}

func splitSentences(text string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(collapseSpace(text), func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
