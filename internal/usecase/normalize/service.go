package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/askaws-cloud/askaws/internal/domain"
)

// Service produces a canonical question string with a typed record of
// every edit. Normalization is idempotent: running it on its own output
// yields zero changes.
type Service struct {
	spelling []compiledRule
	abbrev   []compiledRule
}

type compiledRule struct {
	re          *regexp.Regexp
	replacement string
}

// New creates a normalizer from the static substitution tables.
func New() *Service {
	return &Service{
		spelling: compileRules(misspellings),
		abbrev:   compileRules(abbreviations),
	}
}

func compileRules(subs []substitution) []compiledRule {
	rules := make([]compiledRule, len(subs))
	for i, s := range subs {
		rules[i] = compiledRule{
			re:          regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(s.pattern) + `\b`),
			replacement: s.replacement,
		}
	}
	return rules
}

var whitespaceRun = regexp.MustCompile(`\s{2,}|[\t\n\r]`)

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

// Normalize collapses whitespace, fixes known misspellings, and expands
// AWS abbreviations. Changes are ordered by position in the original
// string.
func (s *Service) Normalize(raw string) domain.Normalization {
	out := domain.Normalization{Original: raw}
	ed := newEditor(raw)

	out.Changes = append(out.Changes, ed.collapseWhitespace()...)

	// Misspellings first so abbreviation casing applies to corrected names.
	out.Changes = append(out.Changes, ed.applyRules(s.spelling, domain.ChangeSpelling)...)
	out.Changes = append(out.Changes, ed.applyRules(s.abbrev, "")...)

	sort.SliceStable(out.Changes, func(i, j int) bool {
		return out.Changes[i].Position < out.Changes[j].Position
	})

	out.Normalized = ed.text
	return out
}

// editor mutates a working copy of the question while remembering, for
// every byte, its offset in the raw input. Change positions therefore
// point into the original string no matter how many length-changing edits
// precede them.
type editor struct {
	text string
	orig []int // orig[i] = byte offset in the raw input of text[i]
}

func newEditor(raw string) *editor {
	orig := make([]int, len(raw))
	for i := range orig {
		orig[i] = i
	}
	return &editor{text: raw, orig: orig}
}

// edit replaces text[start:end] with repl and returns the change record.
// Bytes introduced by repl inherit the offset of the replaced span.
func (e *editor) edit(start, end int, repl string, ct domain.ChangeType) domain.Change {
	c := domain.Change{
		Type:        ct,
		Original:    e.text[start:end],
		Replacement: repl,
		Position:    e.orig[start],
	}
	filled := make([]int, len(repl))
	for i := range filled {
		filled[i] = e.orig[start]
	}
	e.orig = append(e.orig[:start:start], append(filled, e.orig[end:]...)...)
	e.text = e.text[:start] + repl + e.text[end:]
	return c
}

// collapseWhitespace trims the ends and squeezes interior runs to one space.
func (e *editor) collapseWhitespace() []domain.Change {
	var changes []domain.Change

	trimmed := strings.TrimLeftFunc(e.text, isSpace)
	if lead := len(e.text) - len(trimmed); lead > 0 {
		changes = append(changes, e.edit(0, lead, "", domain.ChangeWhitespace))
	}
	trimmed = strings.TrimRightFunc(e.text, isSpace)
	if tail := len(e.text) - len(trimmed); tail > 0 {
		changes = append(changes, e.edit(len(trimmed), len(e.text), "", domain.ChangeWhitespace))
	}

	for {
		loc := whitespaceRun.FindStringIndex(e.text)
		if loc == nil {
			break
		}
		changes = append(changes, e.edit(loc[0], loc[1], " ", domain.ChangeWhitespace))
	}

	return changes
}

// applyRules applies each rule to the working text. Hits are rewritten
// right to left so the remaining match indexes stay valid. When changeType
// is empty the type is derived per hit: a case-only difference records as
// a case fix, anything else as an abbreviation expansion. Hits whose text
// already equals the replacement are skipped, which keeps the pass
// idempotent.
func (e *editor) applyRules(rules []compiledRule, changeType domain.ChangeType) []domain.Change {
	var changes []domain.Change

	for _, rule := range rules {
		locs := rule.re.FindAllStringIndex(e.text, -1)
		for i := len(locs) - 1; i >= 0; i-- {
			start, end := locs[i][0], locs[i][1]
			m := e.text[start:end]
			if m == rule.replacement {
				continue
			}
			ct := changeType
			if ct == "" {
				ct = domain.ChangeAbbreviation
				if strings.EqualFold(m, rule.replacement) {
					ct = domain.ChangeCase
				}
			}
			changes = append(changes, e.edit(start, end, rule.replacement, ct))
		}
	}

	return changes
}
