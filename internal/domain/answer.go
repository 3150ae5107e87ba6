package domain

import "time"

// NotFoundMarker is the fixed phrase every zero-source answer contains.
const NotFoundMarker = "No relevant documentation found"

// Source is one cited documentation page, deduplicated by URL.
type Source struct {
	URL   string
	Title string
}

// Answer is the synthesized response for one question.
// Invariant: zero sources implies Confidence == 0 and Text contains
// NotFoundMarker; Confidence > 0 implies at least one source.
type Answer struct {
	Text        string // markdown: headings, code fences, ordered lists
	Sources     []Source
	Confidence  float64
	Suggestions []string // rephrase hints when no sources were found
	Elapsed     time.Duration
}

// ConversationEntry is one question/answer pair in a session history.
type ConversationEntry struct {
	QuestionID     string
	Question       string
	Answer         string
	Sources        []Source
	ResponseTimeMs int64
	AskedAt        time.Time
}

// Session groups a chronological sequence of conversation entries.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
	Preferences  map[string]string
}

// ProcessResult is the full pipeline output for one question.
type ProcessResult struct {
	Question      Question
	Validation    Validation
	Normalization Normalization
	Analysis      Analysis
	Answer        Answer
	Cached        bool
	UsedFallback  bool
	SearchElapsed time.Duration
	TotalElapsed  time.Duration
}
