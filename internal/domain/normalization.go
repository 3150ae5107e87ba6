package domain

// ChangeType categorizes a single normalization edit.
type ChangeType string

const (
	ChangeSpelling     ChangeType = "spelling"
	ChangeAbbreviation ChangeType = "abbreviation"
	ChangeCase         ChangeType = "case"
	ChangePunctuation  ChangeType = "punctuation"
	ChangeWhitespace   ChangeType = "whitespace"
)

// Change records one edit made by the normalizer.
// Position is the byte offset of Original in the pre-edit string.
type Change struct {
	Type        ChangeType
	Original    string
	Replacement string
	Position    int
}

// Normalization is the normalizer output. Normalizing an already
// normalized string yields Changes of length zero and Normalized == Original.
type Normalization struct {
	Original   string
	Normalized string
	Changes    []Change
}
