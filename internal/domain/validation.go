package domain

// Validation issue codes, stable across releases.
const (
	CodeEmptyQuestion    = "EMPTY_QUESTION"
	CodeTooShort         = "TOO_SHORT"
	CodeTooLong          = "TOO_LONG"
	CodeOffensiveContent = "OFFENSIVE_CONTENT"
	CodeNotAWSRelated    = "NOT_AWS_RELATED"
)

// IssueSeverity distinguishes rejections from advisory warnings.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ValidationIssue is one validation error or warning.
type ValidationIssue struct {
	Code       string
	Severity   IssueSeverity
	Message    string
	Suggestion string // human-readable next step, always set for warnings
}

// Validation is the validator output for one raw question string.
type Validation struct {
	Valid      bool
	AWSRelated bool
	TooShort   bool
	TooLong    bool
	Language   string // best-effort BCP-47 tag, defaults to "en"
	Errors     []ValidationIssue
	Warnings   []ValidationIssue
}

// FirstErrorCode returns the code of the first error, or "" when valid.
func (v Validation) FirstErrorCode() string {
	if len(v.Errors) == 0 {
		return ""
	}
	return v.Errors[0].Code
}
