package domain

import "errors"

var (
	// ErrEmptyQuestion signals an empty or whitespace-only question.
	ErrEmptyQuestion = errors.New("empty question")
	// ErrQuestionTooShort signals a question below the minimum length.
	ErrQuestionTooShort = errors.New("question too short")
	// ErrQuestionTooLong signals a question above the maximum length.
	ErrQuestionTooLong = errors.New("question too long")
	// ErrOffensiveContent signals a question rejected by the content filter.
	ErrOffensiveContent = errors.New("offensive content")

	// ErrBackendConnection signals the documentation backend could not be reached.
	ErrBackendConnection = errors.New("documentation backend connection failed")
	// ErrBackendTimeout signals a documentation backend request timed out.
	ErrBackendTimeout = errors.New("documentation backend timeout")
	// ErrBackendRateLimited signals the documentation backend rejected the request for rate limiting.
	ErrBackendRateLimited = errors.New("documentation backend rate limited")
	// ErrBackendSearch signals the documentation backend reported a search failure.
	ErrBackendSearch = errors.New("documentation backend search failed")

	// ErrDocumentationUnavailable signals every topic query exhausted its retries.
	ErrDocumentationUnavailable = errors.New("documentation unavailable")
	// ErrSessionNotFound signals a missing session.
	ErrSessionNotFound = errors.New("session not found")
)

// RetryableBackendError reports whether err is a transient documentation
// backend failure worth retrying. Context cancellation is never retryable.
func RetryableBackendError(err error) bool {
	return errors.Is(err, ErrBackendConnection) ||
		errors.Is(err, ErrBackendTimeout) ||
		errors.Is(err, ErrBackendRateLimited) ||
		errors.Is(err, ErrBackendSearch)
}

// BackendErrorKind maps a backend error to its stable wire code.
// Returns "" for errors that are not backend failures.
func BackendErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrBackendConnection):
		return "CONNECTION_FAILED"
	case errors.Is(err, ErrBackendTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrBackendRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrBackendSearch):
		return "SEARCH_FAILED"
	}
	return ""
}
