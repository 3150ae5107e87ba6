package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chiv5 "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/domain"
	healthuc "github.com/askaws-cloud/askaws/internal/usecase/health"
	"github.com/askaws-cloud/askaws/internal/usecase/pipeline"
)

type stubValidator struct {
	validation domain.Validation
}

func (s stubValidator) Validate(string) domain.Validation { return s.validation }

type stubNormalizer struct{}

func (stubNormalizer) Normalize(text string) domain.Normalization {
	return domain.Normalization{Original: text, Normalized: strings.ToLower(text)}
}

type stubClassifier struct {
	analysis domain.Analysis
}

func (s stubClassifier) Analyze(string) domain.Analysis { return s.analysis }

type stubStrategist struct {
	strategy domain.Strategy
}

func (s stubStrategist) Build(domain.Analysis) domain.Strategy { return s.strategy }

type stubSearcher struct {
	outcome domain.SearchOutcome
	err     error
}

func (s stubSearcher) Search(context.Context, string, domain.Analysis, domain.Strategy) (domain.SearchOutcome, error) {
	return s.outcome, s.err
}

type stubAnswerer struct {
	answer domain.Answer
}

func (s stubAnswerer) Generate(context.Context, string, domain.SearchOutcome) domain.Answer {
	return s.answer
}

// mockSessions satisfies both the pipeline session store and the transport
// session reader.
type mockSessions struct {
	createFn  func(ctx context.Context, preferences map[string]string) (domain.Session, error)
	getFn     func(ctx context.Context, sessionID string) (domain.Session, error)
	appendFn  func(ctx context.Context, sessionID string, entry domain.ConversationEntry) error
	historyFn func(ctx context.Context, sessionID string) ([]domain.ConversationEntry, error)
}

func (m *mockSessions) Create(ctx context.Context, preferences map[string]string) (domain.Session, error) {
	if m.createFn != nil {
		return m.createFn(ctx, preferences)
	}
	return domain.Session{ID: "sess-1", CreatedAt: time.Now(), Preferences: preferences}, nil
}

func (m *mockSessions) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, sessionID)
	}
	return domain.Session{ID: sessionID}, nil
}

func (m *mockSessions) Append(ctx context.Context, sessionID string, entry domain.ConversationEntry) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, sessionID, entry)
	}
	return nil
}

func (m *mockSessions) History(ctx context.Context, sessionID string) ([]domain.ConversationEntry, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, sessionID)
	}
	return nil, nil
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error        { return s.err }
func (s stubPinger) HealthCheck(context.Context) error { return s.err }

func validQuestion() domain.Validation {
	return domain.Validation{Valid: true, AWSRelated: true, Language: "en"}
}

func testOutcome() domain.SearchOutcome {
	return domain.SearchOutcome{
		Results: []domain.Ranking{
			{
				SearchResult: domain.SearchResult{
					URL:       "https://docs.aws.amazon.com/s3/buckets.html",
					Title:     "Creating a bucket",
					Context:   "To create a bucket, use the console or the CLI.",
					RankOrder: 1,
					Topic:     domain.TopicGeneral,
				},
				Final: 0.9,
			},
		},
	}
}

func testAnswer() domain.Answer {
	return domain.Answer{
		Text:       "To create a bucket, use the console or the CLI.",
		Sources:    []domain.Source{{URL: "https://docs.aws.amazon.com/s3/buckets.html", Title: "Creating a bucket"}},
		Confidence: 0.9,
	}
}

type serverFixture struct {
	validation domain.Validation
	searchErr  error
	sessions   *mockSessions
}

func newTestHandler(t *testing.T, fx serverFixture) http.Handler {
	t.Helper()

	if fx.sessions == nil {
		fx.sessions = &mockSessions{}
	}
	if fx.validation.Language == "" {
		fx.validation = validQuestion()
	}

	pipe := pipeline.New(
		stubValidator{validation: fx.validation},
		stubNormalizer{},
		stubClassifier{analysis: domain.Analysis{
			Type:       domain.TypeHowTo,
			Complexity: domain.ComplexitySimple,
			Confidence: 0.8,
			Topics:     []domain.Topic{domain.TopicGeneral},
		}},
		stubStrategist{strategy: domain.Strategy{
			Primary:    []domain.Topic{domain.TopicGeneral},
			MaxResults: 5,
			Timeout:    5 * time.Second,
		}},
		stubSearcher{outcome: testOutcome(), err: fx.searchErr},
		stubAnswerer{answer: testAnswer()},
		fx.sessions,
		zap.NewNop(),
	)
	health := healthuc.New(stubPinger{}, stubPinger{})

	srv := NewServer(pipe, fx.sessions, health, zap.NewNop())
	r := chiv5.NewRouter()
	srv.Register(r)
	return r
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestProcessQuestion_Success(t *testing.T) {
	handler := newTestHandler(t, serverFixture{})

	rr := postJSON(t, handler, "/api/v1/questions", `{"question":"How do I create an S3 bucket?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp processResultWire
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.QuestionID == "" {
		t.Error("question_id should be set")
	}
	if resp.Answer.Text != testAnswer().Text {
		t.Errorf("answer text: got %q", resp.Answer.Text)
	}
	if len(resp.Answer.Sources) != 1 {
		t.Fatalf("sources: got %d, want 1", len(resp.Answer.Sources))
	}
	if resp.Analysis.Type != string(domain.TypeHowTo) {
		t.Errorf("analysis type: got %q", resp.Analysis.Type)
	}
}

func TestProcessQuestion_InvalidBody(t *testing.T) {
	handler := newTestHandler(t, serverFixture{})

	rr := postJSON(t, handler, "/api/v1/questions", `{not json`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeBadRequest {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeBadRequest)
	}
}

func TestProcessQuestion_ValidationRejection(t *testing.T) {
	handler := newTestHandler(t, serverFixture{
		validation: domain.Validation{
			Valid:    false,
			TooShort: true,
			Language: "en",
			Errors: []domain.ValidationIssue{{
				Code:     domain.CodeTooShort,
				Severity: domain.SeverityError,
				Message:  "question must be at least 10 characters",
			}},
		},
	})

	rr := postJSON(t, handler, "/api/v1/questions", `{"question":"s3?"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != domain.CodeTooShort {
		t.Errorf("error code: got %s, want %s", errResp.Code, domain.CodeTooShort)
	}
}

func TestProcessQuestion_DocsUnavailable_503(t *testing.T) {
	handler := newTestHandler(t, serverFixture{
		searchErr: fmt.Errorf("3 topics failed: %w", domain.ErrDocumentationUnavailable),
	})

	rr := postJSON(t, handler, "/api/v1/questions", `{"question":"How do I create an S3 bucket?"}`)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusServiceUnavailable, rr.Body.String())
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeDocsUnavailable {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeDocsUnavailable)
	}
	if len(errResp.Suggestions) == 0 {
		t.Error("expected a retry suggestion")
	}
}

func TestValidateQuestion_Endpoint(t *testing.T) {
	handler := newTestHandler(t, serverFixture{})

	rr := postJSON(t, handler, "/api/v1/questions/validate", `{"question":"How do I create an S3 bucket?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp validationWire
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Valid {
		t.Error("expected valid=true")
	}
	if resp.Language != "en" {
		t.Errorf("language: got %q, want en", resp.Language)
	}
}

func TestNormalizeQuestion_Endpoint(t *testing.T) {
	handler := newTestHandler(t, serverFixture{})

	rr := postJSON(t, handler, "/api/v1/questions/normalize", `{"question":"How Do I USE S3?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp normalizationWire
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Normalized != "how do i use s3?" {
		t.Errorf("normalized: got %q", resp.Normalized)
	}
}

func TestAnalyzeQuestion_Endpoint(t *testing.T) {
	handler := newTestHandler(t, serverFixture{})

	rr := postJSON(t, handler, "/api/v1/questions/analyze", `{"question":"How do I create an S3 bucket?"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp analysisWire
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Type != string(domain.TypeHowTo) {
		t.Errorf("type: got %q", resp.Type)
	}
	if len(resp.Topics) == 0 {
		t.Error("topics should not be empty")
	}
}

func TestCreateSession_WithPreferences(t *testing.T) {
	sessions := &mockSessions{
		createFn: func(_ context.Context, preferences map[string]string) (domain.Session, error) {
			return domain.Session{ID: "sess-42", CreatedAt: time.Now(), Preferences: preferences}, nil
		},
	}
	handler := newTestHandler(t, serverFixture{sessions: sessions})

	rr := postJSON(t, handler, "/api/v1/sessions", `{"preferences":{"detail_level":"expert"}}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	var resp sessionWire
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "sess-42" {
		t.Errorf("session_id: got %q", resp.SessionID)
	}
	if resp.Preferences["detail_level"] != "expert" {
		t.Errorf("preferences: got %v", resp.Preferences)
	}
}

func TestCreateSession_EmptyBody(t *testing.T) {
	handler := newTestHandler(t, serverFixture{})

	req := httptest.NewRequest("POST", "/api/v1/sessions", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
}

func TestGetSession_NotFound(t *testing.T) {
	sessions := &mockSessions{
		getFn: func(context.Context, string) (domain.Session, error) {
			return domain.Session{}, domain.ErrSessionNotFound
		},
	}
	handler := newTestHandler(t, serverFixture{sessions: sessions})

	req := httptest.NewRequest("GET", "/api/v1/sessions/unknown", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != codeSessionNotFound {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeSessionNotFound)
	}
}

func TestGetHistory_ReturnsEntries(t *testing.T) {
	asked := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	sessions := &mockSessions{
		historyFn: func(_ context.Context, sessionID string) ([]domain.ConversationEntry, error) {
			return []domain.ConversationEntry{{
				QuestionID:     "q-1",
				Question:       "How do I create an S3 bucket?",
				Answer:         "Use the console or the CLI.",
				ResponseTimeMs: 420,
				AskedAt:        asked,
			}}, nil
		},
	}
	handler := newTestHandler(t, serverFixture{sessions: sessions})

	req := httptest.NewRequest("GET", "/api/v1/sessions/sess-1/history", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp historyResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("session_id: got %q", resp.SessionID)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(resp.Items))
	}
	if resp.Items[0].QuestionID != "q-1" {
		t.Errorf("question_id: got %q", resp.Items[0].QuestionID)
	}
	if !resp.Items[0].AskedAt.Equal(asked) {
		t.Errorf("asked_at: got %v, want %v", resp.Items[0].AskedAt, asked)
	}
}

func TestGetHistory_SessionNotFound(t *testing.T) {
	sessions := &mockSessions{
		historyFn: func(context.Context, string) ([]domain.ConversationEntry, error) {
			return nil, fmt.Errorf("history: %w", domain.ErrSessionNotFound)
		},
	}
	handler := newTestHandler(t, serverFixture{sessions: sessions})

	req := httptest.NewRequest("GET", "/api/v1/sessions/gone/history", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestHealthCheck_Healthy(t *testing.T) {
	handler := newTestHandler(t, serverFixture{})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp healthWire
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status: got %q", resp.Status)
	}
}

func TestHealthCheck_Degraded_503(t *testing.T) {
	pipe := pipeline.New(
		stubValidator{validation: validQuestion()},
		stubNormalizer{},
		stubClassifier{},
		stubStrategist{},
		stubSearcher{},
		stubAnswerer{},
		&mockSessions{},
		zap.NewNop(),
	)
	health := healthuc.New(stubPinger{}, stubPinger{err: errors.New("docs down")})
	srv := NewServer(pipe, &mockSessions{}, health, zap.NewNop())
	r := chiv5.NewRouter()
	srv.Register(r)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	var resp healthWire
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(healthuc.Degraded) {
		t.Errorf("status: got %q, want %q", resp.Status, healthuc.Degraded)
	}
	if resp.Checks["docs"] != string(healthuc.CheckError) {
		t.Errorf("docs check: got %q", resp.Checks["docs"])
	}
}
