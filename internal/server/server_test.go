package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"socratic/internal/intent"
	"socratic/internal/llm"
	"socratic/internal/metrics"
	"socratic/internal/orchestrator"
	"socratic/internal/session"
	"socratic/internal/tutor"
)

func testServer(t *testing.T, provider llm.Provider) (*Server, *metrics.Metrics) {
	t.Helper()
	sessions := session.NewStore(session.WithIdleTTL(0))
	t.Cleanup(sessions.Close)

	cfg := orchestrator.DefaultConfig()
	cfg.InitialBackoff = time.Millisecond

	m := metrics.New()
	pipeline := tutor.NewPipeline(tutor.Deps{
		Sessions:   sessions,
		Classifier: intent.NewRuleClassifier(),
		Orch:       orchestrator.New(provider, cfg, nil),
		Metrics:    m,
	})
	return New(pipeline, m, nil), m
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestChatEndpoint(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"verdicts":[{"id":"off-by-one","status":"new","certainty":0.8}]}`)},
		llm.MockResponse{Content: json.RawMessage("What happens at the boundary of the loop?")},
	)
	srv, _ := testServer(t, provider)
	router := srv.Router()

	rec := postJSON(t, router, "/chat", map[string]string{
		"message": "it crashes on the last element?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp tutor.TurnResponse
	decodeBody(t, rec, &resp)
	if resp.Response != "What happens at the boundary of the loop?" {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.SessionID == "" {
		t.Error("expected a session id")
	}
	if !resp.IsNewSession {
		t.Error("expected is_new_session")
	}
	if resp.TargetedMisconception != "off-by-one" {
		t.Errorf("targeted = %s", resp.TargetedMisconception)
	}
}

func TestChatEndpoint_BadRequests(t *testing.T) {
	srv, _ := testServer(t, llm.NewMockProvider())
	router := srv.Router()

	// Not JSON at all.
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}

	// Missing message.
	rec = postJSON(t, router, "/chat", map[string]string{"message": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty message: status = %d, want 400", rec.Code)
	}
}

func TestChatEndpoint_ClassifierFailureIs500(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrMaxTokensExceeded{}},
	)
	srv, _ := testServer(t, provider)

	rec := postJSON(t, srv.Router(), "/chat", map[string]string{
		"message": "why is this broken?",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestSessionEndEndpoint(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"verdicts":[]}`)},
		llm.MockResponse{Content: json.RawMessage("Which value changes first?")},
		llm.MockResponse{Content: json.RawMessage("Student worked through a loop bug.")},
	)
	srv, _ := testServer(t, provider)
	router := srv.Router()

	rec := postJSON(t, router, "/chat", map[string]string{"message": "the loop breaks?"})
	var turn tutor.TurnResponse
	decodeBody(t, rec, &turn)

	rec = postJSON(t, router, "/session/end", map[string]string{"session_id": turn.SessionID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result tutor.EndResult
	decodeBody(t, rec, &result)
	if result.Turns != 1 {
		t.Errorf("turns = %d, want 1", result.Turns)
	}

	// Ending again is a 404.
	rec = postJSON(t, router, "/session/end", map[string]string{"session_id": turn.SessionID})
	if rec.Code != http.StatusNotFound {
		t.Errorf("second end: status = %d, want 404", rec.Code)
	}
}

func TestNewDoubtEndpoint(t *testing.T) {
	srv, _ := testServer(t, llm.NewMockProvider())

	rec := postJSON(t, srv.Router(), "/session/new-doubt", map[string]string{"user_id": "u-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result tutor.NewDoubtResult
	decodeBody(t, rec, &result)
	if result.SessionID == "" {
		t.Error("expected a fresh session id")
	}
}

func TestSummaryEndpoint(t *testing.T) {
	provider := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage("Covered off-by-one errors.")},
	)
	srv, _ := testServer(t, provider)

	rec := postJSON(t, srv.Router(), "/summary", map[string]any{
		"history": []map[string]string{
			{"role": "user", "text": "why does my loop skip the last item"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeBody(t, rec, &resp)
	if resp["summary"] != "Covered off-by-one errors." {
		t.Errorf("summary = %q", resp["summary"])
	}
}

func TestHealthAndRoot(t *testing.T) {
	srv, _ := testServer(t, llm.NewMockProvider())
	router := srv.Router()

	for _, path := range []string{"/", "/health"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, m := testServer(t, llm.NewMockProvider())
	m.BlockedPrompts.Inc()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "blocked_prompts 1") {
		t.Error("scrape output missing blocked_prompts")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := testServer(t, llm.NewMockProvider())

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "vscode-webview://extension")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "vscode-webview://extension" {
		t.Errorf("allow-origin = %q", got)
	}
}
