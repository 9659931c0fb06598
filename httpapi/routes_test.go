package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/hoangvvo/afford-agent/afford"
	"github.com/hoangvvo/afford-agent/httpapi"
	"github.com/hoangvvo/afford-agent/llmagent"
	"github.com/hoangvvo/afford-agent/llmsdk"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	resp     *llmagent.AgentResponse[afford.State]
	err      error
	requests []llmagent.AgentRequest[afford.State]
}

func (r *fakeRunner) Run(ctx context.Context, request llmagent.AgentRequest[afford.State]) (*llmagent.AgentResponse[afford.State], error) {
	r.requests = append(r.requests, request)
	return r.resp, r.err
}

func newRouter(runner httpapi.Runner, mcp http.Handler) *gin.Engine {
	return httpapi.SetupRouter(runner, httpapi.RouterConfig{
		MCPHandler: mcp,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(newRouter(&fakeRunner{}, nil), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if diff := cmp.Diff(`{"status":"ok"}`, w.Body.String()); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateRun(t *testing.T) {
	desc := afford.ItemDescription{Category: afford.CategoryClothing, Colors: []string{"teal"}}
	runner := &fakeRunner{resp: &llmagent.AgentResponse[afford.State]{
		RunID:   "run-1",
		Content: []llmsdk.Part{llmsdk.NewTextPart("Found 1 alternative.")},
		Turns:   3,
		State: afford.State{
			OriginalItemDescription: &desc,
			Candidates:              []afford.Candidate{{Category: afford.CategoryClothing, URL: "https://shop.example/1", Description: "teal shirt"}},
		},
	}}

	w := do(newRouter(runner, nil), http.MethodPost, "/api/runs", `{"image_url":" https://img.example/shirt.jpg "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got httpapi.RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := httpapi.RunResponse{
		RunID:                   "run-1",
		Text:                    "Found 1 alternative.",
		Turns:                   3,
		OriginalItemDescription: &desc,
		Candidates:              runner.resp.State.Candidates,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	if len(runner.requests) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runner.requests))
	}
	if diff := cmp.Diff(afford.NewRunRequest("https://img.example/shirt.jpg"), runner.requests[0]); diff != "" {
		t.Errorf("run request mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateRun_BadRequest(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"image_url":"  "}`} {
		runner := &fakeRunner{}
		w := do(newRouter(runner, nil), http.MethodPost, "/api/runs", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
		if len(runner.requests) != 0 {
			t.Errorf("body %q: runner must not be called", body)
		}
	}
}

func TestCreateRun_AgentError(t *testing.T) {
	agentErr := llmagent.NewToolDispatchError("nonexistent_tool")
	agentErr.Turn = 1
	runner := &fakeRunner{err: agentErr}

	w := do(newRouter(runner, nil), http.MethodPost, "/api/runs", `{"image_url":"img1"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	want := map[string]any{
		"error": `tool "nonexistent_tool" is not registered`,
		"kind":  "tool_dispatch_error",
		"turn":  float64(1),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newRouter(&fakeRunner{}, nil)
	do(router, http.MethodGet, "/health", "")

	w := do(router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `afford_http_requests_total{method="GET",path="/health",status="200"}`) {
		t.Error("expected request counter for /health")
	}
}

func TestMCPMount(t *testing.T) {
	var hits int
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusAccepted)
	})

	w := do(newRouter(&fakeRunner{}, mcp), http.MethodPost, "/mcp", `{}`)
	if w.Code != http.StatusAccepted || hits != 1 {
		t.Errorf("expected the MCP handler to serve /mcp, got status %d hits %d", w.Code, hits)
	}

	w = do(newRouter(&fakeRunner{}, nil), http.MethodPost, "/mcp", `{}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without an MCP handler, got %d", w.Code)
	}
}
