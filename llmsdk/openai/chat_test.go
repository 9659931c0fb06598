package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hoangvvo/afford-agent/llmsdk"
)

func newTestServer(t *testing.T, status int, reply string, seen *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGenerateConvertsConversation(t *testing.T) {
	var body map[string]any
	server := newTestServer(t, http.StatusOK, `{
		"choices": [{"index": 0, "message": {"role": "assistant", "content": null, "tool_calls": [
			{"id": "call_2", "type": "function", "function": {"name": "expansive_search", "arguments": "{\"item_description\":{}}"}}
		]}}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 14}
	}`, &body)

	model := NewChatModel("gemini-3-flash-preview", ChatModelOptions{BaseURL: server.URL + "/v1/", APIKey: "test-key"})

	resp, err := model.Generate(context.Background(), &llmsdk.LanguageModelInput{
		SystemPrompt: "You find affordable alternatives.",
		Messages: []llmsdk.Message{
			llmsdk.NewUserMessage(llmsdk.NewTextPart("Find this"), llmsdk.NewImageURLPart("https://example.com/watch.jpg")),
			llmsdk.NewAssistantMessage(llmsdk.NewToolCallPart("call_1", "get_item_description", map[string]any{"image_url": "https://example.com/watch.jpg"})),
			llmsdk.NewToolMessage(llmsdk.NewToolResultPart("call_1", "get_item_description", []llmsdk.Part{llmsdk.NewTextPart(`{"category":"electronics"}`)}, false)),
		},
		Tools: []llmsdk.Tool{{
			Name:        "expansive_search",
			Description: "search",
			Parameters:  llmsdk.JSONSchema{"type": "object"},
		}},
		Temperature: llmsdk.Ptr(0.0),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	wantMessages := []any{
		map[string]any{"role": "system", "content": "You find affordable alternatives."},
		map[string]any{"role": "user", "content": []any{
			map[string]any{"type": "text", "text": "Find this"},
			map[string]any{"type": "image_url", "image_url": map[string]any{"url": "https://example.com/watch.jpg"}},
		}},
		map[string]any{"role": "assistant", "tool_calls": []any{
			map[string]any{"id": "call_1", "type": "function", "function": map[string]any{
				"name":      "get_item_description",
				"arguments": `{"image_url":"https://example.com/watch.jpg"}`,
			}},
		}},
		map[string]any{"role": "tool", "tool_call_id": "call_1", "content": `{"category":"electronics"}`},
	}
	if diff := cmp.Diff(wantMessages, body["messages"]); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if body["model"] != "gemini-3-flash-preview" {
		t.Fatalf("unexpected model %v", body["model"])
	}
	if body["temperature"] != 0.0 {
		t.Fatalf("expected temperature 0, got %v", body["temperature"])
	}
	tools := body["tools"].([]any)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	if fn["strict"] != true || fn["name"] != "expansive_search" {
		t.Fatalf("unexpected tool definition %v", fn)
	}

	want := &llmsdk.ModelResponse{
		Content: []llmsdk.Part{
			llmsdk.NewToolCallPart("call_2", "expansive_search", json.RawMessage(`{"item_description":{}}`)),
		},
		Usage: &llmsdk.ModelUsage{InputTokens: 120, OutputTokens: 14},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateJSONSchemaResponseFormat(t *testing.T) {
	var body map[string]any
	server := newTestServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"queries\":[]}"}}]}`, &body)

	model := NewChatModel("m", ChatModelOptions{BaseURL: server.URL + "/v1", APIKey: "test-key", DisableStrict: true})
	resp, err := model.Generate(context.Background(), &llmsdk.LanguageModelInput{
		Messages:       []llmsdk.Message{llmsdk.NewUserMessage(llmsdk.NewTextPart("q"))},
		ResponseFormat: llmsdk.NewResponseFormatJSON("search_queries", "", llmsdk.JSONSchema{"type": "object"}),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got := llmsdk.Text(resp.Content); got != `{"queries":[]}` {
		t.Fatalf("unexpected text %q", got)
	}

	wantFormat := map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "search_queries",
			"schema": map[string]any{"type": "object"},
		},
	}
	if diff := cmp.Diff(wantFormat, body["response_format"]); diff != "" {
		t.Fatalf("response_format mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateKeepsMalformedToolArguments(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","tool_calls":[
		{"id":"call_1","type":"function","function":{"name":"get_item_description","arguments":"{\"image_url\": "}}
	]}}]}`, nil)
	model := NewChatModel("m", ChatModelOptions{BaseURL: server.URL + "/v1", APIKey: "test-key"})

	resp, err := model.Generate(context.Background(), &llmsdk.LanguageModelInput{
		Messages: []llmsdk.Message{llmsdk.NewUserMessage(llmsdk.NewTextPart("describe"))},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	want := []llmsdk.Part{
		llmsdk.NewToolCallPart("call_1", "get_item_description", llmsdk.MalformedArgs(`{"image_url": `)),
	}
	if diff := cmp.Diff(want, resp.Content); diff != "" {
		t.Fatalf("content mismatch (-want +got):\n%s", diff)
	}
	if got := resp.Content[0].ToolCallPart.ArgsText(); got != `{"image_url": ` {
		t.Errorf("ArgsText() = %q", got)
	}
}

func TestGenerateEchoesMalformedArgumentsVerbatim(t *testing.T) {
	var body map[string]any
	server := newTestServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`, &body)
	model := NewChatModel("m", ChatModelOptions{BaseURL: server.URL + "/v1", APIKey: "test-key"})

	_, err := model.Generate(context.Background(), &llmsdk.LanguageModelInput{
		Messages: []llmsdk.Message{
			llmsdk.NewUserMessage(llmsdk.NewTextPart("describe")),
			llmsdk.NewAssistantMessage(llmsdk.NewToolCallPart("call_1", "get_item_description", llmsdk.MalformedArgs("{oops"))),
		},
		ResponseFormat: llmsdk.NewResponseFormatText(),
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	messages := body["messages"].([]any)
	call := messages[1].(map[string]any)["tool_calls"].([]any)[0].(map[string]any)
	if got := call["function"].(map[string]any)["arguments"]; got != "{oops" {
		t.Errorf("arguments = %v, want the original text", got)
	}
	if diff := cmp.Diff(map[string]any{"type": "text"}, body["response_format"]); diff != "" {
		t.Errorf("response_format mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		reply    string
		wantKind llmsdk.Kind
	}{
		{"status", http.StatusUnauthorized, `{"error":"bad key"}`, llmsdk.StatusCode},
		{"no choices", http.StatusOK, `{"choices":[]}`, llmsdk.Invariant},
		{"refusal", http.StatusOK, `{"choices":[{"message":{"role":"assistant","refusal":"no"}}]}`, llmsdk.Refusal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.reply, nil)
			model := NewChatModel("m", ChatModelOptions{BaseURL: server.URL + "/v1", APIKey: "test-key"})

			_, err := model.Generate(context.Background(), &llmsdk.LanguageModelInput{})

			var lmErr *llmsdk.LanguageModelError
			if !errors.As(err, &lmErr) {
				t.Fatalf("expected LanguageModelError, got %v", err)
			}
			if lmErr.Kind != tt.wantKind {
				t.Fatalf("expected kind %s, got %s (%v)", tt.wantKind, lmErr.Kind, err)
			}
		})
	}
}

func TestGenerateTransportError(t *testing.T) {
	model := NewChatModel("m", ChatModelOptions{BaseURL: "http://127.0.0.1:1", APIKey: "test-key"})

	_, err := model.Generate(context.Background(), &llmsdk.LanguageModelInput{})

	var lmErr *llmsdk.LanguageModelError
	if !errors.As(err, &lmErr) || lmErr.Kind != llmsdk.Transport {
		t.Fatalf("expected transport error, got %v", err)
	}
}
