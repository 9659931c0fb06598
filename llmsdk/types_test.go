package llmsdk

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMessageJSONDiscriminators(t *testing.T) {
	conversation := []Message{
		NewUserMessage(NewTextPart("what is this?"), NewImageURLPart("https://example.com/a.jpg")),
		NewAssistantMessage(NewToolCallPart("call_1", "lookup", json.RawMessage(`{"q":"a"}`))),
		NewToolMessage(NewToolResultPart("call_1", "lookup", []Part{NewTextPart("found")}, true)),
	}

	b, err := json.Marshal(conversation)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal decoded: %v", err)
	}
	roles := []any{decoded[0]["role"], decoded[1]["role"], decoded[2]["role"]}
	if diff := cmp.Diff([]any{"user", "assistant", "tool"}, roles); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}

	var got []Message
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(conversation, got); diff != "" {
		t.Fatalf("conversation mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownPartType(t *testing.T) {
	var p Part
	if err := json.Unmarshal([]byte(`{"type":"audio"}`), &p); err == nil {
		t.Fatal("expected error for unknown part type")
	}
}

func TestToolCallsAndText(t *testing.T) {
	content := []Part{
		NewTextPart("a"),
		NewToolCallPart("1", "x", nil),
		NewTextPart("b"),
		NewToolCallPart("2", "y", map[string]any{"k": 1}),
	}

	calls := ToolCalls(content)
	if len(calls) != 2 || calls[0].ToolName != "x" || calls[1].ToolName != "y" {
		t.Fatalf("unexpected tool calls: %+v", calls)
	}
	if string(calls[0].Args) != "{}" {
		t.Fatalf("expected nil args to become {}, got %s", calls[0].Args)
	}
	if string(calls[1].Args) != `{"k":1}` {
		t.Fatalf("unexpected args: %s", calls[1].Args)
	}
	if got := Text(content); got != "ab" {
		t.Fatalf("expected ab, got %q", got)
	}
}
