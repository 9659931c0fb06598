package llmsdk

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMockLanguageModelGenerate(t *testing.T) {
	model := NewMockLanguageModel()

	response1 := ModelResponse{
		Content: []Part{NewTextPart("Hello, world!")},
	}
	response3 := ModelResponse{
		Content: []Part{NewTextPart("Goodbye, world!")},
	}

	model.EnqueueGenerateResult(
		NewMockGenerateResultResponse(response1),
		NewMockGenerateResultError(errors.New("generate error")),
		NewMockGenerateResultResponse(response3),
	)

	ctx := context.Background()

	input1 := &LanguageModelInput{Messages: []Message{NewUserMessage(NewTextPart("Hi"))}}
	res1, err := model.Generate(ctx, input1)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if diff := cmp.Diff(&response1, res1); diff != "" {
		t.Fatalf("unexpected first response (-want +got):\n%s", diff)
	}

	input2 := &LanguageModelInput{Messages: []Message{NewUserMessage(NewTextPart("Error"))}}
	if _, err := model.Generate(ctx, input2); err == nil || err.Error() != "generate error" {
		t.Fatalf("expected generate error, got %v", err)
	}

	input3 := &LanguageModelInput{Messages: []Message{NewUserMessage(NewTextPart("Goodbye"))}}
	res3, err := model.Generate(ctx, input3)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if diff := cmp.Diff(&response3, res3); diff != "" {
		t.Fatalf("unexpected third response (-want +got):\n%s", diff)
	}

	tracked := model.TrackedGenerateInputs()
	if len(tracked) != 3 {
		t.Fatalf("expected 3 tracked inputs, got %d", len(tracked))
	}
	if diff := cmp.Diff(input2.Messages, tracked[1].Messages); diff != "" {
		t.Fatalf("second tracked input mismatch (-want +got):\n%s", diff)
	}

	model.Restore()
	if got := len(model.TrackedGenerateInputs()); got != 0 {
		t.Fatalf("expected tracked inputs to be empty after restore, got %d", got)
	}
	if _, err := model.Generate(ctx, input1); err == nil || err.Error() != "no mocked generate results available" {
		t.Fatalf("expected no mocked generate results error after restore, got %v", err)
	}
}

func TestMockLanguageModelTracksMessageSnapshot(t *testing.T) {
	model := NewMockLanguageModel()
	model.EnqueueGenerateResult(NewMockGenerateResultResponse(ModelResponse{}))

	messages := make([]Message, 1, 4)
	messages[0] = NewUserMessage(NewTextPart("first"))
	if _, err := model.Generate(context.Background(), &LanguageModelInput{Messages: messages}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	messages = append(messages, NewUserMessage(NewTextPart("second")))

	if got := len(model.TrackedGenerateInputs()[0].Messages); got != 1 {
		t.Fatalf("expected snapshot of 1 message, got %d", got)
	}
}
