package tracing

import (
	"context"

	"github.com/hoangvvo/afford-agent/llmsdk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/hoangvvo/afford-agent/llmsdk")

type lmSpan struct {
	provider    string
	modelID     string
	usage       *llmsdk.ModelUsage
	maxTokens   *int64
	temperature *float64
	seed        *int64
	structured  bool

	span trace.Span
}

// TraceGenerate wraps a single model call in a span carrying gen_ai.* attributes.
func TraceGenerate(
	ctx context.Context,
	provider string,
	modelID string,
	input *llmsdk.LanguageModelInput,
	fn func(context.Context) (*llmsdk.ModelResponse, error),
) (*llmsdk.ModelResponse, error) {
	ctx, span := newLMSpan(ctx, provider, modelID, input)
	defer span.onEnd()

	response, err := fn(ctx)
	if err != nil {
		span.onError(err)
		return nil, err
	}

	if response != nil && response.Usage != nil {
		span.usage = response.Usage
	}
	return response, nil
}

func newLMSpan(ctx context.Context, provider, modelID string, input *llmsdk.LanguageModelInput) (context.Context, *lmSpan) {
	spanCtx, otelSpan := tracer.Start(ctx, "llm_sdk.generate")

	s := &lmSpan{
		provider: provider,
		modelID:  modelID,
		span:     otelSpan,
	}
	if input != nil {
		s.maxTokens = input.MaxTokens
		s.temperature = input.Temperature
		s.seed = input.Seed
		s.structured = input.ResponseFormat != nil && input.ResponseFormat.JSON != nil
	}
	return spanCtx, s
}

func (s *lmSpan) onError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *lmSpan) onEnd() {
	s.span.SetAttributes(
		attribute.String("gen_ai.operation.name", "generate_content"),
		attribute.String("gen_ai.provider.name", s.provider),
		attribute.String("gen_ai.request.model", s.modelID),
	)
	if s.structured {
		s.span.SetAttributes(attribute.String("gen_ai.output.type", "json"))
	}
	if s.usage != nil {
		s.span.SetAttributes(
			attribute.Int("gen_ai.usage.input_tokens", s.usage.InputTokens),
			attribute.Int("gen_ai.usage.output_tokens", s.usage.OutputTokens),
		)
	}
	if s.maxTokens != nil {
		s.span.SetAttributes(attribute.Int64("gen_ai.request.max_tokens", *s.maxTokens))
	}
	if s.temperature != nil {
		s.span.SetAttributes(attribute.Float64("gen_ai.request.temperature", *s.temperature))
	}
	if s.seed != nil {
		s.span.SetAttributes(attribute.Int64("gen_ai.request.seed", *s.seed))
	}
	s.span.End()
}
