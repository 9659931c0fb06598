package llmagent

import (
	"context"
	"errors"

	"github.com/hoangvvo/afford-agent/llmsdk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Initialize the tracer lazily to allow user to have a chance to configure the global tracer provider
var tracer = otel.Tracer("github.com/hoangvvo/afford-agent/llmagent")

// agentSpan manages the span for an agent run
type agentSpan struct {
	agentName string
	runID     string
	span      trace.Span
}

func newAgentSpan(ctx context.Context, agentName, runID string) (*agentSpan, context.Context) {
	newCtx, span := tracer.Start(ctx, "llm_agent.run")
	return &agentSpan{agentName: agentName, runID: runID, span: span}, newCtx
}

// end sets the final attributes and ends the span.
func (s *agentSpan) end(turns int, usage *llmsdk.ModelUsage, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("gen_ai.operation.name", "invoke_agent"),
		attribute.String("gen_ai.agent.name", s.agentName),
		attribute.String("gen_ai.conversation.id", s.runID),
		attribute.Int("llm_agent.turns", turns),
	}
	if usage != nil {
		attrs = append(attrs,
			attribute.Int64("gen_ai.usage.input_tokens", int64(usage.InputTokens)),
			attribute.Int64("gen_ai.usage.output_tokens", int64(usage.OutputTokens)),
		)
	}
	if err != nil {
		var agentErr *AgentError
		if errors.As(err, &agentErr) {
			attrs = append(attrs, attribute.String("error.type", string(agentErr.Kind)))
		}
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.SetAttributes(attrs...)
	s.span.End()
}

// startActiveToolSpan creates a span for tool execution
func startActiveToolSpan[S any](
	ctx context.Context,
	toolCallID string,
	toolName string,
	toolDescription string,
	fn func(context.Context) (AgentToolResult[S], error),
) (AgentToolResult[S], error) {
	spanCtx, span := tracer.Start(ctx, "llm_agent.tool")
	defer func() {
		span.SetAttributes(
			attribute.String("gen_ai.operation.name", "execute_tool"),
			attribute.String("gen_ai.tool.call.id", toolCallID),
			attribute.String("gen_ai.tool.description", toolDescription),
			attribute.String("gen_ai.tool.name", toolName),
			attribute.String("gen_ai.tool.type", "function"),
		)
		span.End()
	}()

	res, err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AgentToolResult[S]{}, err
	}
	if res.IsError {
		span.SetStatus(codes.Error, llmsdk.Text(res.Content))
	}
	return res, nil
}
