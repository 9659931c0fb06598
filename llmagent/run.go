package llmagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hoangvvo/afford-agent/internal/metrics"
	"github.com/hoangvvo/afford-agent/llmsdk"
)

// Node names a state of the loop.
type Node string

const (
	NodeAgent Node = "agent"
	NodeTools Node = "tools"
	NodeEnd   Node = "end"
)

// Step is reported to observers after every transition. Message is the
// message appended by the transition: the assistant message for NodeAgent,
// the tool message for NodeTools, and the final assistant message for NodeEnd.
type Step[S any] struct {
	RunID   string
	Node    Node
	Turn    int
	Message llmsdk.Message
	State   S
}

var errRunTimeout = errors.New("run timeout")

// process flow:
//
//  1. agent: bump turn (fail past MaxTurns), request a model response with
//     the full conversation and every tool declaration, append it.
//     1a. Tool calls present -> go to 2.
//     1b. No tool calls -> go to 3.
//
//  2. tools: dispatch each call in request order against a working copy of
//     the state, append all results as one tool message, commit the state.
//     Go to 1.
//
//  3. end: return the final response.
func (a *Agent[S]) run(ctx context.Context, request AgentRequest[S]) (resp *AgentResponse[S], err error) {
	runID := uuid.NewString()
	logger := a.params.Logger.With("agent", a.Name, "run_id", runID)

	span, ctx := newAgentSpan(ctx, a.Name, runID)
	state := NewRunState(request.Input, request.State, a.params.MaxTurns)
	usage := &llmsdk.ModelUsage{}
	defer func() {
		span.end(state.CurrentTurn, usage, err)
		recordOutcome(state.CurrentTurn, err)
	}()

	if len(request.Input) == 0 {
		return nil, state.fail(NewInvariantError("run input is empty"))
	}

	if a.params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, a.params.Timeout, errRunTimeout)
		defer cancel()
	}

	node := NodeAgent
	for {
		switch node {
		case NodeAgent:
			if err := state.turn(); err != nil {
				logger.Warn("turn limit reached", "max_turns", a.params.MaxTurns)
				return nil, state.fail(err)
			}

			modelResp, err := a.params.Model.Generate(ctx, a.turnInput(state))
			if err != nil {
				metrics.ModelCallsTotal.WithLabelValues("error").Inc()
				if ctxErr := a.contextError(ctx); ctxErr != nil {
					return nil, state.fail(ctxErr)
				}
				return nil, state.fail(NewLanguageModelError(err))
			}
			metrics.ModelCallsTotal.WithLabelValues("ok").Inc()
			usage.Add(modelResp.Usage)

			msg := state.appendModelResponse(modelResp.Content)
			calls := llmsdk.ToolCalls(msg.AssistantMessage.Content)
			logger.Debug("model responded", "turn", state.CurrentTurn, "tool_calls", len(calls))
			a.emit(Step[S]{RunID: runID, Node: NodeAgent, Turn: state.CurrentTurn, Message: msg, State: state.State})

			if len(calls) > 0 {
				node = NodeTools
			} else {
				node = NodeEnd
			}

		case NodeTools:
			msg, next, err := a.runTools(ctx, state, logger)
			if err != nil {
				return nil, state.fail(err)
			}
			state.appendMessage(msg)
			state.State = next
			a.emit(Step[S]{RunID: runID, Node: NodeTools, Turn: state.CurrentTurn, Message: msg, State: state.State})
			node = NodeAgent

		case NodeEnd:
			last, ok := state.lastAssistant()
			if !ok {
				return nil, state.fail(NewInvariantError("no assistant message at end of run"))
			}
			a.emit(Step[S]{RunID: runID, Node: NodeEnd, Turn: state.CurrentTurn, Message: last, State: state.State})
			logger.Info("run finished", "turns", state.CurrentTurn, "messages", len(state.conversation))
			return state.createResponse(runID, last.AssistantMessage.Content, usage), nil
		}
	}
}

// runTools executes the tool calls of the latest assistant message in order.
// It returns the tool message and the updated state without touching state.
// After a result with AbortRound, the remaining calls are answered with a
// skipped error result instead of running.
func (a *Agent[S]) runTools(ctx context.Context, state *RunState[S], logger *slog.Logger) (llmsdk.Message, S, *AgentError) {
	next := state.State

	last, ok := state.lastAssistant()
	if !ok {
		return llmsdk.Message{}, next, NewInvariantError("no assistant message to take tool calls from")
	}
	calls := llmsdk.ToolCalls(last.AssistantMessage.Content)

	parts := make([]llmsdk.Part, 0, len(calls))
	aborted := ""
	for _, call := range calls {
		_, known := a.registry.Lookup(call.ToolName)
		if aborted != "" && known {
			metrics.ToolCallsTotal.WithLabelValues(call.ToolName, "skipped").Inc()
			logger.Debug("tool call skipped", "tool", call.ToolName, "tool_call_id", call.ToolCallID, "aborted_by", aborted)
			parts = append(parts, llmsdk.NewToolResultPart(call.ToolCallID, call.ToolName,
				[]llmsdk.Part{llmsdk.NewTextPart(fmt.Sprintf("skipped: %s failed earlier in this round", aborted))}, true))
			continue
		}

		result, err := a.registry.Dispatch(ctx, call, next)
		if err != nil {
			var agentErr *AgentError
			if errors.As(err, &agentErr) {
				metrics.ToolCallsTotal.WithLabelValues(call.ToolName, "unknown").Inc()
				logger.Error("model requested unknown tool", "tool", call.ToolName, "tool_call_id", call.ToolCallID)
				return llmsdk.Message{}, next, agentErr
			}
			metrics.ToolCallsTotal.WithLabelValues(call.ToolName, "canceled").Inc()
			if ctxErr := a.contextError(ctx); ctxErr != nil {
				return llmsdk.Message{}, next, ctxErr
			}
			return llmsdk.Message{}, next, NewCanceledError(err)
		}

		if result.IsError {
			metrics.ToolCallsTotal.WithLabelValues(call.ToolName, "error").Inc()
			logger.Warn("tool returned error result", "tool", call.ToolName, "tool_call_id", call.ToolCallID, "error", llmsdk.Text(result.Content))
		} else {
			metrics.ToolCallsTotal.WithLabelValues(call.ToolName, "ok").Inc()
			logger.Debug("tool executed", "tool", call.ToolName, "tool_call_id", call.ToolCallID)
		}

		if result.Update != nil {
			next = result.Update(next)
		}
		parts = append(parts, llmsdk.NewToolResultPart(call.ToolCallID, call.ToolName, result.Content, result.IsError))
		if result.AbortRound {
			aborted = call.ToolName
		}
	}

	return llmsdk.NewToolMessage(parts...), next, nil
}

func (a *Agent[S]) turnInput(state *RunState[S]) *llmsdk.LanguageModelInput {
	return &llmsdk.LanguageModelInput{
		SystemPrompt: getPrompt(a.params.Instructions, state.State),
		Messages:     state.Conversation(),
		Tools:        a.registry.Declarations(),
		Temperature:  a.params.Temperature,
		MaxTokens:    a.params.MaxTokens,
	}
}

// contextError classifies a done context: the run's own timeout is a
// non-termination, anything else is a cancellation by the caller.
func (a *Agent[S]) contextError(ctx context.Context) *AgentError {
	if ctx.Err() == nil {
		return nil
	}
	if errors.Is(context.Cause(ctx), errRunTimeout) {
		return NewRunTimeoutError(fmt.Errorf("%w after %s", context.DeadlineExceeded, a.params.Timeout))
	}
	return NewCanceledError(ctx.Err())
}

func (a *Agent[S]) emit(step Step[S]) {
	for _, observe := range a.params.Observers {
		observe(step)
	}
}

func recordOutcome(turns int, err error) {
	metrics.RunTurns.Observe(float64(turns))
	if err == nil {
		metrics.RunsTotal.WithLabelValues("ok").Inc()
		return
	}
	outcome := "error"
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		outcome = string(agentErr.Kind)
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
}

// RunState is the single-owner state of one run: the append-only
// conversation, the turn counter and the caller's state record.
type RunState[S any] struct {
	maxTurns     int
	conversation []llmsdk.Message

	// CurrentTurn is the current turn number in the run.
	CurrentTurn int
	// State is the committed run state.
	State S
}

func NewRunState[S any](input []llmsdk.Message, state S, maxTurns int) *RunState[S] {
	return &RunState[S]{
		maxTurns:     maxTurns,
		conversation: append([]llmsdk.Message(nil), input...),
		State:        state,
	}
}

// turn marks a new turn in the conversation and returns an error if max
// turns is exceeded.
func (s *RunState[S]) turn() *AgentError {
	s.CurrentTurn++
	if s.CurrentTurn > s.maxTurns {
		return NewMaxTurnsExceededError(s.maxTurns)
	}
	return nil
}

// Conversation returns a copy of the conversation so far.
func (s *RunState[S]) Conversation() []llmsdk.Message {
	return append([]llmsdk.Message(nil), s.conversation...)
}

func (s *RunState[S]) appendMessage(msg llmsdk.Message) {
	s.conversation = append(s.conversation, msg)
}

// appendModelResponse appends the model content as an assistant message.
// Tool calls without an id get one so results can be correlated.
func (s *RunState[S]) appendModelResponse(content []llmsdk.Part) llmsdk.Message {
	parts := make([]llmsdk.Part, 0, len(content))
	for _, part := range content {
		if part.ToolCallPart != nil && part.ToolCallPart.ToolCallID == "" {
			call := *part.ToolCallPart
			call.ToolCallID = "call_" + uuid.NewString()
			part = llmsdk.Part{ToolCallPart: &call}
		}
		parts = append(parts, part)
	}
	msg := llmsdk.NewAssistantMessage(parts...)
	s.appendMessage(msg)
	return msg
}

func (s *RunState[S]) lastAssistant() (llmsdk.Message, bool) {
	for i := len(s.conversation) - 1; i >= 0; i-- {
		if s.conversation[i].AssistantMessage != nil {
			return s.conversation[i], true
		}
	}
	return llmsdk.Message{}, false
}

// fail attaches the run position to err.
func (s *RunState[S]) fail(err *AgentError) *AgentError {
	err.Turn = s.CurrentTurn
	err.Conversation = s.Conversation()
	return err
}

func (s *RunState[S]) createResponse(runID string, content []llmsdk.Part, usage *llmsdk.ModelUsage) *AgentResponse[S] {
	return &AgentResponse[S]{
		RunID:        runID,
		Content:      content,
		Conversation: s.Conversation(),
		State:        s.State,
		Turns:        s.CurrentTurn,
		Usage:        usage,
	}
}
