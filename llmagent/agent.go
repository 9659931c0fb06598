package llmagent

import (
	"context"
	"log/slog"

	"github.com/hoangvvo/afford-agent/llmsdk"
)

// Agent drives the two-node loop (agent, tools) over a caller-owned state
// record S. An Agent holds no per-run data and may serve concurrent runs.
type Agent[S any] struct {
	Name     string
	params   *AgentParams[S]
	registry *Registry[S]
}

// NewAgent creates a new agent with given name, language model, and options.
//
// Defaults:
// - `instructions`: empty
// - `tools`: empty
// - `maxTurns`: 10
// - `timeout`: none
// - `temperature`: nil
// - `logger`: slog.Default()
//
// It fails when the tool set is invalid (duplicate names, bad schemas).
func NewAgent[S any](name string, model llmsdk.LanguageModel, options ...AgentParamsOption[S]) (*Agent[S], error) {
	params := &AgentParams[S]{
		Name:     name,
		Model:    model,
		MaxTurns: 10,
	}

	for _, option := range options {
		option(params)
	}

	if params.MaxTurns < 1 {
		params.MaxTurns = 10
	}
	if params.Logger == nil {
		params.Logger = slog.Default()
	}

	registry, err := NewRegistry(params.Tools...)
	if err != nil {
		return nil, NewInitError(err)
	}

	return &Agent[S]{Name: name, params: params, registry: registry}, nil
}

// Tools returns the declarations sent to the model, in registration order.
func (a *Agent[S]) Tools() []llmsdk.Tool {
	return a.registry.Declarations()
}

// AgentRequest seeds one run.
type AgentRequest[S any] struct {
	// Input holds the messages to seed the conversation, usually a single
	// user message.
	Input []llmsdk.Message
	// State is the initial run state.
	State S
}

// AgentResponse is the outcome of a run that reached the end node.
type AgentResponse[S any] struct {
	RunID string
	// Content is the final assistant content.
	Content []llmsdk.Part
	// Conversation is the full conversation, input included.
	Conversation []llmsdk.Message
	// State is the run state after the last tool round.
	State S
	// Turns is the number of model turns taken.
	Turns int
	Usage *llmsdk.ModelUsage
}

// Text returns the text of the final assistant content.
func (r *AgentResponse[S]) Text() string {
	return llmsdk.Text(r.Content)
}

// Run executes one run to completion. The conversation and state are owned by
// this call and returned in the response, or attached to the AgentError.
func (a *Agent[S]) Run(ctx context.Context, request AgentRequest[S]) (*AgentResponse[S], error) {
	return a.run(ctx, request)
}
