package llmagent

import (
	"log/slog"
	"time"

	"github.com/hoangvvo/afford-agent/llmsdk"
)

// Parameters required to create a new agent.
type AgentParams[S any] struct {
	Name string
	// The language model to use for the agent.
	Model llmsdk.LanguageModel
	// Instructions to be added to system messages when executing the agent.
	Instructions []InstructionParam[S]
	// The tools that the agent can use to perform tasks.
	Tools []AgentTool[S]
	// Max number of model turns per run to protect against infinite loops.
	MaxTurns int
	// Timeout bounds a whole run. Zero means no bound beyond the caller's context.
	Timeout time.Duration
	// Amount of randomness injected into the response.
	Temperature *float64
	// The maximum number of tokens per model turn.
	MaxTokens *int64
	// Logger receives transition logs. Defaults to slog.Default().
	Logger *slog.Logger
	// Observers are called synchronously after every transition.
	Observers []func(Step[S])
}

type AgentParamsOption[S any] func(*AgentParams[S])

// WithInstructions sets the instructions to be added to system messages when executing the agent.
func WithInstructions[S any](instructions ...InstructionParam[S]) AgentParamsOption[S] {
	return func(p *AgentParams[S]) {
		p.Instructions = instructions
	}
}

// WithTools sets the tools that the agent can use to perform tasks.
func WithTools[S any](tools ...AgentTool[S]) AgentParamsOption[S] {
	return func(p *AgentParams[S]) {
		p.Tools = tools
	}
}

// WithMaxTurns sets the max number of turns for agent to run to protect against infinite loops.
func WithMaxTurns[S any](maxTurns int) AgentParamsOption[S] {
	return func(p *AgentParams[S]) {
		p.MaxTurns = maxTurns
	}
}

// WithTimeout bounds the wall-clock duration of each run.
func WithTimeout[S any](timeout time.Duration) AgentParamsOption[S] {
	return func(p *AgentParams[S]) {
		p.Timeout = timeout
	}
}

// WithTemperature sets the sampling temperature for the model.
// Amount of randomness injected into the response. Ranges from 0.0 to 1.0
func WithTemperature[S any](temperature float64) AgentParamsOption[S] {
	return func(p *AgentParams[S]) {
		p.Temperature = &temperature
	}
}

func WithMaxTokens[S any](maxTokens int64) AgentParamsOption[S] {
	return func(p *AgentParams[S]) {
		p.MaxTokens = &maxTokens
	}
}

func WithLogger[S any](logger *slog.Logger) AgentParamsOption[S] {
	return func(p *AgentParams[S]) {
		p.Logger = logger
	}
}

// WithObserver registers fn to be called after each transition.
func WithObserver[S any](fn func(Step[S])) AgentParamsOption[S] {
	return func(p *AgentParams[S]) {
		p.Observers = append(p.Observers, fn)
	}
}
