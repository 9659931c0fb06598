package llmagent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hoangvvo/afford-agent/llmsdk"
)

// Agent tool that can be used by the agent to perform specific tasks. S is
// the run state record the tool may read and update.
type AgentTool[S any] interface {
	// Name of the tool.
	Name() string
	// A description of the tool to instruct the model how and when to use it.
	Description() string
	// The JSON schema of the parameters that the tool accepts. The type must
	// be "object". Arguments are validated against it before Execute runs.
	Parameters() llmsdk.JSONSchema
	// Execute runs the tool against a snapshot of the run state.
	//
	// A returned error is reported to the model as a failed tool result and
	// the run continues, unless ctx is done, in which case the run stops.
	// Wrap the error with AbortRound to also skip the rest of the round.
	Execute(ctx context.Context, params json.RawMessage, state S) (AgentToolResult[S], error)
}

type AgentToolResult[S any] struct {
	Content []llmsdk.Part `json:"content"`
	IsError bool          `json:"is_error"`
	// Update returns the run state with this tool's changes applied. Updates
	// from one tool round are committed together when the round completes.
	Update func(S) S `json:"-"`
	// AbortRound skips the remaining tool calls of the current round. Each
	// skipped call still gets an error result.
	AbortRound bool `json:"-"`
}

type roundAbortError struct {
	err error
}

func (e *roundAbortError) Error() string { return e.err.Error() }
func (e *roundAbortError) Unwrap() error { return e.err }

// AbortRound marks a tool error as ending the current tool round. The model
// sees err as a failed result, and later calls in the same round do not run.
func AbortRound(err error) error {
	if err == nil {
		return nil
	}
	return &roundAbortError{err: err}
}

func abortsRound(err error) bool {
	var abort *roundAbortError
	return errors.As(err, &abort)
}

// NewTextResult is a successful result carrying text.
func NewTextResult[S any](text string) AgentToolResult[S] {
	return AgentToolResult[S]{Content: []llmsdk.Part{llmsdk.NewTextPart(text)}}
}

// NewErrorResult is a failed result the model gets to see.
func NewErrorResult[S any](text string) AgentToolResult[S] {
	return AgentToolResult[S]{Content: []llmsdk.Part{llmsdk.NewTextPart(text)}, IsError: true}
}

// FuncTool adapts a typed function into an AgentTool. Arguments are decoded
// into P after schema validation.
type FuncTool[S, P any] struct {
	name        string
	description string
	parameters  llmsdk.JSONSchema
	fn          func(ctx context.Context, params P, state S) (AgentToolResult[S], error)
}

func NewFuncTool[S, P any](
	name, description string,
	parameters llmsdk.JSONSchema,
	fn func(ctx context.Context, params P, state S) (AgentToolResult[S], error),
) *FuncTool[S, P] {
	return &FuncTool[S, P]{name: name, description: description, parameters: parameters, fn: fn}
}

func (t *FuncTool[S, P]) Name() string {
	return t.name
}

func (t *FuncTool[S, P]) Description() string {
	return t.description
}

func (t *FuncTool[S, P]) Parameters() llmsdk.JSONSchema {
	return t.parameters
}

func (t *FuncTool[S, P]) Execute(ctx context.Context, params json.RawMessage, state S) (AgentToolResult[S], error) {
	var p P
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return AgentToolResult[S]{}, fmt.Errorf("decode %s arguments: %w", t.name, err)
		}
	}
	return t.fn(ctx, p, state)
}
