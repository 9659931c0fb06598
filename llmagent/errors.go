package llmagent

import (
	"fmt"

	"github.com/hoangvvo/afford-agent/llmsdk"
)

// AgentError is returned for every fatal run failure. Turn and Conversation
// are filled in by the loop and reflect the run at the moment it stopped.
type AgentError struct {
	Kind    ErrorKind
	Message string
	Err     error
	// ToolName is set for ToolDispatchErrorKind.
	ToolName string
	// Turn is the model turn the run was on when it failed.
	Turn int
	// Conversation holds every message of the run up to and including the
	// one that triggered the failure.
	Conversation []llmsdk.Message
}

func (e *AgentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

type ErrorKind string

const (
	LanguageModelErrorKind      ErrorKind = "language_model_error"
	ToolDispatchErrorKind       ErrorKind = "tool_dispatch_error"
	LoopNonTerminationErrorKind ErrorKind = "loop_non_termination"
	CanceledErrorKind           ErrorKind = "canceled"
	InvariantErrorKind          ErrorKind = "invariant_error"
	InitErrorKind               ErrorKind = "init_error"
)

func NewLanguageModelError(err error) *AgentError {
	return &AgentError{
		Kind:    LanguageModelErrorKind,
		Message: "language model error",
		Err:     err,
	}
}

// NewToolDispatchError reports a tool call naming a tool that is not registered.
func NewToolDispatchError(toolName string) *AgentError {
	return &AgentError{
		Kind:     ToolDispatchErrorKind,
		Message:  fmt.Sprintf("tool %q is not registered", toolName),
		ToolName: toolName,
	}
}

func NewMaxTurnsExceededError(turns int) *AgentError {
	return &AgentError{
		Kind:    LoopNonTerminationErrorKind,
		Message: fmt.Sprintf("the maximum number of turns (%d) has been exceeded", turns),
	}
}

func NewRunTimeoutError(err error) *AgentError {
	return &AgentError{
		Kind:    LoopNonTerminationErrorKind,
		Message: "run timeout exceeded",
		Err:     err,
	}
}

func NewCanceledError(err error) *AgentError {
	return &AgentError{
		Kind:    CanceledErrorKind,
		Message: "run canceled",
		Err:     err,
	}
}

func NewInvariantError(msg string) *AgentError {
	return &AgentError{
		Kind:    InvariantErrorKind,
		Message: fmt.Sprintf("invariant: %s", msg),
	}
}

func NewInitError(err error) *AgentError {
	return &AgentError{
		Kind:    InitErrorKind,
		Message: "agent initialization error",
		Err:     err,
	}
}
