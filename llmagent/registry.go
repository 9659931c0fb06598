package llmagent

import (
	"context"
	"fmt"

	"github.com/hoangvvo/afford-agent/llmsdk"
)

// Registry is a fixed set of tools keyed by exact name. It is built once and
// read-only afterwards, so it may be shared across concurrent runs.
type Registry[S any] struct {
	tools  []registeredTool[S]
	byName map[string]int
}

type registeredTool[S any] struct {
	tool      AgentTool[S]
	validator *llmsdk.Validator
}

// NewRegistry compiles every tool's parameter schema. Duplicate names and
// schemas that do not describe an object are rejected.
func NewRegistry[S any](tools ...AgentTool[S]) (*Registry[S], error) {
	r := &Registry[S]{byName: make(map[string]int, len(tools))}
	for _, tool := range tools {
		name := tool.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("tool %q registered twice", name)
		}
		schema := tool.Parameters()
		if schema["type"] != "object" {
			return nil, fmt.Errorf("tool %q: parameters must be an object schema", name)
		}
		validator, err := llmsdk.CompileSchema(schema)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", name, err)
		}
		r.byName[name] = len(r.tools)
		r.tools = append(r.tools, registeredTool[S]{tool: tool, validator: validator})
	}
	return r, nil
}

func (r *Registry[S]) Lookup(name string) (AgentTool[S], bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.tools[i].tool, true
}

// Declarations lists the tools in registration order, as sent to the model.
func (r *Registry[S]) Declarations() []llmsdk.Tool {
	decls := make([]llmsdk.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		decls = append(decls, llmsdk.Tool{
			Name:        rt.tool.Name(),
			Description: rt.tool.Description(),
			Parameters:  rt.tool.Parameters(),
		})
	}
	return decls
}

// Dispatch runs the tool named by call.
//
// The returned error is fatal to the run: an unknown tool name yields a
// ToolDispatchErrorKind AgentError, and a tool failing while ctx is done
// yields the tool's error. Invalid arguments and ordinary tool failures come
// back as an error result instead, with AbortRound set for errors wrapped by
// AbortRound.
func (r *Registry[S]) Dispatch(ctx context.Context, call *llmsdk.ToolCallPart, state S) (AgentToolResult[S], error) {
	i, ok := r.byName[call.ToolName]
	if !ok {
		return AgentToolResult[S]{}, NewToolDispatchError(call.ToolName)
	}
	rt := r.tools[i]

	return startActiveToolSpan(ctx, call.ToolCallID, rt.tool.Name(), rt.tool.Description(), func(ctx context.Context) (AgentToolResult[S], error) {
		if err := rt.validator.Validate(call.Args); err != nil {
			return NewErrorResult[S](fmt.Sprintf("invalid arguments for tool %s: %v", call.ToolName, err)), nil
		}

		result, err := rt.tool.Execute(ctx, call.Args, state)
		if err != nil {
			if ctx.Err() != nil {
				return AgentToolResult[S]{}, err
			}
			res := NewErrorResult[S](fmt.Sprintf("tool %s failed: %v", call.ToolName, err))
			res.AbortRound = abortsRound(err)
			return res, nil
		}
		return result, nil
	})
}
