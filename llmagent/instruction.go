package llmagent

import "strings"

// InstructionParam is either a fixed string or derived from the run state at
// the start of each turn.
type InstructionParam[S any] struct {
	String *string
	Func   func(state S) string
}

func Instruction[S any](s string) InstructionParam[S] {
	return InstructionParam[S]{String: &s}
}

func InstructionFunc[S any](fn func(state S) string) InstructionParam[S] {
	return InstructionParam[S]{Func: fn}
}

func getPrompt[S any](instructions []InstructionParam[S], state S) string {
	prompts := make([]string, 0, len(instructions))
	for _, param := range instructions {
		var p string
		if param.String != nil {
			p = *param.String
		} else if param.Func != nil {
			p = param.Func(state)
		}
		if p != "" {
			prompts = append(prompts, p)
		}
	}

	return strings.Join(prompts, "\n")
}
