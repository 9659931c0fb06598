package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/hoangvvo/afford-agent/afford"
	"github.com/hoangvvo/afford-agent/llmagent"
	"github.com/hoangvvo/afford-agent/llmsdk"
)

const maxResultPreview = 240

// stepPrinter writes a human-readable trace of a run.
type stepPrinter struct {
	w io.Writer
}

func (p stepPrinter) print(step llmagent.Step[afford.State]) {
	switch step.Node {
	case llmagent.NodeAgent:
		fmt.Fprintf(p.w, "[agent turn %d]\n", step.Turn)
		for _, part := range step.Message.Content() {
			switch {
			case part.TextPart != nil && strings.TrimSpace(part.TextPart.Text) != "":
				fmt.Fprintln(p.w, strings.TrimSpace(part.TextPart.Text))
			case part.ToolCallPart != nil:
				fmt.Fprintf(p.w, "-> %s(%s)\n", part.ToolCallPart.ToolName, part.ToolCallPart.Args)
			}
		}
	case llmagent.NodeTools:
		fmt.Fprintf(p.w, "[tools turn %d]\n", step.Turn)
		for _, part := range step.Message.Content() {
			result := part.ToolResultPart
			if result == nil {
				continue
			}
			name := result.ToolName
			if result.IsError {
				name += " (error)"
			}
			fmt.Fprintf(p.w, "<- %s: %s\n", name, preview(llmsdk.Text(result.Content)))
		}
	case llmagent.NodeEnd:
		fmt.Fprintf(p.w, "[end after %d turns, %d candidates]\n", step.Turn, len(step.State.Candidates))
	}
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxResultPreview {
		return string(r[:maxResultPreview]) + "..."
	}
	return s
}
