// Package afford finds affordable alternatives to the product in an image by
// driving an item extractor and a web searcher through an agent loop.
package afford

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hoangvvo/afford-agent/llmagent"
	"github.com/hoangvvo/afford-agent/llmsdk"
)

const AgentName = "afford"

// DemoImageURL is used by the CLI when no image URL is given.
const DemoImageURL = "https://cdn11.bigcommerce.com/s-uzonwrhn18/images/stencil/1280x1280/products/18864/101548/SUR525-01__01328.1710768705.jpg?c=1"

var (
	//go:embed prompts/agent.md
	agentPrompt string
	//go:embed prompts/extractor.md
	extractorPrompt string
	//go:embed prompts/queries.md
	queriesPrompt string
)

// NewAgent returns the afford agent with both domain tools registered.
// Options are applied after the defaults, so callers may override them.
func NewAgent(model llmsdk.LanguageModel, extractor Extractor, searcher Searcher, opts ...llmagent.AgentParamsOption[State]) (*llmagent.Agent[State], error) {
	defaults := []llmagent.AgentParamsOption[State]{
		llmagent.WithInstructions(
			llmagent.Instruction[State](agentPrompt),
			llmagent.InstructionFunc(stateInstruction),
		),
		llmagent.WithTools(Tools(extractor, searcher)...),
		llmagent.WithTemperature[State](0),
	}
	return llmagent.NewAgent(AgentName, model, append(defaults, opts...)...)
}

// stateInstruction tells the model what the run already knows.
func stateInstruction(s State) string {
	if s.OriginalItemDescription == nil {
		return ""
	}
	var sb strings.Builder
	b, err := json.Marshal(s.OriginalItemDescription)
	if err == nil {
		fmt.Fprintf(&sb, "The original item has been described as: %s", b)
	}
	if len(s.Candidates) > 0 {
		fmt.Fprintf(&sb, "\n%d candidates have been found so far.", len(s.Candidates))
	}
	return sb.String()
}

// NewRunRequest seeds a run for the image at imageURL.
func NewRunRequest(imageURL string) llmagent.AgentRequest[State] {
	return llmagent.AgentRequest[State]{
		Input: []llmsdk.Message{
			llmsdk.NewUserMessage(llmsdk.NewTextPart(
				"Find affordable alternatives to the item in this image: " + imageURL,
			)),
		},
	}
}
