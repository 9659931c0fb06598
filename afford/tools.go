package afford

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hoangvvo/afford-agent/llmagent"
	"github.com/hoangvvo/afford-agent/llmsdk"
)

const (
	GetItemDescriptionToolName = "get_item_description"
	ExpansiveSearchToolName    = "expansive_search"
)

type GetItemDescriptionParams struct {
	ImageURL string `json:"image_url" jsonschema:"a URL of the image showing the item to analyse"`
}

type ExpansiveSearchParams struct {
	ItemDescription ItemDescription `json:"item_description" jsonschema:"the description of the original item"`
}

func getItemDescriptionSchema() llmsdk.JSONSchema {
	return llmsdk.JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"image_url": map[string]any{
				"type":        "string",
				"description": "A URL of the image showing the item to analyse",
			},
		},
		"required":             []string{"image_url"},
		"additionalProperties": false,
	}
}

func expansiveSearchSchema() llmsdk.JSONSchema {
	return llmsdk.JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"item_description": itemDescriptionSchema(),
		},
		"required":             []string{"item_description"},
		"additionalProperties": false,
	}
}

// NewGetItemDescriptionTool describes an image. The first successful result
// becomes the run's original item description. A failed extraction ends the
// tool round.
func NewGetItemDescriptionTool(extractor Extractor) llmagent.AgentTool[State] {
	return llmagent.NewFuncTool(
		GetItemDescriptionToolName,
		"Analyse the image at the given URL and return a structured description of the item it shows",
		getItemDescriptionSchema(),
		func(ctx context.Context, params GetItemDescriptionParams, _ State) (llmagent.AgentToolResult[State], error) {
			desc, err := extractor.Extract(ctx, params.ImageURL)
			if err != nil {
				return llmagent.AgentToolResult[State]{}, llmagent.AbortRound(err)
			}
			b, err := json.Marshal(desc)
			if err != nil {
				return llmagent.AgentToolResult[State]{}, fmt.Errorf("encode item description: %w", err)
			}
			res := llmagent.NewTextResult[State](string(b))
			res.Update = func(s State) State {
				return s.WithOriginal(desc)
			}
			return res, nil
		},
	)
}

// NewExpansiveSearchTool searches the web for candidates. A successful result
// replaces the run's candidate list.
func NewExpansiveSearchTool(searcher Searcher) llmagent.AgentTool[State] {
	return llmagent.NewFuncTool(
		ExpansiveSearchToolName,
		"Given the original item description, perform an expansive web search for the best candidates. "+
			"Returns a list of candidate items with their URLs, descriptions and prices when known",
		expansiveSearchSchema(),
		func(ctx context.Context, params ExpansiveSearchParams, _ State) (llmagent.AgentToolResult[State], error) {
			desc := params.ItemDescription.Normalize()
			if err := desc.Validate(); err != nil {
				return llmagent.NewErrorResult[State](fmt.Sprintf("invalid item description: %v", err)), nil
			}
			candidates, err := searcher.Search(ctx, desc)
			if err != nil {
				return llmagent.AgentToolResult[State]{}, err
			}
			text, err := EncodeCandidates(candidates)
			if err != nil {
				return llmagent.AgentToolResult[State]{}, err
			}
			res := llmagent.NewTextResult[State](text)
			res.Update = func(s State) State {
				return s.WithCandidates(candidates)
			}
			return res, nil
		},
	)
}

// Tools returns both domain tools in declaration order.
func Tools(extractor Extractor, searcher Searcher) []llmagent.AgentTool[State] {
	return []llmagent.AgentTool[State]{
		NewGetItemDescriptionTool(extractor),
		NewExpansiveSearchTool(searcher),
	}
}
