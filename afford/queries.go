package afford

import (
	"context"
	"fmt"
	"strings"

	"github.com/hoangvvo/afford-agent/llmsdk"
)

// maxQueryLength is the longest query the search API accepts.
const maxQueryLength = 400

// QueryGenerator proposes web search queries for an item.
type QueryGenerator interface {
	GenerateQueries(ctx context.Context, desc ItemDescription, n int) ([]string, error)
}

// ModelQueryGenerator generates queries with a structured-output model call.
type ModelQueryGenerator struct {
	model  llmsdk.LanguageModel
	prompt string
}

func NewModelQueryGenerator(model llmsdk.LanguageModel) *ModelQueryGenerator {
	return &ModelQueryGenerator{model: model, prompt: queriesPrompt}
}

type generatedQueries struct {
	Queries []string `json:"queries"`
}

var generatedQueriesSchema = llmsdk.JSONSchema{
	"type": "object",
	"properties": map[string]any{
		"queries": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Web search queries that find the best candidates for the item",
		},
	},
	"required":             []string{"queries"},
	"additionalProperties": false,
}

func (g *ModelQueryGenerator) GenerateQueries(ctx context.Context, desc ItemDescription, n int) ([]string, error) {
	input := &llmsdk.LanguageModelInput{
		SystemPrompt: g.prompt,
		Messages: []llmsdk.Message{
			llmsdk.NewUserMessage(llmsdk.NewTextPart(fmt.Sprintf(
				"Generate %d web search queries to find good alternatives for the item with the following description: %s. "+
					"The final query should be \"buy\" followed by a query so that it reaches stores.",
				n, baseQuery(desc),
			))),
		},
		Temperature: llmsdk.Ptr(0.0),
	}
	format := llmsdk.ResponseFormatJSON{
		Name:   "generated_web_search_queries",
		Schema: generatedQueriesSchema,
	}

	out, _, err := llmsdk.GenerateObject[generatedQueries](ctx, g.model, input, format)
	if err != nil {
		return nil, err
	}
	if len(out.Queries) > n {
		out.Queries = out.Queries[:n]
	}
	return out.Queries, nil
}

// baseQuery joins the non-empty fields of desc into one query.
func baseQuery(desc ItemDescription) string {
	var fields []string
	if desc.Brand != "" {
		fields = append(fields, desc.Brand)
	}
	fields = append(fields, desc.Colors...)
	fields = append(fields, desc.Materials...)
	if desc.Category != "" {
		fields = append(fields, string(desc.Category))
	}
	if desc.Description != "" {
		fields = append(fields, desc.Description)
	}
	return cleanQuery(strings.Join(fields, " "))
}

// templatedQueries are issued for every search regardless of the generator.
func templatedQueries(desc ItemDescription) []string {
	base := baseQuery(desc)
	if base == "" {
		return nil
	}
	return []string{base, cleanQuery("buy " + base)}
}

// cleanQuery collapses whitespace and truncates to the accepted length.
func cleanQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if r := []rune(q); len(r) > maxQueryLength {
		q = strings.TrimSpace(string(r[:maxQueryLength]))
	}
	return q
}

// dedupQueries drops empty and case-insensitively repeated queries.
func dedupQueries(queries []string) []string {
	cleaned := make([]string, len(queries))
	for i, q := range queries {
		cleaned[i] = cleanQuery(q)
	}
	return dedupFold(cleaned)
}
