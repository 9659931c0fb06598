package afford

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hoangvvo/afford-agent/llmsdk"
)

type Category string

const (
	CategoryClothing    Category = "clothing"
	CategoryFurniture   Category = "furniture"
	CategoryElectronics Category = "electronics"
)

var categories = []Category{CategoryClothing, CategoryFurniture, CategoryElectronics}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ItemDescription is the structured description of one product. It is
// produced once per image and not modified afterwards.
type ItemDescription struct {
	Category    Category `json:"category"`
	Brand       string   `json:"brand"`
	Colors      []string `json:"colors"`
	Materials   []string `json:"materials"`
	Price       float64  `json:"price"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
}

// Normalize trims every field and deduplicates colors and materials
// case-insensitively, keeping the first spelling and the original order.
func (d ItemDescription) Normalize() ItemDescription {
	d.Category = Category(strings.ToLower(strings.TrimSpace(string(d.Category))))
	d.Brand = strings.TrimSpace(d.Brand)
	d.Colors = dedupFold(d.Colors)
	d.Materials = dedupFold(d.Materials)
	d.URL = strings.TrimSpace(d.URL)
	d.Description = strings.TrimSpace(d.Description)
	return d
}

func (d ItemDescription) Validate() error {
	var errs []error
	if !d.Category.Valid() {
		errs = append(errs, fmt.Errorf("unknown category %q", d.Category))
	}
	if d.Price < 0 {
		errs = append(errs, fmt.Errorf("price must not be negative, got %v", d.Price))
	}
	return errors.Join(errs...)
}

func dedupFold(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// itemDescriptionSchema is shared by the extractor response format and the
// expansive_search tool parameters.
func itemDescriptionSchema() llmsdk.JSONSchema {
	enum := make([]any, 0, len(categories))
	for _, c := range categories {
		enum = append(enum, string(c))
	}
	return llmsdk.JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type":        "string",
				"enum":        enum,
				"description": "The category of the item",
			},
			"brand": map[string]any{
				"type":        "string",
				"description": "The brand of the item if recognized, otherwise an empty string",
			},
			"colors": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Plain color names present in the item, e.g. [\"red\", \"blue\"]",
			},
			"materials": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Plain material names present in the item, e.g. [\"cotton\", \"leather\"]",
			},
			"price": map[string]any{
				"type":        "number",
				"minimum":     0,
				"description": "The price of the item as a number, 0 when unknown",
			},
			"url": map[string]any{
				"type":        "string",
				"description": "A URL where the item is sold, or an empty string",
			},
			"description": map[string]any{
				"type":        "string",
				"description": "A short free-text description of the item",
			},
		},
		"required":             []string{"category", "brand", "colors", "materials", "price", "url", "description"},
		"additionalProperties": false,
	}
}

// Candidate is an item found by the search that may match the original.
type Candidate struct {
	Category    Category `json:"category"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url,omitempty"`
	Description string   `json:"description"`
	Price       float64  `json:"price,omitempty"`
	// Query is the sub-query that found the candidate.
	Query string `json:"query,omitempty"`
}

type candidateList struct {
	Candidates []Candidate `json:"candidates"`
}

// EncodeCandidates is the serialization the model sees in the
// expansive_search result.
func EncodeCandidates(candidates []Candidate) (string, error) {
	if candidates == nil {
		candidates = []Candidate{}
	}
	b, err := json.Marshal(candidateList{Candidates: candidates})
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}
	return string(b), nil
}

func DecodeCandidates(s string) ([]Candidate, error) {
	var list candidateList
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	return list.Candidates, nil
}

// State is the per-run record threaded through the agent loop.
type State struct {
	// OriginalItemDescription is set by the first successful extraction and
	// kept for the rest of the run.
	OriginalItemDescription *ItemDescription `json:"original_item_description,omitempty"`
	// Candidates holds the result of the latest successful search.
	Candidates []Candidate `json:"candidates"`
}

// WithOriginal returns s with the original description set, unless one is
// already present.
func (s State) WithOriginal(d ItemDescription) State {
	if s.OriginalItemDescription != nil {
		return s
	}
	s.OriginalItemDescription = &d
	return s
}

// WithCandidates returns s with the candidate list replaced.
func (s State) WithCandidates(candidates []Candidate) State {
	s.Candidates = append([]Candidate(nil), candidates...)
	return s
}
