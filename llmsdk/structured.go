package llmsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Validator checks JSON documents against a compiled schema.
type Validator struct {
	resolved *jsonschema.Resolved
}

// CompileSchema resolves schema so documents can be validated against it.
func CompileSchema(schema JSONSchema) (*Validator, error) {
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	return &Validator{resolved: resolved}, nil
}

// Validate decodes raw and validates the result. Empty input is treated as an
// empty object.
func (v *Validator) Validate(raw []byte) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return v.resolved.Validate(instance)
}

// GenerateObject asks model for a reply conforming to format, then parses and
// validates the reply into T. A nonconforming reply fails with an
// InvalidOutput LanguageModelError.
func GenerateObject[T any](ctx context.Context, model LanguageModel, input *LanguageModelInput, format ResponseFormatJSON) (*T, *ModelResponse, error) {
	validator, err := CompileSchema(format.Schema)
	if err != nil {
		return nil, nil, NewInvalidInputError(err.Error())
	}

	req := *input
	req.ResponseFormat = &ResponseFormatOption{JSON: &format}

	resp, err := model.Generate(ctx, &req)
	if err != nil {
		return nil, nil, err
	}

	raw := []byte(stripCodeFence(Text(resp.Content)))
	if len(raw) == 0 {
		return nil, resp, NewInvalidOutputError("empty response", nil)
	}
	if err := validator.Validate(raw); err != nil {
		return nil, resp, NewInvalidOutputError(fmt.Sprintf("response does not match schema %q", format.Name), err)
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, resp, NewInvalidOutputError("decode response", err)
	}
	return &out, resp, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// providers add even in JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
