package llmsdk

import (
	"encoding/json"
	"strings"
)

func NewTextPart(text string) Part {
	return Part{TextPart: &TextPart{Text: text}}
}

// NewImageURLPart references a remote image the provider fetches itself.
func NewImageURLPart(url string) Part {
	return Part{ImagePart: &ImagePart{URL: url}}
}

// NewImagePart inlines base64 image data.
func NewImagePart(imageData, mimeType string) Part {
	return Part{ImagePart: &ImagePart{ImageData: imageData, MimeType: mimeType}}
}

// NewToolCallPart creates a tool call part. args may be a json.RawMessage,
// a []byte holding JSON, or any value that marshals to a JSON object.
func NewToolCallPart(toolCallID, toolName string, args any) Part {
	var raw json.RawMessage
	switch v := args.(type) {
	case nil:
		raw = json.RawMessage("{}")
	case json.RawMessage:
		raw = v
	case []byte:
		raw = json.RawMessage(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			b = []byte("{}")
		}
		raw = b
	}
	return Part{ToolCallPart: &ToolCallPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Args:       raw,
	}}
}

func NewToolResultPart(toolCallID, toolName string, content []Part, isError bool) Part {
	return Part{ToolResultPart: &ToolResultPart{
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Content:    content,
		IsError:    isError,
	}}
}

// NewUserMessage creates a new user message
func NewUserMessage(parts ...Part) Message {
	return Message{UserMessage: &UserMessage{Content: parts}}
}

// NewAssistantMessage creates a new assistant message
func NewAssistantMessage(parts ...Part) Message {
	return Message{AssistantMessage: &AssistantMessage{Content: parts}}
}

// NewToolMessage creates a new tool message
func NewToolMessage(parts ...Part) Message {
	return Message{ToolMessage: &ToolMessage{Content: parts}}
}

func NewResponseFormatText() *ResponseFormatOption {
	return &ResponseFormatOption{Text: &ResponseFormatText{}}
}

func NewResponseFormatJSON(name, description string, schema JSONSchema) *ResponseFormatOption {
	return &ResponseFormatOption{JSON: &ResponseFormatJSON{
		Name:        name,
		Description: description,
		Schema:      schema,
	}}
}

// ToolCalls returns the tool call parts in content, in order.
func ToolCalls(content []Part) []*ToolCallPart {
	var calls []*ToolCallPart
	for _, part := range content {
		if part.ToolCallPart != nil {
			calls = append(calls, part.ToolCallPart)
		}
	}
	return calls
}

// Text concatenates the text parts in content.
func Text(content []Part) string {
	var texts []string
	for _, part := range content {
		if part.TextPart != nil {
			texts = append(texts, part.TextPart.Text)
		}
	}
	return strings.Join(texts, "")
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// MalformedArgs keeps tool-call argument text that is not valid JSON as a
// JSON string, so the call survives in the conversation and fails validation
// against an object schema.
func MalformedArgs(text string) json.RawMessage {
	b, _ := json.Marshal(text)
	return b
}

// ArgsText returns the arguments as the model produced them, undoing
// MalformedArgs.
func (p *ToolCallPart) ArgsText() string {
	var text string
	if len(p.Args) > 0 && p.Args[0] == '"' && json.Unmarshal(p.Args, &text) == nil {
		return text
	}
	return string(p.Args)
}
