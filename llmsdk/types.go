package llmsdk

import (
	"encoding/json"
	"fmt"
)

// Part represents a part of the message.
type Part struct {
	TextPart       *TextPart       `json:"-"`
	ImagePart      *ImagePart      `json:"-"`
	ToolCallPart   *ToolCallPart   `json:"-"`
	ToolResultPart *ToolResultPart `json:"-"`
}

type PartType string

const (
	PartTypeText       PartType = "text"
	PartTypeImage      PartType = "image"
	PartTypeToolCall   PartType = "tool-call"
	PartTypeToolResult PartType = "tool-result"
)

func (p Part) Type() PartType {
	switch {
	case p.TextPart != nil:
		return PartTypeText
	case p.ImagePart != nil:
		return PartTypeImage
	case p.ToolCallPart != nil:
		return PartTypeToolCall
	case p.ToolResultPart != nil:
		return PartTypeToolResult
	default:
		return ""
	}
}

// TextPart represents a part of the message that contains text.
type TextPart struct {
	Text string `json:"text"`
}

// ImagePart represents a part of the message that contains an image.
// Either URL or ImageData (base64, with MimeType) is set.
type ImagePart struct {
	URL       string `json:"url,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	ImageData string `json:"image_data,omitempty"`
}

// ToolCallPart represents a part of the message that represents a call to a tool the model wants to use.
type ToolCallPart struct {
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name"`
	Args       json.RawMessage `json:"args"`
}

// ToolResultPart represents a part of the message that represents the result of a tool call.
type ToolResultPart struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name"`
	Content    []Part `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// MarshalJSON implements custom JSON marshaling for Part
func (p Part) MarshalJSON() ([]byte, error) {
	switch {
	case p.TextPart != nil:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			*TextPart
		}{PartTypeText, p.TextPart})
	case p.ImagePart != nil:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			*ImagePart
		}{PartTypeImage, p.ImagePart})
	case p.ToolCallPart != nil:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			*ToolCallPart
		}{PartTypeToolCall, p.ToolCallPart})
	case p.ToolResultPart != nil:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			*ToolResultPart
		}{PartTypeToolResult, p.ToolResultPart})
	}
	return nil, fmt.Errorf("part has no content")
}

// UnmarshalJSON implements custom JSON unmarshaling for Part
func (p *Part) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Type PartType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	switch envelope.Type {
	case PartTypeText:
		p.TextPart = &TextPart{}
		return json.Unmarshal(data, p.TextPart)
	case PartTypeImage:
		p.ImagePart = &ImagePart{}
		return json.Unmarshal(data, p.ImagePart)
	case PartTypeToolCall:
		p.ToolCallPart = &ToolCallPart{}
		return json.Unmarshal(data, p.ToolCallPart)
	case PartTypeToolResult:
		p.ToolResultPart = &ToolResultPart{}
		return json.Unmarshal(data, p.ToolResultPart)
	default:
		return fmt.Errorf("unknown part type: %s", envelope.Type)
	}
}

// Message represents a message in the conversation. Exactly one field is set.
type Message struct {
	UserMessage      *UserMessage      `json:"-"`
	AssistantMessage *AssistantMessage `json:"-"`
	ToolMessage      *ToolMessage      `json:"-"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

func (m Message) Role() Role {
	switch {
	case m.UserMessage != nil:
		return RoleUser
	case m.AssistantMessage != nil:
		return RoleAssistant
	case m.ToolMessage != nil:
		return RoleTool
	}
	return ""
}

// Content returns the parts of whichever message variant is set.
func (m Message) Content() []Part {
	switch {
	case m.UserMessage != nil:
		return m.UserMessage.Content
	case m.AssistantMessage != nil:
		return m.AssistantMessage.Content
	case m.ToolMessage != nil:
		return m.ToolMessage.Content
	}
	return nil
}

// UserMessage represents a message sent by the user.
type UserMessage struct {
	Content []Part `json:"content"`
}

// AssistantMessage represents a message generated by the model.
type AssistantMessage struct {
	Content []Part `json:"content"`
}

// ToolMessage represents tool result in the message history.
// Only ToolResultPart should be included in the content.
type ToolMessage struct {
	Content []Part `json:"content"`
}

// MarshalJSON implements custom JSON marshaling for Message
func (m Message) MarshalJSON() ([]byte, error) {
	role := m.Role()
	if role == "" {
		return nil, fmt.Errorf("message has no content")
	}
	return json.Marshal(struct {
		Role    Role   `json:"role"`
		Content []Part `json:"content"`
	}{role, m.Content()})
}

// UnmarshalJSON implements custom JSON unmarshaling for Message
func (m *Message) UnmarshalJSON(data []byte) error {
	var temp struct {
		Role    Role   `json:"role"`
		Content []Part `json:"content"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	switch temp.Role {
	case RoleUser:
		m.UserMessage = &UserMessage{Content: temp.Content}
	case RoleAssistant:
		m.AssistantMessage = &AssistantMessage{Content: temp.Content}
	case RoleTool:
		m.ToolMessage = &ToolMessage{Content: temp.Content}
	default:
		return fmt.Errorf("unknown message role: %s", temp.Role)
	}
	return nil
}

// ResponseFormatOption selects how the model should format its reply.
type ResponseFormatOption struct {
	Text *ResponseFormatText `json:"-"`
	JSON *ResponseFormatJSON `json:"-"`
}

// ResponseFormatText specifies that the model response should be in plain text format.
type ResponseFormatText struct{}

// ResponseFormatJSON specifies that the model response should be in JSON format adhering to a specified schema.
type ResponseFormatJSON struct {
	// The name of the schema.
	Name string `json:"name"`
	// The description of the schema.
	Description string     `json:"description,omitempty"`
	Schema      JSONSchema `json:"schema,omitempty"`
}

// JSONSchema represents a JSON schema.
type JSONSchema map[string]any

// Tool represents a tool that can be used by the model.
type Tool struct {
	// The name of the tool.
	Name string `json:"name"`
	// A description of the tool.
	Description string `json:"description"`
	// The JSON schema of the parameters that the tool accepts. The type must be "object".
	Parameters JSONSchema `json:"parameters"`
}

// ModelUsage represents the token usage of the model.
type ModelUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Add accumulates other into u.
func (u *ModelUsage) Add(other *ModelUsage) {
	if other == nil {
		return
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// ModelResponse represents the response generated by the model.
type ModelResponse struct {
	Content []Part      `json:"content"`
	Usage   *ModelUsage `json:"usage,omitempty"`
}

// LanguageModelInput defines the input parameters for the language model completion.
type LanguageModelInput struct {
	// A system prompt is a way of providing context and instructions to the model
	SystemPrompt string `json:"system_prompt,omitempty"`
	// A list of messages comprising the conversation so far.
	Messages []Message `json:"messages"`
	// Definitions of tools that the model may use.
	Tools          []Tool                `json:"tools,omitempty"`
	ResponseFormat *ResponseFormatOption `json:"response_format,omitempty"`
	// The maximum number of tokens that can be generated in the chat completion.
	MaxTokens *int64 `json:"max_tokens,omitempty"`
	// Amount of randomness injected into the response. Ranges from 0.0 to 1.0
	Temperature *float64 `json:"temperature,omitempty"`
	// The seed (integer), if set and supported by the model, to enable deterministic results.
	Seed *int64 `json:"seed,omitempty"`
}
