package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hoangvvo/afford-agent/internal/clientutils"
	"github.com/hoangvvo/afford-agent/internal/tracing"
	"github.com/hoangvvo/afford-agent/llmsdk"
)

const (
	Provider       llmsdk.ProviderName = "openai"
	DefaultBaseURL                     = "https://api.openai.com/v1"
	// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// ChatModel implements llmsdk.LanguageModel against any OpenAI-compatible
// chat completions endpoint.
type ChatModel struct {
	modelID string
	apiKey  string
	baseURL string
	strict  bool
	client  *http.Client
}

type ChatModelOptions struct {
	BaseURL string
	APIKey  string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// DisableStrict omits the strict flag on tools and JSON schemas, for
	// compatible endpoints that reject it.
	DisableStrict bool
}

// NewChatModel creates a new chat completions model instance
func NewChatModel(modelID string, options ChatModelOptions) *ChatModel {
	baseURL := strings.TrimSuffix(options.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := options.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &ChatModel{
		modelID: modelID,
		apiKey:  options.APIKey,
		baseURL: baseURL,
		strict:  !options.DisableStrict,
		client:  client,
	}
}

func (m *ChatModel) Provider() llmsdk.ProviderName {
	return Provider
}

func (m *ChatModel) ModelID() string {
	return m.modelID
}

func (m *ChatModel) Generate(ctx context.Context, input *llmsdk.LanguageModelInput) (*llmsdk.ModelResponse, error) {
	return tracing.TraceGenerate(ctx, string(Provider), m.modelID, input, func(ctx context.Context) (*llmsdk.ModelResponse, error) {
		params, err := m.convertToCreateParams(input)
		if err != nil {
			return nil, err
		}

		completion, err := clientutils.DoJSON[chatCompletion](ctx, m.client, clientutils.JSONRequestConfig{
			URL:  m.baseURL + "/chat/completions",
			Body: params,
			Headers: map[string]string{
				"Authorization": "Bearer " + m.apiKey,
			},
		})
		if err != nil {
			var statusErr *clientutils.StatusError
			if errors.As(err, &statusErr) {
				return nil, llmsdk.NewStatusCodeError(statusErr.StatusCode, statusErr.Body)
			}
			return nil, llmsdk.NewTransportError(err)
		}

		if len(completion.Choices) == 0 {
			return nil, llmsdk.NewInvariantError(string(Provider), "no choices in response")
		}

		choice := completion.Choices[0]
		if choice.Message.Refusal != nil && *choice.Message.Refusal != "" {
			return nil, llmsdk.NewRefusalError(*choice.Message.Refusal)
		}

		content := mapMessage(choice.Message)

		var u *llmsdk.ModelUsage
		if completion.Usage != nil {
			u = &llmsdk.ModelUsage{
				InputTokens:  completion.Usage.PromptTokens,
				OutputTokens: completion.Usage.CompletionTokens,
			}
		}

		return &llmsdk.ModelResponse{Content: content, Usage: u}, nil
	})
}

func (m *ChatModel) convertToCreateParams(input *llmsdk.LanguageModelInput) (*chatCompletionCreateParams, error) {
	messages, err := convertToMessages(input.Messages, input.SystemPrompt)
	if err != nil {
		return nil, err
	}

	params := &chatCompletionCreateParams{
		Model:               m.modelID,
		Messages:            messages,
		Temperature:         input.Temperature,
		MaxCompletionTokens: input.MaxTokens,
		Seed:                input.Seed,
	}

	var strict *bool
	if m.strict {
		strict = llmsdk.Ptr(true)
	}

	for _, tool := range input.Tools {
		params.Tools = append(params.Tools, chatTool{
			Type: "function",
			Function: functionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
				Strict:      strict,
			},
		})
	}

	if rf := input.ResponseFormat; rf != nil {
		switch {
		case rf.JSON != nil && rf.JSON.Schema != nil:
			params.ResponseFormat = &responseFormat{
				Type: "json_schema",
				JSONSchema: &responseJSONSchema{
					Name:        rf.JSON.Name,
					Description: rf.JSON.Description,
					Schema:      rf.JSON.Schema,
					Strict:      strict,
				},
			}
		case rf.JSON != nil:
			params.ResponseFormat = &responseFormat{Type: "json_object"}
		case rf.Text != nil:
			params.ResponseFormat = &responseFormat{Type: "text"}
		}
	}

	return params, nil
}

// convertToMessages puts the system prompt first and expands each tool
// message into one provider message per result.
func convertToMessages(messages []llmsdk.Message, systemPrompt string) ([]chatMessageParam, error) {
	var out []chatMessageParam

	if systemPrompt != "" {
		out = append(out, chatMessageParam{Role: "system", Content: systemPrompt})
	}

	for _, message := range messages {
		switch {
		case message.UserMessage != nil:
			var content []chatContentPart
			for _, part := range message.UserMessage.Content {
				p, err := convertToContentPart(part)
				if err != nil {
					return nil, err
				}
				content = append(content, p)
			}
			out = append(out, chatMessageParam{Role: "user", Content: content})

		case message.AssistantMessage != nil:
			param := chatMessageParam{Role: "assistant"}
			var text []string
			for _, part := range message.AssistantMessage.Content {
				switch {
				case part.TextPart != nil:
					text = append(text, part.TextPart.Text)
				case part.ToolCallPart != nil:
					args := part.ToolCallPart.ArgsText()
					if args == "" {
						args = "{}"
					}
					param.ToolCalls = append(param.ToolCalls, chatToolCall{
						ID:   part.ToolCallPart.ToolCallID,
						Type: "function",
						Function: chatToolFunction{
							Name:      part.ToolCallPart.ToolName,
							Arguments: args,
						},
					})
				}
			}
			if len(text) > 0 {
				param.Content = strings.Join(text, "")
			}
			out = append(out, param)

		case message.ToolMessage != nil:
			for _, part := range message.ToolMessage.Content {
				if part.ToolResultPart == nil {
					return nil, llmsdk.NewInvalidInputError("tool message must only contain tool result parts")
				}
				out = append(out, chatMessageParam{
					Role:       "tool",
					ToolCallID: part.ToolResultPart.ToolCallID,
					Content:    llmsdk.Text(part.ToolResultPart.Content),
				})
			}
		}
	}

	return out, nil
}

func convertToContentPart(part llmsdk.Part) (chatContentPart, error) {
	switch {
	case part.TextPart != nil:
		return chatContentPart{Type: "text", Text: part.TextPart.Text}, nil
	case part.ImagePart != nil:
		url := part.ImagePart.URL
		if url == "" {
			url = fmt.Sprintf("data:%s;base64,%s", part.ImagePart.MimeType, part.ImagePart.ImageData)
		}
		return chatContentPart{Type: "image_url", ImageURL: &chatImageURL{URL: url}}, nil
	default:
		return chatContentPart{}, llmsdk.NewUnsupportedError(string(Provider), fmt.Sprintf("part type %q in user message", part.Type()))
	}
}

func mapMessage(message chatCompletionMessage) []llmsdk.Part {
	var parts []llmsdk.Part

	if message.Content != nil && *message.Content != "" {
		parts = append(parts, llmsdk.NewTextPart(*message.Content))
	}

	for _, toolCall := range message.ToolCalls {
		parts = append(parts, llmsdk.NewToolCallPart(toolCall.ID, toolCall.Function.Name, rawArgs(toolCall.Function.Arguments)))
	}

	return parts
}
