package afford

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hoangvvo/afford-agent/llmsdk"
)

// ExtractionError reports that an image could not be turned into an
// ItemDescription, either because the model call failed or because the reply
// did not conform.
type ExtractionError struct {
	ImageURL string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract item description from %q: %v", e.ImageURL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor describes the product shown in an image.
type Extractor interface {
	Extract(ctx context.Context, imageURL string) (ItemDescription, error)
}

// VisionExtractor asks a vision-capable model for a structured description.
type VisionExtractor struct {
	model       llmsdk.LanguageModel
	prompt      string
	temperature *float64
	logger      *slog.Logger
}

type VisionExtractorOption func(*VisionExtractor)

func WithExtractorPrompt(prompt string) VisionExtractorOption {
	return func(e *VisionExtractor) {
		e.prompt = prompt
	}
}

func WithExtractorTemperature(temperature float64) VisionExtractorOption {
	return func(e *VisionExtractor) {
		e.temperature = &temperature
	}
}

func WithExtractorLogger(logger *slog.Logger) VisionExtractorOption {
	return func(e *VisionExtractor) {
		e.logger = logger
	}
}

func NewVisionExtractor(model llmsdk.LanguageModel, opts ...VisionExtractorOption) *VisionExtractor {
	e := &VisionExtractor{
		model:  model,
		prompt: extractorPrompt,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *VisionExtractor) Extract(ctx context.Context, imageURL string) (ItemDescription, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return ItemDescription{}, &ExtractionError{Err: errors.New("image url is empty")}
	}

	input := &llmsdk.LanguageModelInput{
		SystemPrompt: e.prompt,
		Messages: []llmsdk.Message{
			llmsdk.NewUserMessage(
				llmsdk.NewTextPart("Describe the item in this image."),
				llmsdk.NewImageURLPart(imageURL),
			),
		},
		Temperature: e.temperature,
	}
	format := llmsdk.ResponseFormatJSON{
		Name:        "item_description",
		Description: "Structured description of the item in the image",
		Schema:      itemDescriptionSchema(),
	}

	out, _, err := llmsdk.GenerateObject[ItemDescription](ctx, e.model, input, format)
	if err != nil {
		return ItemDescription{}, &ExtractionError{ImageURL: imageURL, Err: err}
	}

	desc := out.Normalize()
	if err := desc.Validate(); err != nil {
		return ItemDescription{}, &ExtractionError{ImageURL: imageURL, Err: err}
	}
	e.logger.Debug("extracted item description", "image_url", imageURL, "category", desc.Category, "brand", desc.Brand)
	return desc, nil
}
