package llmsdk

import "context"

type ProviderName string

// LanguageModel is the model invocation boundary. Generate blocks until the
// provider answers or ctx is done.
type LanguageModel interface {
	Provider() ProviderName
	ModelID() string
	Generate(ctx context.Context, input *LanguageModelInput) (*ModelResponse, error)
}
