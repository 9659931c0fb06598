// Package app wires the afford components from configuration. It is shared by
// the binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hoangvvo/afford-agent/afford"
	"github.com/hoangvvo/afford-agent/internal/config"
	"github.com/hoangvvo/afford-agent/llmagent"
	"github.com/hoangvvo/afford-agent/llmsdk"
	"github.com/hoangvvo/afford-agent/llmsdk/openai"
	"github.com/hoangvvo/afford-agent/tavily"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Components holds everything a binary needs to serve afford runs.
type Components struct {
	Model     llmsdk.LanguageModel
	Extractor afford.Extractor
	Searcher  afford.Searcher
	Agent     *llmagent.Agent[afford.State]
}

// Build creates the model, search client, extractor, searcher and agent.
// Extra agent options are applied last.
func Build(cfg *config.Config, logger *slog.Logger, opts ...llmagent.AgentParamsOption[afford.State]) (*Components, error) {
	model := openai.NewChatModel(cfg.ModelID, openai.ChatModelOptions{
		BaseURL: cfg.ModelBaseURL,
		APIKey:  cfg.ModelAPIKey,
	})

	client := tavily.NewClient(cfg.TavilyAPIKey, tavily.WithRateLimit(cfg.SearchRPS, 1))

	extractor := afford.NewVisionExtractor(model,
		afford.WithExtractorTemperature(0),
		afford.WithExtractorLogger(logger),
	)
	searcher := afford.NewWebSearcher(client,
		afford.WithQueryGenerator(afford.NewModelQueryGenerator(model), cfg.GeneratedQueries),
		afford.WithMaxCandidates(cfg.MaxCandidates),
		afford.WithResultsPerQuery(cfg.ResultsPerQuery),
		afford.WithSearchLogger(logger),
	)

	agentOpts := []llmagent.AgentParamsOption[afford.State]{
		llmagent.WithMaxTurns[afford.State](cfg.MaxTurns),
		llmagent.WithTimeout[afford.State](cfg.RunTimeout),
		llmagent.WithLogger[afford.State](logger),
	}
	agent, err := afford.NewAgent(model, extractor, searcher, append(agentOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	return &Components{Model: model, Extractor: extractor, Searcher: searcher, Agent: agent}, nil
}

// InitTracing installs an OTLP/HTTP trace exporter when cfg names an
// endpoint. The returned function flushes and stops the provider.
func InitTracing(ctx context.Context, cfg *config.Config, serviceName string) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	// The exporter reads the OTEL_EXPORTER_OTLP_* variables itself.
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			"",
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
