// Package mcpserver exposes the afford tools over the Model Context Protocol
// so other agents can describe images and search for candidates directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hoangvvo/afford-agent/afford"
	"github.com/hoangvvo/afford-agent/internal/metrics"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "afford"
	ServerVersion = "0.1.0"
)

type Options struct {
	Logger *slog.Logger
}

// New returns an MCP server with get_item_description and expansive_search
// registered. Tool failures are returned as IsError results.
func New(extractor afford.Extractor, searcher afford.Searcher, opts *Options) *gomcp.Server {
	logger := slog.Default()
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	}

	server := gomcp.NewServer(&gomcp.Implementation{Name: ServerName, Version: ServerVersion}, nil)

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        afford.GetItemDescriptionToolName,
		Description: "Analyse the image at the given URL and return a structured description of the item it shows",
	}, func(ctx context.Context, _ *gomcp.CallToolRequest, args afford.GetItemDescriptionParams) (*gomcp.CallToolResult, any, error) {
		desc, err := extractor.Extract(ctx, args.ImageURL)
		if err != nil {
			return toolError(logger, afford.GetItemDescriptionToolName, err), nil, nil
		}
		return jsonResult(logger, afford.GetItemDescriptionToolName, desc), nil, nil
	})

	gomcp.AddTool(server, &gomcp.Tool{
		Name:        afford.ExpansiveSearchToolName,
		Description: "Search the web for products similar to the described item and return them as candidates",
	}, func(ctx context.Context, _ *gomcp.CallToolRequest, args afford.ExpansiveSearchParams) (*gomcp.CallToolResult, any, error) {
		desc := args.ItemDescription.Normalize()
		if err := desc.Validate(); err != nil {
			return toolError(logger, afford.ExpansiveSearchToolName, err), nil, nil
		}
		candidates, err := searcher.Search(ctx, desc)
		if err != nil {
			return toolError(logger, afford.ExpansiveSearchToolName, err), nil, nil
		}
		text, err := afford.EncodeCandidates(candidates)
		if err != nil {
			return toolError(logger, afford.ExpansiveSearchToolName, err), nil, nil
		}
		metrics.ToolCallsTotal.WithLabelValues(afford.ExpansiveSearchToolName, "ok").Inc()
		return textResult(text), nil, nil
	})

	return server
}

// NewHTTPHandler serves server over stateless streamable HTTP.
func NewHTTPHandler(server *gomcp.Server) http.Handler {
	return gomcp.NewStreamableHTTPHandler(func(*http.Request) *gomcp.Server {
		return server
	}, &gomcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true})
}

// ServeStdio serves server on stdin/stdout until ctx is done or the client
// disconnects.
func ServeStdio(ctx context.Context, server *gomcp.Server) error {
	return server.Run(ctx, &gomcp.StdioTransport{})
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

func jsonResult(logger *slog.Logger, tool string, v any) *gomcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return toolError(logger, tool, err)
	}
	metrics.ToolCallsTotal.WithLabelValues(tool, "ok").Inc()
	return textResult(string(b))
}

func toolError(logger *slog.Logger, tool string, err error) *gomcp.CallToolResult {
	metrics.ToolCallsTotal.WithLabelValues(tool, "error").Inc()
	logger.Warn("mcp tool failed", "tool", tool, "error", err)
	res := textResult(err.Error())
	res.IsError = true
	return res
}
