package mcpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hoangvvo/afford-agent/afford"
	"github.com/hoangvvo/afford-agent/mcpserver"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubExtractor struct {
	desc afford.ItemDescription
	err  error
}

func (e stubExtractor) Extract(ctx context.Context, imageURL string) (afford.ItemDescription, error) {
	return e.desc, e.err
}

type stubSearcher struct {
	candidates []afford.Candidate
	err        error
}

func (s stubSearcher) Search(ctx context.Context, desc afford.ItemDescription) ([]afford.Candidate, error) {
	return s.candidates, s.err
}

func connect(t *testing.T, server *gomcp.Server) *gomcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := gomcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func newServer(extractor afford.Extractor, searcher afford.Searcher) *gomcp.Server {
	return mcpserver.New(extractor, searcher, &mcpserver.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func resultText(t *testing.T, res *gomcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(*gomcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestServer_ListTools(t *testing.T) {
	session := connect(t, newServer(stubExtractor{}, stubSearcher{}))

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)
	want := []string{afford.ExpansiveSearchToolName, afford.GetItemDescriptionToolName}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("tools mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_GetItemDescription(t *testing.T) {
	desc := afford.ItemDescription{Category: afford.CategoryClothing, Colors: []string{"teal"}, Materials: []string{}}
	session := connect(t, newServer(stubExtractor{desc: desc}, stubSearcher{}))

	res, err := session.CallTool(context.Background(), &gomcp.CallToolParams{
		Name:      afford.GetItemDescriptionToolName,
		Arguments: map[string]any{"image_url": "https://img.example/shirt.jpg"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	var got afford.ItemDescription
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if diff := cmp.Diff(desc, got); diff != "" {
		t.Errorf("description mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_ExpansiveSearch(t *testing.T) {
	candidates := []afford.Candidate{{Category: afford.CategoryClothing, URL: "https://shop.example/1", Description: "teal shirt"}}
	session := connect(t, newServer(stubExtractor{}, stubSearcher{candidates: candidates}))

	res, err := session.CallTool(context.Background(), &gomcp.CallToolParams{
		Name: afford.ExpansiveSearchToolName,
		Arguments: map[string]any{
			"item_description": map[string]any{
				"category":    "clothing",
				"brand":       "",
				"colors":      []string{"teal"},
				"materials":   []string{},
				"price":       0,
				"url":         "",
				"description": "",
			},
		},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	got, err := afford.DecodeCandidates(resultText(t, res))
	if err != nil {
		t.Fatalf("DecodeCandidates: %v", err)
	}
	if diff := cmp.Diff(candidates, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_ToolFailureIsErrorResult(t *testing.T) {
	session := connect(t, newServer(
		stubExtractor{err: &afford.ExtractionError{ImageURL: "x", Err: errors.New("unreachable")}},
		stubSearcher{},
	))

	res, err := session.CallTool(context.Background(), &gomcp.CallToolParams{
		Name:      afford.GetItemDescriptionToolName,
		Arguments: map[string]any{"image_url": "x"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, res); got != `extract item description from "x": unreachable` {
		t.Errorf("unexpected error text %q", got)
	}
}
