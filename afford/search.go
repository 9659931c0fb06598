package afford

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hoangvvo/afford-agent/internal/metrics"
	"github.com/hoangvvo/afford-agent/tavily"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxCandidates     = 10
	DefaultResultsPerQuery   = 5
	DefaultGeneratedQueries  = 3
	DefaultSearchConcurrency = 4
	defaultCacheSize         = 256
)

// SearchError reports that every sub-query of a search failed.
type SearchError struct {
	Queries []string
	Err     error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("all %d search queries failed: %v", len(e.Queries), e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Searcher finds candidates similar to an item.
type Searcher interface {
	Search(ctx context.Context, desc ItemDescription) ([]Candidate, error)
}

// SearchClient is the subset of *tavily.Client the searcher needs.
type SearchClient interface {
	Search(ctx context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error)
}

// WebSearcher fans an item out into several web search queries and merges the
// ranked results. It is safe for concurrent use.
type WebSearcher struct {
	client           SearchClient
	generator        QueryGenerator
	cache            *lru.Cache[string, *tavily.SearchResponse]
	maxCandidates    int
	resultsPerQuery  int
	generatedQueries int
	concurrency      int
	logger           *slog.Logger
}

type WebSearcherOption func(*WebSearcher)

// WithQueryGenerator adds model-generated queries to the templated ones.
func WithQueryGenerator(g QueryGenerator, n int) WebSearcherOption {
	return func(s *WebSearcher) {
		s.generator = g
		s.generatedQueries = n
	}
}

func WithMaxCandidates(n int) WebSearcherOption {
	return func(s *WebSearcher) {
		s.maxCandidates = n
	}
}

func WithResultsPerQuery(n int) WebSearcherOption {
	return func(s *WebSearcher) {
		s.resultsPerQuery = n
	}
}

func WithSearchConcurrency(n int) WebSearcherOption {
	return func(s *WebSearcher) {
		s.concurrency = n
	}
}

func WithSearchLogger(logger *slog.Logger) WebSearcherOption {
	return func(s *WebSearcher) {
		s.logger = logger
	}
}

func NewWebSearcher(client SearchClient, opts ...WebSearcherOption) *WebSearcher {
	s := &WebSearcher{
		client:           client,
		maxCandidates:    DefaultMaxCandidates,
		resultsPerQuery:  DefaultResultsPerQuery,
		generatedQueries: DefaultGeneratedQueries,
		concurrency:      DefaultSearchConcurrency,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxCandidates < 1 {
		s.maxCandidates = DefaultMaxCandidates
	}
	if s.concurrency < 1 {
		s.concurrency = DefaultSearchConcurrency
	}
	// Only fails for a non-positive size.
	s.cache, _ = lru.New[string, *tavily.SearchResponse](defaultCacheSize)
	return s
}

func (s *WebSearcher) Search(ctx context.Context, desc ItemDescription) ([]Candidate, error) {
	queries := s.queries(ctx, desc)
	if len(queries) == 0 {
		return nil, &SearchError{Err: errors.New("item description yields no search query")}
	}

	responses := make([]*tavily.SearchResponse, len(queries))
	errs := make([]error, len(queries))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, query := range queries {
		g.Go(func() error {
			responses[i], errs[i] = s.searchOne(ctx, query)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			s.logger.Warn("search sub-query failed", "query", queries[i], "error", err)
		}
	}
	if failed == len(queries) {
		return nil, &SearchError{Queries: queries, Err: errors.Join(errs...)}
	}

	candidates := s.merge(desc.Category, queries, responses)
	metrics.SearchCandidates.Observe(float64(len(candidates)))
	s.logger.Debug("search finished", "queries", len(queries), "failed", failed, "candidates", len(candidates))
	return candidates, nil
}

// queries returns the templated queries followed by the generated ones.
// A failed generation falls back to the templated queries.
func (s *WebSearcher) queries(ctx context.Context, desc ItemDescription) []string {
	queries := templatedQueries(desc)
	if s.generator != nil && s.generatedQueries > 0 {
		generated, err := s.generator.GenerateQueries(ctx, desc, s.generatedQueries)
		if err != nil {
			s.logger.Warn("query generation failed, using templated queries", "error", err)
		} else {
			queries = append(queries, generated...)
		}
	}
	return dedupQueries(queries)
}

func (s *WebSearcher) searchOne(ctx context.Context, query string) (*tavily.SearchResponse, error) {
	if resp, ok := s.cache.Get(query); ok {
		metrics.SearchQueriesTotal.WithLabelValues("cached").Inc()
		return resp, nil
	}
	resp, err := s.client.Search(ctx, tavily.SearchRequest{
		Query:                    query,
		SearchDepth:              tavily.SearchDepthAdvanced,
		MaxResults:               s.resultsPerQuery,
		IncludeImages:            true,
		IncludeImageDescriptions: true,
	})
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SearchQueriesTotal.WithLabelValues("ok").Inc()
	s.cache.Add(query, resp)
	return resp, nil
}

// merge flattens responses in query order, images before web results,
// dropping repeated URLs and stopping at maxCandidates.
func (s *WebSearcher) merge(category Category, queries []string, responses []*tavily.SearchResponse) []Candidate {
	candidates := []Candidate{}
	seen := make(map[string]struct{})
	add := func(c Candidate) bool {
		if c.URL == "" {
			return true
		}
		if _, ok := seen[c.URL]; ok {
			return true
		}
		seen[c.URL] = struct{}{}
		candidates = append(candidates, c)
		return len(candidates) < s.maxCandidates
	}

	for i, resp := range responses {
		if resp == nil {
			continue
		}
		for _, img := range resp.Images {
			if !add(Candidate{
				Category:    category,
				URL:         img.URL,
				ImageURL:    img.URL,
				Description: img.Description,
				Price:       parsePrice(img.Description),
				Query:       queries[i],
			}) {
				return candidates
			}
		}
		for _, r := range resp.Results {
			if !add(Candidate{
				Category:    category,
				Title:       r.Title,
				URL:         r.URL,
				Description: r.Content,
				Price:       parsePrice(r.Title + " " + r.Content),
				Query:       queries[i],
			}) {
				return candidates
			}
		}
	}
	return candidates
}

var priceRe = regexp.MustCompile(`(?i)(?:[$€£]|\b(?:usd|eur|gbp)\s?)\s?(\d{1,3}(?:,\d{3})+|\d+)(\.\d{1,2})?`)

// parsePrice returns the first currency amount in s, or 0.
func parsePrice(s string) float64 {
	m := priceRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "")+m[2], 64)
	if err != nil {
		return 0
	}
	return v
}
