// Package metrics provides Prometheus metrics for the afford agent.
// Scrape these at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Agent loop
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afford_agent_runs_total",
			Help: "Agent runs by outcome (ok or the error kind)",
		},
		[]string{"outcome"},
	)

	RunTurns = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "afford_agent_run_turns",
			Help:    "Model turns taken per run",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10, 15},
		},
	)

	ModelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afford_model_calls_total",
			Help: "Language model calls by status",
		},
		[]string{"status"},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afford_tool_calls_total",
			Help: "Tool invocations by tool and status",
		},
		[]string{"tool", "status"},
	)

	// Candidate search
	SearchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afford_search_queries_total",
			Help: "Search sub-queries by status (ok, error, cached)",
		},
		[]string{"status"},
	)

	SearchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "afford_search_candidates",
			Help:    "Candidates returned per search call",
			Buckets: []float64{0, 1, 2, 5, 10},
		},
	)

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "afford_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)
