package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_queries_total",
			Help: "Total number of user queries processed, by classified intent",
		},
		[]string{"intent"},
	)

	QueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_query_failures_total",
			Help: "Total number of queries that terminated in the error state",
		},
		[]string{"error_code"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_workflow_step_duration_seconds",
			Help: "Duration of each workflow node in seconds",
		},
		[]string{"node"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_llm_requests_total",
			Help: "Total number of LLM calls by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_dataset_rows",
			Help: "Number of ledger rows in the active dataset snapshot",
		},
	)
)
