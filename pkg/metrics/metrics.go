// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// QuestionsTotal tracks citizen questions answered, split by cache outcome.
	QuestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_questions_total",
			Help: "Total citizen questions answered",
		},
		[]string{"tenant_id", "cached"},
	)

	// QuotaRejectionsTotal tracks questions refused because the citizen
	// session exhausted its daily allowance.
	QuotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_quota_rejections_total",
			Help: "Questions refused due to the per-session daily quota",
		},
		[]string{"tenant_id"},
	)

	// BudgetRejectionsTotal tracks generations refused because the tenant hit
	// its daily cost ceiling.
	BudgetRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_budget_rejections_total",
			Help: "Generations refused due to the per-tenant daily budget",
		},
		[]string{"tenant_id"},
	)

	// IngestDuration tracks document ingestion duration per stage outcome.
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Document ingestion duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"category", "status"},
	)

	// ChunksIndexed tracks the chunk count of the last successful ingest.
	ChunksIndexed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingest_chunks_indexed",
			Help: "Chunks indexed by the most recent ingest",
		},
		[]string{"tenant_id", "category"},
	)

	// LLMCallDuration tracks answer generation and embedding call duration.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM provider call duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"operation", "model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// DailyCostUSD tracks the accumulated generation cost for the current day.
	DailyCostUSD = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cost_daily_usd",
			Help: "Accumulated generation cost for the current UTC day",
		},
		[]string{"tenant_id"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordQuestion records a served question.
func RecordQuestion(tenantID string, cached bool) {
	label := "false"
	if cached {
		label = "true"
	}
	QuestionsTotal.WithLabelValues(tenantID, label).Inc()
}

// RecordLLMCall records metrics for one provider call.
func RecordLLMCall(operation, model, status string, duration float64, tokensIn, tokensOut int) {
	LLMCallDuration.WithLabelValues(operation, model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}
