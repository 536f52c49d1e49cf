package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Requests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_chat_requests_total",
			Help: "Chat requests by mode, intent and handling specialist",
		},
		[]string{"mode", "intent", "specialist"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partselect_chat_request_duration_seconds",
			Help:    "End-to-end chat request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"mode"},
	)

	GuardrailBlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_guardrail_blocks_total",
			Help: "User messages rejected by the input guardrail",
		},
		[]string{"reason"},
	)

	SpecialistTurns = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partselect_specialist_turns",
			Help:    "Model turns used by a specialist before answering",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
		[]string{"specialist"},
	)

	SpecialistExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_specialist_exhausted_total",
			Help: "Specialist loops that hit the turn budget",
		},
		[]string{"specialist"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_tool_calls_total",
			Help: "Tool executions by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	Compactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_memory_compactions_total",
			Help: "History compactions by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partselect_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status"},
	)
)
