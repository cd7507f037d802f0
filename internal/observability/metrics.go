package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonathan/referat-bot/internal/generation"
	"github.com/jonathan/referat-bot/internal/llm"
)

const namespace = "referat_bot"

var (
	// Completion client
	CompletionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "attempts_total",
			Help:      "Completion calls by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	CompletionExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "exhausted_total",
			Help:      "Completions that failed on every key and model",
		},
	)

	// Planner
	OutlinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "outlines_total",
			Help:      "Outlines by kind and source (llm, override, fallback)",
		},
		[]string{"kind", "source"},
	)

	SectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "sections_total",
			Help:      "Expanded sections by kind and result (generated, placeholder)",
		},
		[]string{"kind", "result"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "End to end generation duration in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"kind", "status"},
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "duration_seconds",
			Help:      "Document rendering duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format"},
	)

	// Bot
	BotUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Telegram updates by type",
		},
		[]string{"type"},
	)

	DocumentsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "documents_total",
			Help:      "Delivered documents by format and billing (free, paid)",
		},
		[]string{"format", "billing"},
	)

	ActiveGenerations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "active_generations",
			Help:      "Generations currently running",
		},
	)

	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// ClientOptions wires completion client hooks to the metrics
func ClientOptions() []llm.ClientOption {
	return []llm.ClientOption{
		llm.WithAttemptHook(func(a llm.Attempt) {
			outcome := "ok"
			if a.Err != nil {
				outcome = "error"
				if errors.Is(a.Err, llm.ErrEmptyResponse) {
					outcome = "empty"
				}
			}
			CompletionAttempts.WithLabelValues(a.Model, outcome).Inc()
		}),
		llm.WithExhaustHook(CompletionExhausted.Inc),
	}
}

// PlannerHooks wires planner decisions to the metrics
func PlannerHooks() generation.Hooks {
	return generation.Hooks{
		OnOutline: func(kind generation.Kind, source generation.OutlineSource, _ int) {
			OutlinesTotal.WithLabelValues(string(kind), string(source)).Inc()
		},
		OnSection: func(kind generation.Kind, generated bool) {
			result := "generated"
			if !generated {
				result = "placeholder"
			}
			SectionsTotal.WithLabelValues(string(kind), result).Inc()
		},
	}
}

// StatusLabel maps an error to a duration label
func StatusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

// StatusCode formats an HTTP status for labels
func StatusCode(code int) string {
	return strconv.Itoa(code)
}
