package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnswersGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_answers_generated_total",
			Help: "Total number of sample answers returned, by producing strategy",
		},
		[]string{"source"},
	)

	AnswerStageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_answer_stage_failures_total",
			Help: "Total number of failed answer generation stages",
		},
		[]string{"stage"},
	)

	StreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assessment_answer_stream_duration_seconds",
			Help:    "Duration of streamed answer generation in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 6, 8, 10, 15},
		},
		[]string{"outcome"},
	)

	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_evaluations_total",
			Help: "Total number of answer evaluations, by outcome",
		},
		[]string{"outcome"},
	)

	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_step_transitions_total",
			Help: "Total number of session step transitions",
		},
		[]string{"from", "to"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	TelegramUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_telegram_updates_total",
			Help: "Total number of Telegram updates, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)
