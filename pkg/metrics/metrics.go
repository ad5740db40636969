package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts handled turns by starting stage and outcome
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formchat_turns_total",
		Help: "Conversation turns handled, by stage and outcome",
	}, []string{"stage", "outcome"})

	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "formchat_turn_duration_seconds",
		Help:    "Time spent handling one conversation turn",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"stage"})

	// StageTransitions counts committed transitions between stages
	StageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formchat_stage_transitions_total",
		Help: "Committed session stage transitions",
	}, []string{"from", "to"})

	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formchat_session_version_conflicts_total",
		Help: "Session writes rejected by the optimistic version check",
	})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formchat_llm_requests_total",
		Help: "LLM attempts by result kind",
	}, []string{"kind"})

	LLMDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "formchat_llm_request_duration_seconds",
		Help:    "LLM attempt latency",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})

	// Decisions counts routing and prediction outcomes
	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formchat_decisions_total",
		Help: "Decisions made by the orchestration nodes",
	}, []string{"node", "result"})
)
