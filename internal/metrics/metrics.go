package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menjil_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menjil_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	RoomEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menjil_room_entries_total",
			Help: "Room entries by outcome",
		},
		[]string{"outcome"}, // "welcome_created", "welcome_replayed", "history_replayed", "failed"
	)

	QuestionPipeline = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menjil_question_pipeline_total",
			Help: "Question pipeline runs by the stage they ended in",
		},
		[]string{"stage", "result"},
	)

	TalkMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "menjil_talk_messages_total",
			Help: "Total TALK messages persisted",
		},
	)

	// Upstream metrics
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menjil_upstream_latency_seconds",
			Help:    "Latency of summarizer and similarity calls",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"upstream"},
	)

	// Transport metrics
	FanoutDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "menjil_fanout_dropped_total",
			Help: "Messages dropped because a websocket client's outbound buffer was full",
		},
	)
)
