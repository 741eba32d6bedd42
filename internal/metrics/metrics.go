package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session metrics
var (
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jukebot_sessions_active",
			Help: "Number of guilds with an active voice session",
		},
	)

	WatchdogDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebot_watchdog_disconnects_total",
			Help: "Total number of sessions disconnected for inactivity",
		},
	)
)

// Queue metrics
var (
	TracksEnqueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jukebot_tracks_enqueued_total",
			Help: "Total number of tracks appended to a queue",
		},
	)

	ResolveFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebot_resolve_failures_total",
			Help: "Total number of sources that could not be resolved",
		},
		[]string{"reason"}, // "unavailable", "other"
	)

	IngestItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebot_ingest_items_total",
			Help: "Playlist items visited during ingestion by outcome",
		},
		[]string{"outcome"}, // "accepted", "limit", "unavailable"
	)
)

// Command metrics
var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jukebot_commands_total",
			Help: "Total number of slash commands handled",
		},
		[]string{"command", "status"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jukebot_command_duration_seconds",
			Help:    "Slash command handling duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"command"},
	)
)
