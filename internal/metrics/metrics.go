package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsbot_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gsbot_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Bot
	CommandsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsbot_commands_total",
			Help: "Prefix and slash commands handled",
		},
		[]string{"command"},
	)

	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsbot_moderation_actions_total",
			Help: "Moderation actions by outcome",
		},
		[]string{"action", "outcome"}, // applied, failed, rejected
	)

	PetsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gsbot_pets_extracted_total",
			Help: "Pet records written by the message extractor",
		},
	)

	PetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gsbot_pet_records",
			Help: "Pet records currently stored",
		},
	)

	TicketsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gsbot_tickets_open",
			Help: "Ticket channels tracked in the registry",
		},
	)

	GamesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gsbot_games_active",
			Help: "Mini-games currently running",
		},
	)

	AutomodHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gsbot_automod_hits_total",
			Help: "Messages removed by the word filter",
		},
	)

	MessagesCounted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gsbot_messages_counted_total",
			Help: "Guild messages recorded by analytics",
		},
	)

	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gsbot_audit_events_total",
			Help: "Audit events by level",
		},
		[]string{"level"},
	)

	// Storage
	LedgerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gsbot_ledger_latency_seconds",
			Help:    "Moderation ledger query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .5},
		},
		[]string{"backend"},
	)
)
