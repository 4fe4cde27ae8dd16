package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Run metrics
	RunsStarted     *prometheus.CounterVec
	RunsCompleted   *prometheus.CounterVec
	RunsFailed      *prometheus.CounterVec
	RunsRestored    *prometheus.CounterVec
	RunRejections   *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	ScheduleLength  *prometheus.HistogramVec
	StaleRunsReaped prometheus.Counter

	// Cache metrics
	OutputCache *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates all metrics and registers them with reg (the default
// registerer when reg is nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		RunsStarted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_runs_started_total",
				Help: "Total calculation runs created",
			},
			[]string{"calc_type"},
		),
		RunsCompleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_runs_completed_total",
				Help: "Total calculation runs completed",
			},
			[]string{"calc_type"},
		),
		RunsFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_runs_failed_total",
				Help: "Total calculation runs failed",
			},
			[]string{"calc_type"},
		),
		RunsRestored: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_runs_restored_total",
				Help: "Total calculation runs restored as active",
			},
			[]string{"calc_type"},
		),
		RunRejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_run_rejections_total",
				Help: "Calculation requests rejected before a run was created",
			},
			[]string{"calc_type", "reason"},
		),
		RunDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finmodel_run_duration_seconds",
				Help:    "Engine execution time per run",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"calc_type"},
		),
		ScheduleLength: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finmodel_schedule_length_periods",
				Help:    "Number of periods produced per run",
				Buckets: []float64{12, 24, 48, 60, 120, 240, 360, 600},
			},
			[]string{"calc_type"},
		),
		StaleRunsReaped: f.NewCounter(prometheus.CounterOpts{
			Name: "finmodel_stale_runs_reaped_total",
			Help: "Runs failed by the stale run reaper",
		}),

		OutputCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_output_cache_total",
				Help: "Run output cache lookups by result",
			},
			[]string{"result"},
		),

		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_events_published_total",
				Help: "Outbox events published",
			},
			[]string{"event_type"},
		),

		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),

		AuditLogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finmodel_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
