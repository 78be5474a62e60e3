package metrics

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoenergy_requests_total",
			Help: "Total number of requests per route",
		},
		[]string{"route"},
	)

	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecoenergy_request_duration_seconds",
			Help:    "Request duration in seconds per route and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoenergy_request_errors_total",
			Help: "Total number of error responses per route and status code",
		},
		[]string{"route", "code"},
	)
)

var (
	CalculationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ecoenergy_calculations_total",
			Help: "Total number of consumption calculations",
		},
	)

	HistoryAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoenergy_history_appends_total",
			Help: "Total number of history entries appended, by origin",
		},
		[]string{"origin"},
	)

	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoenergy_reports_total",
			Help: "Total number of generated artifacts by kind (pdf, bar, pie, history)",
		},
		[]string{"kind"},
	)
)

var (
	DBPoolOpenConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoenergy_db_pool_open_conns",
			Help: "Open connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoenergy_db_pool_idle_conns",
			Help: "Idle connections in the DB pool per driver",
		},
		[]string{"driver"},
	)

	DBPoolInUseConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoenergy_db_pool_in_use_conns",
			Help: "Currently in-use connections per driver",
		},
		[]string{"driver"},
	)

	DBPoolWaitCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoenergy_db_pool_wait_count",
			Help: "Total number of connections waited for per driver",
		},
		[]string{"driver"},
	)
)

func UpdateDBPoolMetrics(driver string, s sql.DBStats) {
	DBPoolOpenConns.WithLabelValues(driver).Set(float64(s.OpenConnections))
	DBPoolIdleConns.WithLabelValues(driver).Set(float64(s.Idle))
	DBPoolInUseConns.WithLabelValues(driver).Set(float64(s.InUse))
	DBPoolWaitCount.WithLabelValues(driver).Set(float64(s.WaitCount))
}

var (
	ScheduledJobLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoenergy_job_last_run_timestamp",
			Help: "Unix timestamp of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobLastDurationSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ecoenergy_job_last_duration_seconds",
			Help: "Duration of the last completed run for a job",
		},
		[]string{"job"},
	)

	ScheduledJobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoenergy_job_failures_total",
			Help: "Total number of failed executions per job",
		},
		[]string{"job"},
	)
)

func UpdateJobMetrics(job string, startedAt time.Time, err error) {
	dur := time.Since(startedAt).Seconds()
	ScheduledJobLastDurationSeconds.WithLabelValues(job).Set(dur)
	ScheduledJobLastRun.WithLabelValues(job).Set(float64(time.Now().Unix()))
	if err != nil {
		ScheduledJobFailuresTotal.WithLabelValues(job).Inc()
	}
}
