package metrics

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hostel_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	RentJobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_rent_job_runs_total",
		Help: "Rent lifecycle job runs by job and result",
	}, []string{"job", "status"})

	RentJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hostel_rent_job_duration_seconds",
		Help:    "Duration of rent lifecycle job runs",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"job"})

	RentRecordsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_rent_records_created_total",
		Help: "Rent records created by source",
	}, []string{"source"})

	RentOverdueTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hostel_rent_overdue_transitions_total",
		Help: "Rent records moved to Overdue by the status refresh",
	})

	RentTenantFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_rent_tenant_failures_total",
		Help: "Per-tenant failures isolated during batch rent processing",
	}, []string{"job"})

	RentPayments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hostel_rent_payments_total",
		Help: "Payments applied to rent records by method and outcome",
	}, []string{"method", "outcome"})
)

// ObserveJob records one run of a rent lifecycle job.
func ObserveJob(job string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RentJobRuns.WithLabelValues(job, status).Inc()
	RentJobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// PoolStatter is the part of pgxpool.Pool the pool gauges read.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// RegisterPoolStats exposes connection pool gauges for pool.
func RegisterPoolStats(reg prometheus.Registerer, pool PoolStatter) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "hostel_db_pool_total_conns",
			Help: "Open database connections",
		}, func() float64 { return float64(pool.Stat().TotalConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "hostel_db_pool_acquired_conns",
			Help: "Database connections currently in use",
		}, func() float64 { return float64(pool.Stat().AcquiredConns()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "hostel_db_pool_idle_conns",
			Help: "Idle database connections",
		}, func() float64 { return float64(pool.Stat().IdleConns()) }),
	}
	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
