package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels shared by the counters below.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultLocked   = "locked"
)

// Authentication metrics
var (
	// LoginAttempts counts password attempts by result (success, rejected, locked).
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_login_attempts_total",
			Help: "Total number of password attempts",
		},
		[]string{"result"},
	)
)

// Business metrics
var (
	// Transactions counts account operations by kind and result.
	Transactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_transactions_total",
			Help: "Total number of account operations",
		},
		[]string{"kind", "result"},
	)

	// AccountsLive gauges the number of accounts held by the registry.
	AccountsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bank_accounts_live",
			Help: "Number of accounts currently held in the registry",
		},
	)
)

// Storage metrics
var (
	// StoreSaves counts full-collection saves by store driver and status.
	StoreSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bank_store_saves_total",
			Help: "Total number of account store saves",
		},
		[]string{"driver", "status"},
	)

	// StoreSaveDuration tracks how long a full save takes by store driver.
	StoreSaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bank_store_save_duration_seconds",
			Help:    "Duration of account store saves in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"driver"},
	)

	// StoreLoadFailures counts loads that fell back to an empty registry.
	StoreLoadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bank_store_load_failures_total",
			Help: "Total number of unreadable account stores",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordLoginAttempt increments the login attempt counter.
// Side effects: records a Prometheus metric.
func RecordLoginAttempt(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// RecordTransaction increments the operation counter.
// Side effects: records a Prometheus metric.
func RecordTransaction(kind, result string) {
	Transactions.WithLabelValues(kind, result).Inc()
}

// RecordStoreSave records the outcome and duration of a store save.
// Side effects: records Prometheus metrics.
func RecordStoreSave(driver string, duration time.Duration, err error) {
	status := ResultSuccess
	if err != nil {
		status = ResultFailed
	}
	StoreSaves.WithLabelValues(driver, status).Inc()
	StoreSaveDuration.WithLabelValues(driver).Observe(duration.Seconds())
}

// RecordStoreLoadFailure increments the unreadable store counter.
// Side effects: records a Prometheus metric.
func RecordStoreLoadFailure() {
	StoreLoadFailures.Inc()
}

// SetAccountsLive sets the live account gauge.
// Side effects: records a Prometheus metric.
func SetAccountsLive(n int) {
	AccountsLive.Set(float64(n))
}
