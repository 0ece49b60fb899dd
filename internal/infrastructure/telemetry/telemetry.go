package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors exposed on /metrics.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_tracker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "referral_tracker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "referral_tracker",
			Subsystem: "lifecycle",
			Name:      "mutations_total",
			Help:      "Referral mutations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	refreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "referral_tracker",
			Subsystem: "lifecycle",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of snapshot reloads from the store.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"outcome"},
	)

	snapshotReferrals = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "referral_tracker",
			Subsystem: "snapshot",
			Name:      "referrals",
			Help:      "Referrals in the current snapshot by state.",
		},
		[]string{"state"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		mutations,
		refreshDuration,
		snapshotReferrals,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Handler exposes the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordMutation counts one lifecycle operation.
func RecordMutation(operation string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	mutations.WithLabelValues(operation, outcome).Inc()
}

// ObserveRefresh records the duration of a snapshot reload.
func ObserveRefresh(d time.Duration, outcome string) {
	refreshDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetSnapshotCounts publishes the size of the applied snapshot.
func SetSnapshotCounts(unscheduled, scheduled, paid int) {
	snapshotReferrals.WithLabelValues("unscheduled").Set(float64(unscheduled))
	snapshotReferrals.WithLabelValues("scheduled").Set(float64(scheduled))
	snapshotReferrals.WithLabelValues("paid").Set(float64(paid))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler is a mux middleware labelling requests by route template.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
