package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsHandled = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logshipper_events_total",
		Help: "Total number of trigger events handled, by outcome",
	}, []string{"outcome"})
	SecretFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logshipper_secret_fetches_total",
		Help: "Total number of api key fetches from the secret source",
	}, []string{"result"})
	IdentityTableFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logshipper_identity_table_fetches_total",
		Help: "Total number of identity table downloads",
	}, []string{"result"})
	SubjectResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logshipper_subject_resolutions_total",
		Help: "Total number of subject id resolutions, by method",
	}, []string{"method"})
	ForwardRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logshipper_forward_requests_total",
		Help: "Total number of POST requests to the log ingestion API, by status class",
	}, []string{"status"})
	ForwardDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "logshipper_forward_duration_seconds",
		Help:    "Latency of POST requests to the log ingestion API",
		Buckets: prometheus.DefBuckets,
	})
)

var registerOnce sync.Once

// Register adds all metrics to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EventsHandled,
			SecretFetches,
			IdentityTableFetches,
			SubjectResolutions,
			ForwardRequests,
			ForwardDuration,
		)
	})
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result returns the label value for a fetch outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
