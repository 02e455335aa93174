package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pubchem_requests_submitted_total",
		Help: "Total number of asynchronous requests accepted.",
	})

	requestsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pubchem_requests_completed_total",
		Help: "Total number of requests that finished successfully.",
	})

	requestsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pubchem_requests_failed_total",
		Help: "Total number of requests that finished with an error.",
	})

	requestsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pubchem_requests_evicted_total",
		Help: "Total number of terminal request records evicted by the sweeper.",
	})

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pubchem_request_queue_depth",
		Help: "Number of submitted requests waiting for a worker.",
	})

	fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pubchem_fetch_duration_seconds",
		Help:    "Work function duration in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(requestsSubmitted)
	prometheus.MustRegister(requestsCompleted)
	prometheus.MustRegister(requestsFailed)
	prometheus.MustRegister(requestsEvicted)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(fetchDuration)
}
