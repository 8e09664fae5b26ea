// Package metrics exposes Prometheus counters and histograms for the
// producer dispatch path: send latency, retry counts, and connection-broken
// events. Metrics are registered with prometheus.MustRegister at init and
// served through promhttp's handler. The conn and producer packages always
// update these collectors; only serving them over HTTP (StartExporter) is
// opt-in.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "corekafka_producer_send_latency_seconds",
		Help: "Latency of Producer.Send, from call to ProduceResult or error.",
	})
	RetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "corekafka_producer_retries_total",
		Help: "Number of retriable-error retries issued by the producer.",
	})
	ConnectionsBrokenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "corekafka_connections_broken_total",
		Help: "Number of Broker Connections that transitioned to Broken.",
	})
)

func init() {
	prometheus.MustRegister(SendLatency, RetriesTotal, ConnectionsBrokenTotal)
}

// StartExporter serves the Prometheus scrape endpoint on :port. Intended
// for use from a cmd/ binary, not from inside the core library.
func StartExporter(port int) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
	}()
}
