package metrics

import (
	"net/http"

	"tierconvert/internal/stats"
	"tierconvert/internal/tier"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects and exposes conversion metrics
type Collector struct {
	registry       *prometheus.Registry
	objectsFound   *prometheus.CounterVec
	objectsTotal   *prometheus.CounterVec
	restorePending *prometheus.GaugeVec
	pollRounds     *prometheus.CounterVec
}

// New creates a new metrics collector on its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		objectsFound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tierconvert_objects_found_total",
				Help: "Total number of archived objects discovered",
			},
			[]string{"tier"},
		),
		objectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tierconvert_objects_total",
				Help: "Total number of objects processed by outcome",
			},
			[]string{"tier", "outcome"},
		),
		restorePending: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tierconvert_restore_pending",
				Help: "Number of objects waiting for a restore to complete",
			},
			[]string{"tier"},
		),
		pollRounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tierconvert_poll_rounds_total",
				Help: "Total number of restore status poll rounds",
			},
			[]string{"tier"},
		),
	}

	c.registry.MustRegister(c.objectsFound)
	c.registry.MustRegister(c.objectsTotal)
	c.registry.MustRegister(c.restorePending)
	c.registry.MustRegister(c.pollRounds)

	return c
}

// Discovered increments the found counter of t
func (c *Collector) Discovered(t tier.Tier, key string) {
	c.objectsFound.WithLabelValues(t.String()).Inc()
}

// Observe increments the outcome counter of t
func (c *Collector) Observe(t tier.Tier, key string, outcome stats.Outcome, err error) {
	c.objectsTotal.WithLabelValues(t.String(), outcome.String()).Inc()
}

// PollRound counts a poll round and records how many objects still wait
func (c *Collector) PollRound(t tier.Tier, pending int) {
	c.pollRounds.WithLabelValues(t.String()).Inc()
	c.restorePending.WithLabelValues(t.String()).Set(float64(pending))
}

// Handler serves the collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server
func (c *Collector) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return http.ListenAndServe(addr, mux)
}
