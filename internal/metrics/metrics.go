package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlanRuns counts planning runs by region and outcome
	PlanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "plan_runs_total", Help: "Evacuation plan runs by region and outcome."},
		[]string{"region", "outcome"},
	)
	// PlanDuration records end-to-end planning time in seconds
	PlanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "plan_duration_seconds", Help: "Evacuation plan duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}},
		[]string{"region"},
	)
	// PlanBestFitness reports the latest best fitness per region
	PlanBestFitness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "plan_best_fitness", Help: "Best fitness of the most recent plan per region."},
		[]string{"region"},
	)

	// SimSteps counts flood simulation steps by region
	SimSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sim_steps_total", Help: "Flood simulation steps by region."},
		[]string{"region"},
	)

	// AlertDeliveries counts webhook delivery outcomes by event type and status
	AlertDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alert_deliveries_total", Help: "Alert deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// AlertLatency tracks alert delivery latencies in milliseconds
	AlertLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "alert_delivery_latency_ms", Help: "Alert delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlanRuns)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(PlanBestFitness)
		Registry.MustRegister(SimSteps)
		Registry.MustRegister(AlertDeliveries)
		Registry.MustRegister(AlertLatency)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
