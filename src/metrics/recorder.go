package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"market-confluence/src/models"
)

const namespace = "confluence"

// Recorder owns a private registry so several servers (and tests) can run in
// one process. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	buildSeconds    prometheus.Histogram
	eventsTotal     *prometheus.CounterVec
	wsClients       prometheus.Gauge
	clusterWeighted prometheus.Gauge
	clusterSize     prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// -----------------------------------------------------------------------------

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		buildSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "build_seconds",
			Help:      "Time spent building one confluence snapshot",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
		}),
		eventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "events_total",
			Help:      "Confluence events emitted by kind",
		}, []string{"kind"}),
		wsClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected websocket clients",
		}),
		clusterWeighted: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "weighted_score",
			Help:      "Weighted score of the dominant cluster in the latest snapshot",
		}),
		clusterSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "size",
			Help:      "Members of the dominant cluster in the latest snapshot",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route", "method"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// -----------------------------------------------------------------------------

// ObserveSnapshot records build latency and the dominant cluster.
func (r *Recorder) ObserveSnapshot(snap *models.MConfluenceSnapshot, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.buildSeconds.Observe(elapsed.Seconds())
	if snap != nil {
		r.clusterWeighted.Set(snap.MainCluster.WeightedScore)
		r.clusterSize.Set(float64(snap.MainCluster.Size))
	}
}

func (r *Recorder) EventsEmitted(events []models.MConfluenceEvent) {
	if r == nil {
		return
	}
	for _, e := range events {
		r.eventsTotal.WithLabelValues(string(e.Kind)).Inc()
	}
}

func (r *Recorder) SetClients(n int) {
	if r == nil {
		return
	}
	r.wsClients.Set(float64(n))
}

// ObserveRequest labels by route template to keep cardinality low.
func (r *Recorder) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
