package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LLMBuckets spans 100ms to two minutes, the upstream timeout ceiling.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Metrics groups the gateway's Prometheus collectors.
// All methods are safe on a nil receiver so metrics stay optional.
type Metrics struct {
	providerRequests *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	streamChunks     *prometheus.CounterVec
	activeStreams    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnichat_provider_requests_total",
				Help: "Provider requests by outcome",
			},
			[]string{"provider", "model", "status"},
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "omnichat_provider_latency_seconds",
				Help:    "Provider latency, measured to the last chunk for streams",
				Buckets: LLMBuckets,
			},
			[]string{"provider", "model"},
		),
		streamChunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnichat_stream_chunks_total",
				Help: "Content fragments relayed from streaming providers",
			},
			[]string{"provider", "model"},
		),
		activeStreams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "omnichat_streams_active",
				Help: "Open upstream streams",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.providerRequests,
		m.providerLatency,
		m.streamChunks,
		m.activeStreams,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// ObserveRequest records one finished provider call.
func (m *Metrics) ObserveRequest(provider, model, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(provider, model, status).Inc()
	m.providerLatency.WithLabelValues(provider, model).Observe(elapsed.Seconds())
}

// ObserveChunk counts one relayed content fragment.
func (m *Metrics) ObserveChunk(provider, model string) {
	if m == nil {
		return
	}
	m.streamChunks.WithLabelValues(provider, model).Inc()
}

// StreamOpened marks an upstream stream as active.
func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.activeStreams.Inc()
}

// StreamClosed marks an upstream stream as finished.
func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.activeStreams.Dec()
}
