package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ethoswire"

// Frame outcome labels.
const (
	OutcomeOK         = "ok"
	OutcomeIncomplete = "incomplete"
	OutcomeError      = "error"
)

var (
	registerOnce sync.Once

	framesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_decoded_total",
			Help:      "Frames decoded, by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)
	framesEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_encoded_total",
			Help:      "Frames encoded, by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_bytes",
			Help:      "Wire length of frames moved through a framer.",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 15),
		},
		[]string{"direction", "op"},
	)
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "connections_active",
			Help:      "Open gateway connections.",
		},
	)
	connectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "connections_total",
			Help:      "Gateway connections by accept result.",
		},
		[]string{"result"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			framesDecoded,
			framesEncoded,
			frameBytes,
			connectionsActive,
			connectionsTotal,
			httpRequests,
			httpDuration,
		)
	})
}

// RecordDecode counts one decode attempt. size is the wire length of the
// frame and is only observed on success.
func RecordDecode(direction, outcome string, size int) {
	RegisterMetrics()
	framesDecoded.WithLabelValues(direction, outcome).Inc()
	if outcome == OutcomeOK {
		frameBytes.WithLabelValues(direction, "decode").Observe(float64(size))
	}
}

func RecordEncode(direction, outcome string, size int) {
	RegisterMetrics()
	framesEncoded.WithLabelValues(direction, outcome).Inc()
	if outcome == OutcomeOK {
		frameBytes.WithLabelValues(direction, "encode").Observe(float64(size))
	}
}

func ConnectionOpened() {
	RegisterMetrics()
	connectionsTotal.WithLabelValues("accepted").Inc()
	connectionsActive.Inc()
}

func ConnectionClosed() {
	RegisterMetrics()
	connectionsActive.Dec()
}

func ConnectionRejected() {
	RegisterMetrics()
	connectionsTotal.WithLabelValues("rejected").Inc()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
