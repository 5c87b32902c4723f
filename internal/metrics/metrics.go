package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codesync",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codesync",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codesync",
		Name:      "ws_connected_clients",
		Help:      "Current number of admitted room members",
	})

	wsRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "codesync",
		Name:      "ws_active_rooms",
		Help:      "Current number of rooms with at least one member",
	})

	wsEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codesync",
		Name:      "ws_events_total",
		Help:      "Total number of routed room events by kind",
	}, []string{"event"})
)

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps WebSocket upgrades working behind the middleware.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request metrics with Prometheus labels.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EventRouted counts one routed room event.
func EventRouted(event string) {
	wsEvents.WithLabelValues(event).Inc()
}

// Recorder tracks membership gauges. It implements session.Notifier.
type Recorder struct{}

func (Recorder) JoinedRoom(_, _ string, occupants int) {
	wsClients.Inc()
	if occupants == 1 {
		wsRooms.Inc()
	}
}

func (Recorder) LeftRoom(_, _ string, occupants int) {
	wsClients.Dec()
	if occupants == 0 {
		wsRooms.Dec()
	}
}
