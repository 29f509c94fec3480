// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	ConnectedClients     prometheus.Gauge
	ActiveRooms          prometheus.Gauge
	Submissions          *prometheus.CounterVec
	RoomsFinished        prometheus.Counter
	NotificationFailures prometheus.Counter
	SubmissionLatency    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of connected clients",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of active rooms",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Total number of phrase submissions",
		}, []string{"outcome"}),
		RoomsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_finished_total",
			Help:      "Total number of rooms that reached their repetition target",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Total number of failed push notification dispatches",
		}),
		SubmissionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_latency_seconds",
			Help:      "Phrase submission processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	prometheus.MustRegister(
		m.ConnectedClients,
		m.ActiveRooms,
		m.Submissions,
		m.RoomsFinished,
		m.NotificationFailures,
		m.SubmissionLatency,
	)

	return m
}

type Monitor struct {
	metrics      *Metrics
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

func NewMonitor(namespace string) *Monitor {
	return &Monitor{
		metrics:   NewMetrics(namespace),
		startTime: time.Now(),
	}
}

// StartServer exposes /metrics plus a couple of expvar counters on its own
// listener.
func (m *Monitor) StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())

	expvar.Publish("uptime", expvar.Func(func() interface{} {
		return time.Since(m.startTime).Seconds()
	}))

	expvar.Publish("events", expvar.Func(func() interface{} {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		return m.requestCount
	}))

	go http.ListenAndServe(addr, mux)
}

func (m *Monitor) IncConnectedClients() {
	m.metrics.ConnectedClients.Inc()
}

func (m *Monitor) DecConnectedClients() {
	m.metrics.ConnectedClients.Dec()
}

func (m *Monitor) SetActiveRooms(count int) {
	m.metrics.ActiveRooms.Set(float64(count))
}

func (m *Monitor) IncSubmissions(correct bool) {
	outcome := "miss"
	if correct {
		outcome = "hit"
	}
	m.metrics.Submissions.WithLabelValues(outcome).Inc()

	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) IncRoomsFinished() {
	m.metrics.RoomsFinished.Inc()
}

func (m *Monitor) IncNotificationFailures() {
	m.metrics.NotificationFailures.Inc()
}

func (m *Monitor) ObserveSubmissionLatency(duration time.Duration) {
	m.metrics.SubmissionLatency.Observe(duration.Seconds())
}
