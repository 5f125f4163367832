// Package metrics exposes Prometheus collectors for the check cycle and an
// optional HTTP listener serving them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cycle results used as the "result" label of cycles_total
const (
	ResultOK         = "ok"
	ResultNoEvents   = "no_events"
	ResultFetchError = "fetch_error"
	ResultError      = "error"
	ResultBusy       = "busy"
)

// Notification kinds and statuses
const (
	KindEvent  = "event"
	KindNotice = "notice"

	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	cycles        *prometheus.CounterVec
	extracted     prometheus.Gauge
	notifications *prometheus.CounterVec
	fetchDur      prometheus.Summary
	lastSuccessTS prometheus.Gauge
	commands      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}
	m.cycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "events_bot",
		Name:      "cycles_total",
		Help:      "Number of check cycles by result",
	}, []string{"result"})
	m.extracted = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "events_bot",
		Name:      "events_extracted",
		Help:      "Events extracted by the most recent cycle",
	})
	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "events_bot",
		Name:      "notifications_total",
		Help:      "Messages sent to the destination by kind and status",
	}, []string{"kind", "status"})
	m.fetchDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "events_bot",
		Name:      "fetch_duration_seconds",
		Help:      "Time spent fetching the listing page",
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "events_bot",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last cycle that fetched the page successfully",
	})

	m.commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "events_bot",
		Name:      "commands_total",
		Help:      "Bot commands received by name",
	}, []string{"command"})

	reg.MustRegister(m.cycles, m.extracted, m.notifications, m.fetchDur, m.lastSuccessTS, m.commands)
	return m
}

// CycleFinished counts a cycle with the given result
func (m *Metrics) CycleFinished(result string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
	if result == ResultOK || result == ResultNoEvents {
		m.lastSuccessTS.SetToCurrentTime()
	}
}

// Extracted records how many events the latest cycle produced
func (m *Metrics) Extracted(n int) {
	if m == nil {
		return
	}
	m.extracted.Set(float64(n))
}

// Notification counts one message sent (or failed) to the destination
func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.notifications.WithLabelValues(kind, status).Inc()
}

// FetchDuration records the time a page fetch took
func (m *Metrics) FetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDur.Observe(d.Seconds())
}

// Command counts one received bot command
func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

// Server serves /metrics and /healthz
type Server struct {
	server *http.Server
}

// NewServer creates a listener on addr exposing the metrics gathered by g
func NewServer(addr string, g prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
