// Package metrics exposes Prometheus counters and histograms for dispatch
// outcomes, chat latency and market-data fetches.
//
// Every recording method is safe on a nil *Metrics, so callers that run
// without metrics pass nil instead of a stub.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"stockchat/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	DispatchOutcomes *prometheus.CounterVec // labels: outcome
	FunctionCalls    *prometheus.CounterVec // labels: function, status
	ChatLatency      *prometheus.HistogramVec
	FetchTotal       *prometheus.CounterVec // labels: source, result
	FetchDuration    prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates the metrics and registers them on reg. A nil reg uses a fresh
// private registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		DispatchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockchat_dispatch_outcomes_total",
			Help: "Completed interactions by outcome (text, artifact, or error kind)",
		}, []string{"outcome"}),
		FunctionCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockchat_function_calls_total",
			Help: "Registry function invocations by name and status",
		}, []string{"function", "status"}),
		ChatLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockchat_chat_duration_seconds",
			Help:    "Chat service round-trip latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockchat_market_fetches_total",
			Help: "Price history lookups by source and result",
		}, []string{"source", "result"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockchat_market_fetch_duration_seconds",
			Help:    "Upstream market data fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{
		m.DispatchOutcomes,
		m.FunctionCalls,
		m.ChatLatency,
		m.FetchTotal,
		m.FetchDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.DispatchOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFunction(name string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FunctionCalls.WithLabelValues(name, status).Inc()
}

// ObserveChat records a chat call that started at start. phase is
// "decision" for the tool-enabled call and "summary" for the follow-up.
func (m *Metrics) ObserveChat(phase string, start time.Time) {
	if m == nil {
		return
	}
	m.ChatLatency.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// ObserveFetch counts a history lookup. result is "hit", "miss", "ok" or "error".
func (m *Metrics) ObserveFetch(source, result string) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, result).Inc()
}

func (m *Metrics) ObserveFetchDuration(start time.Time) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(time.Since(start).Seconds())
}

// HealthStatus reports what the running session is wired to.
type HealthStatus struct {
	mu sync.RWMutex

	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	CacheBackend string    `json:"cache_backend"`
	CacheOK      bool      `json:"cache_ok"`
	StartedAt    time.Time `json:"started_at"`
}

func NewHealthStatus(provider, model, cacheBackend string) *HealthStatus {
	return &HealthStatus{
		Provider:     provider,
		Model:        model,
		CacheBackend: cacheBackend,
		CacheOK:      true,
		StartedAt:    time.Now(),
	}
}

func (h *HealthStatus) SetCacheOK(v bool) {
	h.mu.Lock()
	h.CacheOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetModel(model string) {
	h.mu.Lock()
	h.Model = model
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := struct {
		Status       string `json:"status"`
		Uptime       string `json:"uptime"`
		Provider     string `json:"provider"`
		Model        string `json:"model"`
		CacheBackend string `json:"cache_backend"`
		CacheOK      bool   `json:"cache_ok"`
	}{
		Status:       "healthy",
		Uptime:       time.Since(h.StartedAt).Round(time.Second).String(),
		Provider:     h.Provider,
		Model:        h.Model,
		CacheBackend: h.CacheBackend,
		CacheOK:      h.CacheOK,
	}

	w.Header().Set("Content-Type", "application/json")
	if !h.CacheOK {
		status.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Server exposes /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

func NewServer(addr string, m *Metrics, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the listener in a goroutine. It never touches session state.
func (s *Server) Start() {
	go func() {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Metrics] server listening on %s", s.addr)
		}
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Metrics] server error: %v", err)
			}
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
