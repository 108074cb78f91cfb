package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-client labels).
var (
	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trajectory_recompute_duration_seconds",
		Help:    "Time spent rebuilding the full trajectory",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	previewDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "preview_render_duration_seconds",
		Help:    "Time spent rendering a preview frame",
		Buckets: []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	})

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reflection_cache_entries",
		Help: "Entries in the current reflection cache",
	})

	cacheHits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reflection_cache_hits",
		Help: "Hits in the current reflection cache",
	})

	arrowsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flight_arrows_live",
		Help: "Arrows currently in flight",
	})

	arrowsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flight_arrows_fired_total",
		Help: "Total arrows fired",
	})

	bypassTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_bypass_total",
		Help: "Planned surfaces dropped before tracing",
	}, []string{"reason"}) // Bounded: the five bypass reasons

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be "127.0.0.1:6060" in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// StartDebugServer starts the internal observability server.
// CRITICAL: this MUST bind to localhost only to prevent pprof-based DoS.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("📊 Debug server starting on %s", cfg.ListenAddr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", cfg.ListenAddr)
		log.Printf("   - metrics: http://%s/metrics", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordRecompute records trajectory rebuild timing.
func RecordRecompute(duration time.Duration) {
	recomputeDuration.Observe(duration.Seconds())
}

// RecordPreview records preview render timing.
func RecordPreview(duration time.Duration) {
	previewDuration.Observe(duration.Seconds())
}

// UpdateCacheStats updates the reflection cache gauges.
func UpdateCacheStats(size, hits int) {
	cacheEntries.Set(float64(size))
	cacheHits.Set(float64(hits))
}

// UpdateArrowsLive updates the in-flight arrow gauge.
func UpdateArrowsLive(count int) {
	arrowsLive.Set(float64(count))
}

// RecordArrowFired increments the fired counter.
func RecordArrowFired() {
	arrowsFired.Inc()
}

// RecordBypass increments the bypass counter for one drop reason.
func RecordBypass(reason string) {
	bypassTotal.WithLabelValues(reason).Inc()
}

// RecordConnectionRejected increments the rejection counter.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates the WebSocket connection count.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments the WebSocket message counter.
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
