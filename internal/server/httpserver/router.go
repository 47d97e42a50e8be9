package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// RouterConfig holds configuration for the admin router.
type RouterConfig struct {
	// Metrics is exposed on /metrics. Nil uses the global registry.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// Ready reports whether the RESP listener is accepting. Nil means
	// always ready.
	Ready func() bool

	// AccessLog enables per-request debug logging.
	AccessLog bool
}

// NewRouter creates the admin router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg == nil {
		cfg = &RouterConfig{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	metricsHandler := metric.Handler()
	if cfg.Metrics != nil {
		metricsHandler = cfg.Metrics.Handler()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(cfg.Ready))
	mux.HandleFunc("GET /version", handleVersion)

	middlewares := []Middleware{RequestID(), Recover(log)}
	if cfg.AccessLog {
		middlewares = append(middlewares, AccessLog(log))
	}
	return Chain(mux, middlewares...)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func handleReady(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			writeText(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeText(w, http.StatusOK, "ready")
	}
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}
