package observability

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// HealthChecker serves the HTTP /healthz endpoint and tracks the
// readiness of the bot's moving parts.
type HealthChecker struct {
	httpServer     *http.Server
	logger         *zap.Logger
	mu             sync.RWMutex
	ready          bool
	transportReady bool
	usesTransport  bool
	listenerLive   bool
	usesListener   bool
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		logger: logger,
		ready:  true,
	}
}

// StartHTTPServer starts the HTTP health check server
func (h *HealthChecker) StartHTTPServer(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealthz)

	h.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	h.logger.Info("starting HTTP health server", zap.String("addr", addr))
	return h.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the health checker
func (h *HealthChecker) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.ready = false
	h.mu.Unlock()

	if h.httpServer != nil {
		return h.httpServer.Shutdown(ctx)
	}
	return nil
}

// SetTransportReady records whether the venue transport is reachable.
func (h *HealthChecker) SetTransportReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transportReady = ready
	h.usesTransport = true
}

// SetListenerLive records whether the event listener loop is running.
func (h *HealthChecker) SetListenerLive(live bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listenerLive = live
	h.usesListener = true
}

func (h *HealthChecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	ready := h.ready
	transportOK := !h.usesTransport || h.transportReady
	listenerOK := !h.usesListener || h.listenerLive
	h.mu.RUnlock()

	if ready && transportOK && listenerOK {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT_READY"))
	}
}
