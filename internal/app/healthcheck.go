package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// startHealthcheckServer serves /health and /metrics on the given port.
// Failures are logged, never fatal: observability must not take the
// application down.
func (a *App) startHealthcheckServer(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("health check", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.Handle("/metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	go func() {
		a.logger.Info("health server starting", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("health server failed", "error", err)
		}
	}()
}
