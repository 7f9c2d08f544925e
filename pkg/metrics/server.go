package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/salvocorp/rankcore/pkg/health"
)

// StartServer launches a background HTTP server exposing /metrics (and,
// when checker is non-nil, the /live and /ready probes) on addr. The
// returned shutdown func gracefully stops the server.
func StartServer(addr string, checker *health.Checker) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>rankcore metrics</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})
	if checker != nil {
		mux.HandleFunc("/live", checker.LiveHandler())
		mux.HandleFunc("/ready", checker.ReadyHandler())
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
