package run

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type DiagnosticsConfig struct {
	Enabled bool
	Port    int
	Wait    time.Duration
}

// Diagnostics serves pprof under /debug/pprof/ and the registry metrics under
// /metrics on localhost. It returns nil when disabled.
func Diagnostics(config DiagnosticsConfig, logger *log.Logger) *http.Server {
	if !config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if logger != nil {
		logger.Printf("serving diagnostics on %s; waiting %s to start simulation", server.Addr, config.Wait)
	}

	go func() {
		err := server.ListenAndServe()
		if logger != nil && err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("diagnostics listener returned error on exit: %s", err)
		}
	}()

	if config.Wait > 0 {
		time.Sleep(config.Wait)
	}

	return server
}
