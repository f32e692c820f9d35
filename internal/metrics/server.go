package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server exposes /metrics and /healthz on a dedicated port, separate
// from the main verify API so scraping and liveness checks don't
// compete with request traffic for the same listener.
type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
}

// NewServer registers collectors against a fresh registry and builds
// an HTTP server bound to port.
func NewServer(port int, logger *logrus.Logger) *Server {
	registry := prometheus.NewRegistry()
	for _, c := range Collectors() {
		registry.MustRegister(c)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		logger: logger,
	}
}

// StartAsync begins serving in a background goroutine. Errors other
// than a clean shutdown are logged; the caller is expected to observe
// process health through /healthz rather than this goroutine's return.
func (s *Server) StartAsync() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("metrics server stopped unexpectedly")
		}
	}()
}

// Stop gracefully shuts the server down, waiting for in-flight scrapes
// to finish until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
