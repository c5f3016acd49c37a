package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/canpub/pkg/log"
	"github.com/autopeer-io/canpub/pkg/options"
)

// ReadyFunc reports whether the process can serve traffic.
type ReadyFunc func() bool

type Server struct {
	server  *http.Server
	options *options.HttpOptions
}

// NewServer builds the health and metrics server.
func NewServer(opts *options.HttpOptions, gatherer prometheus.Gatherer, ready ReadyFunc) *Server {
	return &Server{
		server: &http.Server{
			Addr:    opts.Addr,
			Handler: NewRouter(gatherer, ready),
		},
		options: opts,
	}
}

// NewRouter registers /healthz, /readyz and /metrics.
func NewRouter(gatherer prometheus.Gatherer, ready ReadyFunc) *mux.Router {
	r := mux.NewRouter()

	// Liveness: the process is up.
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Readiness: the broker connection is up.
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("broker not connected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		log.Info("Stopping HTTP Server", "addr", s.server.Addr)
		return s.server.Shutdown(shutdownCtx)
	}
}
