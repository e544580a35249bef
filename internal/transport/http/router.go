// Package http serves the daemon's JSON API, event stream and Prometheus
// endpoint.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sysbro/internal/config"
	"sysbro/internal/logger"
)

type RouterDeps struct {
	System  *SystemHandler
	Probe   *ProbeHandler
	Ws      http.Handler
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, log logger.Logger, deps *RouterDeps) http.Handler {
	mux := http.NewServeMux()

	global := NewChain()
	global.Use(RequestLog(log))
	global.Use(CORS(cfg.AllowedOrigins))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/system", deps.System.Info)
	mux.HandleFunc("GET /api/system/junk", deps.System.Junk)
	mux.HandleFunc("GET /api/metrics/latest", deps.System.Latest)
	mux.HandleFunc("GET /api/metrics/history", deps.System.History)

	mux.HandleFunc("GET /api/probe", deps.Probe.Status)
	mux.HandleFunc("POST /api/probe", deps.Probe.Start)
	mux.HandleFunc("DELETE /api/probe", deps.Probe.Cancel)
	mux.HandleFunc("GET /api/probe/history", deps.Probe.History)

	if deps.Ws != nil {
		mux.Handle("GET /ws", deps.Ws)
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	return global.Apply(mux)
}

type Server struct {
	addr    string
	handler http.Handler
	log     logger.Logger
	srv     *http.Server
}

func NewServer(addr string, handler http.Handler, log logger.Logger) *Server {
	return &Server{addr: addr, handler: handler, log: log}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting http server", "address", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
