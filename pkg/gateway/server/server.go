// Package server assembles the gateway's HTTP surface.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/voxgate-go/voxgate/pkg/core/turn"
	"github.com/voxgate-go/voxgate/pkg/gateway/config"
	"github.com/voxgate-go/voxgate/pkg/gateway/handlers"
	"github.com/voxgate-go/voxgate/pkg/gateway/metrics"
	"github.com/voxgate-go/voxgate/pkg/gateway/mw"
)

// Dependencies carries everything the server needs to route requests.
type Dependencies struct {
	Logger      *slog.Logger
	Config      config.Config
	Registry    *turn.Registry
	Recognizer  turn.Recognizer
	Generator   turn.Generator
	Synthesizer turn.Synthesizer
	PromReg     *prometheus.Registry
}

// Server is the gateway HTTP server.
type Server struct {
	logger   *slog.Logger
	cfg      config.Config
	registry *turn.Registry
	httpSrv  *http.Server
}

// New builds the server and its routes.
func New(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	live := &handlers.LiveHandler{
		Logger:      logger,
		Config:      deps.Config,
		Registry:    deps.Registry,
		Recognizer:  deps.Recognizer,
		Generator:   deps.Generator,
		Synthesizer: deps.Synthesizer,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", handlers.HealthHandler{Registry: deps.Registry, StartedAt: time.Now()})
	mux.Handle("GET /readyz", handlers.ReadyHandler{Config: deps.Config})
	mux.Handle("GET /v1/live", live)
	if deps.PromReg != nil {
		mux.Handle("GET /metrics", metrics.Handler(deps.PromReg))
	}

	var handler http.Handler = mux
	handler = mw.AccessLog(logger, handler)
	handler = mw.Recover(logger, handler)
	handler = mw.RequestID(handler)

	return &Server{
		logger:   logger,
		cfg:      deps.Config,
		registry: deps.Registry,
		httpSrv: &http.Server{
			Addr:              deps.Config.Addr,
			Handler:           handler,
			ReadHeaderTimeout: deps.Config.ReadHeaderTimeout,
		},
	}
}

// Handler exposes the assembled handler chain. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe runs the server until Shutdown is called or it fails.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown closes all live sessions, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.registry != nil {
		s.registry.CloseAll()
	}
	return s.httpSrv.Shutdown(ctx)
}
