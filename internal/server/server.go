// Package server exposes the codec, comparator and document store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papapumpkin/relmenu/internal/codec"
	"github.com/papapumpkin/relmenu/internal/share"
	"github.com/papapumpkin/relmenu/internal/store"
	"github.com/papapumpkin/relmenu/internal/telemetry"
)

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 5 * time.Second

// Options carries the server's collaborators. Store is required.
type Options struct {
	Store   store.Store
	Codec   *codec.Codec
	Logger  *slog.Logger
	Journal *telemetry.Emitter
	// BaseURL prefixes generated share links.
	BaseURL string
}

// Server is the HTTP API.
type Server struct {
	engine   *gin.Engine
	store    store.Store
	codec    *codec.Codec
	resolver *share.Resolver
	baseURL  string
	logger   *slog.Logger
	metrics  *metrics
}

// New builds a server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	s := &Server{
		engine:  gin.New(),
		store:   opts.Store,
		codec:   opts.Codec,
		baseURL: opts.BaseURL,
		logger:  opts.Logger,
		metrics: m,
		resolver: &share.Resolver{
			Store:   opts.Store,
			Codec:   opts.Codec,
			Logger:  opts.Logger,
			Journal: opts.Journal,
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), requestID(), s.accessLog(), s.metrics.middleware())

	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	v1 := s.engine.Group("/v1")
	v1.POST("/encode", s.handleEncode)
	v1.POST("/decode", s.handleDecode)
	v1.GET("/menu", s.handleMenu)
	v1.GET("/compare", s.handleCompare)
	v1.GET("/documents", s.handleGetDocuments)
	v1.POST("/documents", s.handleSaveDocuments)
	v1.DELETE("/documents", s.handleClearDocuments)
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// metrics holds the server's Prometheus collectors on a private registry.
type metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	decodeFailures prometheus.Counter
}

func newMetrics() (*metrics, error) {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relmenu",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relmenu",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relmenu",
			Name:      "decode_failures_total",
			Help:      "Tokens or slugs that failed to decode.",
		}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration, m.decodeFailures} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("server: register metrics: %w", err)
		}
	}
	return m, nil
}
