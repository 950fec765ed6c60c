// Package telemetry serves Prometheus metrics and, optionally, pprof over HTTP.
package telemetry

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// PprofDisabledError is returned when pprof is requested but disabled at build time.
type PprofDisabledError struct{}

func (PprofDisabledError) Error() string {
	return "pprof is disabled at build time"
}

var ErrPprofDisabled = PprofDisabledError{}

// Config is the configuration for the telemetry service.
type Config struct {
	// Enabled controls whether the telemetry service is enabled.
	Enabled bool `json:"enabled" envconfig:"ENABLED"`

	// ListenNetwork is the network to listen on.
	ListenNetwork string `json:"listenNetwork,omitzero" envconfig:"LISTEN_NETWORK"`

	// ListenAddress is the address to listen on.
	ListenAddress string `json:"listenAddress" envconfig:"LISTEN_ADDRESS"`

	// Pprof additionally serves /debug/pprof/.
	Pprof bool `json:"pprof" envconfig:"PPROF"`
}

// NewService creates a new telemetry service serving metrics from gatherer.
func (c *Config) NewService(logger *zap.Logger, gatherer prometheus.Gatherer) (*Service, error) {
	network := c.ListenNetwork
	if network == "" {
		network = "tcp"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(logger),
	}))
	if c.Pprof {
		if err := registerPprof(mux); err != nil {
			return nil, err
		}
	}

	return &Service{
		logger:  logger,
		network: network,
		server: http.Server{
			Addr:     c.ListenAddress,
			Handler:  logRequests(logger, mux),
			ErrorLog: zap.NewStdLog(logger),
		},
	}, nil
}

// logRequests is a middleware that logs requests at debug level.
func logRequests(logger *zap.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
		if ce := logger.Check(zap.DebugLevel, "Handled telemetry request"); ce != nil {
			ce.Write(
				zap.String("proto", r.Proto),
				zap.String("method", r.Method),
				zap.String("requestURI", r.RequestURI),
				zap.String("remoteAddr", r.RemoteAddr),
			)
		}
	})
}

// Service implements [service.Service].
type Service struct {
	logger  *zap.Logger
	network string
	server  http.Server

	mu   sync.Mutex
	addr net.Addr
}

// String implements [service.Service.String].
func (*Service) String() string {
	return "telemetry"
}

// Addr returns the listener address after the service has started.
func (s *Service) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start implements [service.Service.Start].
func (s *Service) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, s.network, s.server.Addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Failed to serve telemetry", zap.Error(err))
		}
	}()

	s.logger.Info("Started telemetry", zap.Stringer("listenAddress", ln.Addr()))
	return nil
}

// Stop implements [service.Service.Stop].
func (s *Service) Stop() error {
	if err := s.server.Close(); err != nil {
		return err
	}
	s.logger.Info("Stopped telemetry")
	return nil
}
