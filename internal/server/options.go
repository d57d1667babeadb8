package server

import (
	"log"
	"time"

	"github.com/agbru/mandelgrid/internal/backend"
	"github.com/agbru/mandelgrid/internal/logging"
)

// Timeouts groups the server's timeout configuration.
type Timeouts struct {
	// RequestTimeout bounds one grid evaluation request end to end.
	RequestTimeout time.Duration
	// ShutdownTimeout bounds the graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out response writes.
	// Long grid evaluations stream their response at the end, so this stays
	// generous.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum time to wait for the next request on a
	// keep-alive connection.
	IdleTimeout time.Duration
}

// DefaultServerTimeouts returns the production timeout configuration.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  5 * time.Minute,
		ShutdownTimeout: 30 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}

// Option configures a Server during construction.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdLogger wraps a standard library logger for callers that still hold
// a *log.Logger.
func WithStdLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewStdLoggerAdapter(logger)
		}
	}
}

// WithTimeouts overrides the default timeout configuration.
func WithTimeouts(t Timeouts) Option {
	return func(s *Server) {
		s.timeouts = t
	}
}

// WithFactory sets the backend factory evaluations are served from.
func WithFactory(factory *backend.DefaultFactory) Option {
	return func(s *Server) {
		if factory != nil {
			s.factory = factory
		}
	}
}

// WithSecurityConfig overrides the default request limits.
func WithSecurityConfig(sc SecurityConfig) Option {
	return func(s *Server) {
		s.securityConfig = sc
	}
}
