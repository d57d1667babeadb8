package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SecurityConfig holds the request limits that keep a single API call from
// monopolizing the server.
type SecurityConfig struct {
	// MaxResolution caps the requested sample count along the real axis.
	MaxResolution int
	// MaxCeiling caps the requested cumulative iteration ceiling.
	MaxCeiling uint64
	// MaxBodyBytes caps the request body size.
	MaxBodyBytes int64
}

// DefaultSecurityConfig returns the production request limits.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxResolution: 1000,
		MaxCeiling:    100_000_000,
		MaxBodyBytes:  1 << 20, // 1 MiB
	}
}

// requestIDHeader carries the request correlation ID on both directions.
const requestIDHeader = "X-Request-ID"

// requestIDMiddleware assigns every request a correlation ID, honoring one
// supplied by the client, and echoes it on the response.
func requestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next(w, r)
	}
}

// statusRecorder captures the status code written by the handler so the
// logging middleware can report it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs one line per request: method, path, status and
// duration, tagged with the correlation ID.
func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.logger.Printf("%s %s %d %s request_id=%s",
			r.Method, r.URL.Path, rec.status, time.Since(start), r.Header.Get(requestIDHeader))
	}
}

// recoveryMiddleware converts handler panics into a 500 response instead of
// tearing down the connection.
func (s *Server) recoveryMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeErrorResponse(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next(w, r)
	}
}
