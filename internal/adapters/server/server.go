// Package server exposes the dispatcher over HTTP. It is the outer edge
// of the serving path: everything module-aware happens behind
// ports.Dispatcher, this layer only translates errors into responses and
// keeps the serving loop alive.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.molt.dev/molt/internal/core/domain"
	"go.molt.dev/molt/internal/core/ports"
	"go.molt.dev/molt/internal/ui/style"
	"go.trai.ch/zerr"
)

const (
	// readHeaderTimeout bounds how long a client may dribble its headers.
	readHeaderTimeout = 10 * time.Second

	// shutdownTimeout bounds the graceful drain of in-flight requests.
	shutdownTimeout = 5 * time.Second
)

// Server serves requests through a dispatcher.
type Server struct {
	addr     string
	dispatch ports.Dispatcher
	logger   ports.Logger
	http     *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server for addr. Nothing is bound until ListenAndServe.
func New(addr string, dispatch ports.Dispatcher, logger ports.Logger) *Server {
	s := &Server{
		addr:     addr,
		dispatch: dispatch,
		logger:   logger,
	}
	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Addr returns the bound address, or "" before ListenAndServe binds one.
// With a ":0" address this is how the actual port is discovered.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ListenAndServe binds the address and serves until ctx is cancelled,
// then drains in-flight requests gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to bind address"), "addr", s.addr)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info(fmt.Sprintf("%s Serving on http://%s", style.Arrow, listener.Addr()))

	serveErr := make(chan error, 1)
	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, "failed to shut down server")
	}
	return <-serveErr
}

// errorResponse is the structured body written for failed requests.
type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// ServeHTTP implements http.Handler. Delegation failures become a
// structured JSON response instead of crashing the serving loop; an
// unresolvable entry maps to 503, because it usually means a reload left
// the entry module broken and a later cycle will restore it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	track := &trackingWriter{ResponseWriter: w}
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("handler panicked: %v", rec)
			s.logger.Error(zerr.With(err, "path", r.URL.Path))
			s.writeError(track, err, http.StatusInternalServerError)
		}
	}()

	err := s.dispatch.Dispatch(track, r)
	if err == nil {
		return
	}
	s.logger.Error(zerr.With(err, "path", r.URL.Path))

	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrEntryNotResolvable) || errors.Is(err, domain.ErrModuleNotLoaded) {
		status = http.StatusServiceUnavailable
	}
	s.writeError(track, err, status)
}

// writeError renders the structured error body, unless the handler
// already started a response; appending JSON to a half-written body
// would only corrupt it, so that case stays log-only.
func (s *Server) writeError(w *trackingWriter, err error, status int) {
	if w.wrote {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Status: status})
}

// trackingWriter records whether the handler started writing.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *trackingWriter) WriteHeader(status int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}
