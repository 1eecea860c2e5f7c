// Package mockserver runs a local HTTP server that answers GET /users with a
// canned response, for tests that must not reach the real user service.
package mockserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
)

// DefaultContentType is the Content-Type of the default canned response.
const DefaultContentType = "application/json; charset=utf-8"

const shutdownTimeout = 5 * time.Second

// ErrServerClosed is returned by SetResponse after Close.
var ErrServerClosed = errors.New("mock server closed")

// Server is a running mock user service bound to 127.0.0.1.
type Server struct {
	port   int
	srv    *http.Server
	logger *slog.Logger

	mu       sync.Mutex
	handler  http.Handler
	closed   bool
	incoming <-chan httphelpers.HTTPRequestInfo
	requests []httphelpers.HTTPRequestInfo

	closing sync.Once
	done    chan struct{}
}

type config struct {
	port   int
	status int
	header http.Header
	body   []byte
	logger *slog.Logger
}

// Option configures Start.
type Option func(*config)

// WithPort binds the given port instead of an ephemeral one.
func WithPort(port int) Option {
	return func(c *config) { c.port = port }
}

// WithResponse sets the initial canned response. A nil header gets the
// default JSON content type.
func WithResponse(status int, header http.Header, body []byte) Option {
	return func(c *config) {
		c.status = status
		c.header = header
		c.body = body
	}
}

// WithStatus keeps the default body and header but answers with status.
func WithStatus(status int) Option {
	return func(c *config) { c.status = status }
}

// WithLogger sets the logger used for server lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Start binds a listener and serves in the background until Close. The
// default response is 200 with body [] and DefaultContentType.
func Start(opts ...Option) (*Server, error) {
	cfg := &config{
		status: http.StatusOK,
		body:   []byte("[]"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.port)))
	if err != nil {
		return nil, fmt.Errorf("mock server listen on port %d: %w", cfg.port, err)
	}

	s := &Server{
		port:    listener.Addr().(*net.TCPAddr).Port,
		logger:  cfg.logger,
		handler: cannedHandler(cfg.status, cfg.header, cfg.body),
		done:    make(chan struct{}),
	}

	// the recorder queues each request before the canned handler answers it
	recording, incoming := httphelpers.RecordingHandler(http.HandlerFunc(s.serveCurrent))
	s.incoming = incoming

	router := mux.NewRouter()
	router.Handle("/users", recording).Methods(http.MethodGet)

	s.srv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		defer close(s.done)
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Mock server stopped unexpectedly", "port", s.port, "error", err)
		}
	}()

	s.logger.Debug("Mock server started", "url", s.URL())
	return s, nil
}

func cannedHandler(status int, header http.Header, body []byte) http.Handler {
	if header == nil {
		header = make(http.Header)
		header.Set("Content-Type", DefaultContentType)
	}
	return httphelpers.HandlerWithResponse(status, header, body)
}

func (s *Server) serveCurrent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	// the recorder has already queued r; move it out so the queue never fills
	s.drainLocked()
	h := s.handler
	s.mu.Unlock()
	h.ServeHTTP(w, r)
}

// drainLocked moves queued requests into s.requests. Callers hold s.mu.
func (s *Server) drainLocked() {
	for {
		select {
		case info := <-s.incoming:
			s.requests = append(s.requests, info)
		default:
			return
		}
	}
}

// SetResponse replaces the canned response for subsequent requests.
func (s *Server) SetResponse(status int, header http.Header, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	s.handler = cannedHandler(status, header, body)
	return nil
}

// Port returns the bound TCP port.
func (s *Server) Port() int {
	return s.port
}

// URL returns the base URL of the server, with a trailing slash.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d/", s.port)
}

// UsersURL returns URL joined with "users".
func (s *Server) UsersURL() string {
	return s.URL() + "users"
}

// Requests returns the /users requests received so far, oldest first.
func (s *Server) Requests() []httphelpers.HTTPRequestInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainLocked()
	out := make([]httphelpers.HTTPRequestInfo, len(s.requests))
	copy(out, s.requests)
	return out
}

// Close shuts the server down and waits for the serve loop to exit. It is
// safe to call more than once.
func (s *Server) Close() error {
	var err error
	s.closing.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = s.srv.Shutdown(ctx)
		<-s.done
		s.logger.Debug("Mock server stopped", "port", s.port)
	})
	return err
}

// FreePort asks the kernel for a free TCP port on 127.0.0.1. The port is
// released before returning, so another process may take it first.
func FreePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("find free port: %w", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
