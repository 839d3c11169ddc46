package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/log"
)

// ServerConfig configures the API server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., "127.0.0.1:8080").
	Addr string
	// Manager executes the actions.
	Manager *action.Manager
	// ReadHeaderTimeout defaults to 10s.
	ReadHeaderTimeout time.Duration
	// ReadTimeout defaults to 30s.
	ReadTimeout time.Duration
}

// Server is the HTTP API server.
type Server struct {
	handler  *Handler
	server   *http.Server
	listener net.Listener
	port     int
}

// NewServer creates a new API server.
// If Addr uses port 0 (e.g., "localhost:0" or ":0"), the OS will assign an available port.
// Use Port() after NewServer to get the actual port.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Manager == nil {
		return nil, fmt.Errorf("manager is required")
	}
	handler := NewHandler(cfg.Manager)

	readHeaderTimeout := cfg.ReadHeaderTimeout
	if readHeaderTimeout == 0 {
		readHeaderTimeout = 10 * time.Second
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}

	// Create listener first to get the actual port (important for :0)
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	port := 0
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	return &Server{
		handler: handler,
		server: &http.Server{
			Handler:           handler.Routes(),
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
		},
		listener: listener,
		port:     port,
	}, nil
}

// Start serves requests until Stop is called. It returns nil after a
// graceful shutdown.
func (s *Server) Start() error {
	log.Info(log.CatHTTP, "Starting API server", "addr", s.listener.Addr().String(), "port", s.port)
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info(log.CatHTTP, "Stopping API server")
	return s.server.Shutdown(ctx)
}

// Port returns the actual port the server is listening on.
func (s *Server) Port() int {
	return s.port
}
