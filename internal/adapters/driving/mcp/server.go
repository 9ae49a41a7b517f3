package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

const (
	serverName             = "sercha-ingest"
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHTTPAddr serves streamable HTTP on addr instead of stdio.
func WithHTTPAddr(addr string) ServerOption {
	return func(s *Server) {
		s.httpAddr = addr
	}
}

// WithShutdownTimeout bounds how long in-flight HTTP requests may run
// after the context is cancelled.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// Server exposes the search, ingest and document ports as MCP tools and
// resources.
type Server struct {
	ports           *Ports
	server          *mcp.Server
	httpAddr        string
	shutdownTimeout time.Duration
}

// NewServer validates ports and registers every tool and resource.
func NewServer(ports *Ports, opts ...ServerOption) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:           ports,
		server:          mcp.NewServer(&mcp.Implementation{Name: serverName, Version: Version}, nil),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	s.registerResources()
	return s, nil
}

// Transport names the transport Serve will use.
func (s *Server) Transport() string {
	if s.httpAddr != "" {
		return "http"
	}
	return "stdio"
}

// Serve runs until ctx is cancelled, over HTTP when an address was
// configured and over stdio otherwise.
func (s *Server) Serve(ctx context.Context) error {
	if s.httpAddr == "" {
		return s.server.Run(ctx, &mcp.StdioTransport{})
	}
	ln, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("mcp: listen on %s: %w", s.httpAddr, err)
	}
	return s.serveListener(ctx, ln)
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// serveListener serves HTTP on ln until ctx is cancelled, then drains
// in-flight requests for at most the shutdown timeout.
func (s *Server) serveListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}
