package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kyleking/cas-sdss-mcp/internal/logging"
	"github.com/kyleking/cas-sdss-mcp/internal/query"
	"github.com/kyleking/cas-sdss-mcp/internal/telemetry"
)

// Options configures the tool server
type Options struct {
	Name    string
	Version string
	Metrics *telemetry.Metrics
	Logger  *logging.Logger
}

// Server exposes the catalog lookups as protocol tools
type Server struct {
	engine  query.Engine
	metrics *telemetry.Metrics
	logger  *logging.Logger
	mcp     *mcp.Server
}

// New registers the catalog tools on a fresh protocol server
func New(engine query.Engine, opts Options) (*Server, error) {
	if opts.Name == "" {
		opts.Name = "cas-sdss-mcp"
	}

	if opts.Version == "" {
		opts.Version = "0.1.0"
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	s := &Server{
		engine:  engine,
		metrics: opts.Metrics,
		logger:  logger.Named("server"),
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    opts.Name,
			Version: opts.Version,
		}, &mcp.ServerOptions{HasTools: true}),
	}

	defs, err := s.toolDefinitions()
	if err != nil {
		return nil, err
	}

	for _, def := range defs {
		s.mcp.AddTool(def.tool, s.handler(def.tool.Name, def.run))
	}

	return s, nil
}

// MCPServer returns the underlying protocol server
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves over stdin/stdout until ctx is canceled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Serving catalog tools over stdio")

	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}

	return nil
}

// Handler returns the streamable HTTP handler for the tool server
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

// RunHTTP serves streamable HTTP on addr at path until ctx is canceled
func (s *Server) RunHTTP(ctx context.Context, addr, path string) error {
	if path == "" {
		path = "/mcp"
	}

	mux := http.NewServeMux()
	mux.Handle(path, s.Handler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.WithFields(map[string]any{"addr": addr, "path": path}).Info("Serving catalog tools over HTTP")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}

		s.logger.Info("HTTP server stopped")

		return nil
	}
}
