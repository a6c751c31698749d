// Package mcp exposes session control to MCP clients.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Resource URIs.
const (
	HandlersURI = "warden://handlers"
	StatusURI   = "warden://status"
)

// Backend is the controller as seen by MCP tools. Both the in-process
// controller and the HTTP client satisfy it.
type Backend interface {
	Status(ctx context.Context) (domain.Status, error)
	Execute(ctx context.Context, cmd domain.Command) (string, error)
}

// Server wraps a Backend and exposes it as an MCP server.
type Server struct {
	backend   Backend
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server.
func NewServer(backend Backend, version string, opts ...Option) *Server {
	s := &Server{
		backend:   backend,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("warden-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sse.SSEHandler())
	mux.Handle("/message", sse.MessageHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// MCPServer exposes the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Report the session phase, connection mode, next scheduled trigger and registered handlers."),
	), s.handleStatus)

	s.mcpServer.AddTool(mcp.NewTool("stop_session",
		mcp.WithDescription("Shut the host down and end the session."),
	), s.command(domain.Command{Verb: domain.VerbStop, Raw: "STOP"}))

	s.mcpServer.AddTool(mcp.NewTool("restart_session",
		mcp.WithDescription("Stop the host and ask the supervisor to restart it."),
		mcp.WithBoolean("cold", mcp.Description("Request a cold restart instead of a warm one")),
	), s.handleRestart)

	s.mcpServer.AddTool(mcp.NewTool("enable_api",
		mcp.WithDescription("Enable socket API clients in the host's configuration."),
	), s.command(domain.Command{Verb: domain.VerbEnableAPI, Raw: "ENABLEAPI"}))
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.backend.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	data, _ := json.Marshal(status)
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmd := domain.Command{Verb: domain.VerbRestart, Raw: "RESTART"}
	if request.GetBool("cold", false) {
		cmd.Cold = true
		cmd.Raw = "RESTART COLD"
	}
	return s.command(cmd)(ctx, request)
}

func (s *Server) command(cmd domain.Command) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.logger.Info("MCP command", "command", cmd.Raw)
		reply, err := s.backend.Execute(ctx, cmd)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", cmd.Verb, err)), nil
		}
		return mcp.NewToolResultText(reply), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(HandlersURI, "Registered window handlers",
		mcp.WithResourceDescription("Dialog handlers in dispatch order"),
		mcp.WithMIMEType("application/json"),
	), s.handleHandlers)

	s.mcpServer.AddResource(mcp.NewResource(StatusURI, "Session status",
		mcp.WithMIMEType("application/json"),
	), s.handleStatusResource)
}

func (s *Server) handleHandlers(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status, err := s.backend.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read handlers: %w", err)
	}
	data, _ := json.Marshal(status.Handlers)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: HandlersURI, MIMEType: "application/json", Text: string(data)},
	}, nil
}

func (s *Server) handleStatusResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status, err := s.backend.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	data, _ := json.Marshal(status)
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: StatusURI, MIMEType: "application/json", Text: string(data)},
	}, nil
}
