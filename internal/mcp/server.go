package mcp

import (
	"context"
	"fmt"

	mcpTypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

type TransportType string

const (
	TransportStdio TransportType = "stdio"
	TransportSSE   TransportType = "sse"
)

// ServerConfig describes how the MCP server is exposed
type ServerConfig struct {
	Name            string
	Version         string
	Transport       TransportType
	Logger          *logrus.Logger
	EnableTools     bool
	EnableResources bool
	EnablePrompts   bool
}

// Server wraps the underlying MCP server with transport lifecycle
// management. Stdio serves on the process's own stdin/stdout and blocks;
// SSE listens on a TCP port and can be shut down independently.
type Server struct {
	config    ServerConfig
	mcpServer *server.MCPServer
	sseServer *server.SSEServer
	logger    *logrus.Logger
}

// NewServer creates an MCP server with the requested capabilities
func NewServer(config ServerConfig) (*Server, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if config.Transport != TransportStdio && config.Transport != TransportSSE {
		return nil, fmt.Errorf("unsupported transport: %s", config.Transport)
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
	}

	opts := []server.ServerOption{
		server.WithRecovery(),
	}
	if config.EnableTools {
		opts = append(opts, server.WithToolCapabilities(true))
	}
	if config.EnableResources {
		opts = append(opts, server.WithResourceCapabilities(true, true))
	}
	if config.EnablePrompts {
		opts = append(opts, server.WithPromptCapabilities(true))
	}

	mcpServer := server.NewMCPServer(config.Name, config.Version, opts...)

	return &Server{
		config:    config,
		mcpServer: mcpServer,
		logger:    logger,
	}, nil
}

// AddTool registers a tool with its handler
func (s *Server) AddTool(tool mcpTypes.Tool, handler server.ToolHandlerFunc) {
	s.mcpServer.AddTool(tool, handler)
	s.logger.Debugf("Registered MCP tool: %s", tool.Name)
}

// AddResource registers a resource with its handler
func (s *Server) AddResource(resource mcpTypes.Resource, handler server.ResourceHandlerFunc) {
	s.mcpServer.AddResource(resource, handler)
	s.logger.Debugf("Registered MCP resource: %s", resource.URI)
}

// AddPrompt registers a prompt with its handler
func (s *Server) AddPrompt(prompt mcpTypes.Prompt, handler server.PromptHandlerFunc) {
	s.mcpServer.AddPrompt(prompt, handler)
	s.logger.Debugf("Registered MCP prompt: %s", prompt.Name)
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
// Nothing else may write to stdout while this runs; all logging goes to
// stderr or a file.
func (s *Server) ServeStdio() error {
	s.logger.Infof("Starting MCP server %s on stdio", s.config.Name)
	return server.ServeStdio(s.mcpServer)
}

// StartSSE serves MCP over SSE on the given address, e.g. ":8090".
// It blocks until Shutdown is called or the listener fails.
func (s *Server) StartSSE(addr string) error {
	s.sseServer = server.NewSSEServer(s.mcpServer)
	s.logger.Infof("Starting MCP SSE server %s on %s", s.config.Name, addr)
	return s.sseServer.Start(addr)
}

// Shutdown stops the SSE listener. Stdio transport needs no shutdown;
// it ends when the client closes the stream.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sseServer == nil {
		return nil
	}

	s.logger.Info("Shutting down MCP SSE server")
	return s.sseServer.Shutdown(ctx)
}
