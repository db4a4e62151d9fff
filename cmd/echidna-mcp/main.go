package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fuzzbridge/echidna-mcp/internal/api"
	"github.com/fuzzbridge/echidna-mcp/internal/bus"
	"github.com/fuzzbridge/echidna-mcp/internal/config"
	"github.com/fuzzbridge/echidna-mcp/internal/echidna"
	"github.com/fuzzbridge/echidna-mcp/internal/executor"
	applogger "github.com/fuzzbridge/echidna-mcp/internal/logger"
	"github.com/fuzzbridge/echidna-mcp/internal/mcp"
	"github.com/fuzzbridge/echidna-mcp/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	transport := flag.String("transport", "", "MCP transport (stdio or sse), overrides config")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Bootstrap logger for config loading; reconfigured below
	logger := utils.ConfigureLogger(utils.DefaultLogConfig())

	appConfig, err := config.LoadConfig(*configPath, logger)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if *transport != "" {
		appConfig.Server.Transport = *transport
	}
	if *logLevel != "" {
		appConfig.Logging.Level = *logLevel
	}

	logger = utils.ConfigureLogger(appConfig.Logging)
	logger.Infof("Starting %s %s", appConfig.Server.Name, appConfig.Server.Version)

	eventBus := bus.NewEventBus(logger)
	defer eventBus.Stop()

	logger.AddHook(applogger.NewRunLogHook(eventBus, appConfig.Server.Name))

	runner := executor.NewRunner(logger, eventBus, time.Duration(appConfig.Echidna.TimeoutSec)*time.Second)
	service := echidna.NewService(appConfig.Echidna, runner, logger)

	if err := runner.CheckInstalled(appConfig.Echidna.Binary); err != nil {
		logger.Warnf("Echidna binary %q not found on PATH; run_echidna_test will fail until it is installed", appConfig.Echidna.Binary)
	}

	mcpServer, err := mcp.NewServer(mcp.ServerConfig{
		Name:            appConfig.Server.Name,
		Version:         appConfig.Server.Version,
		Transport:       mcp.TransportType(appConfig.Server.Transport),
		Logger:          logger,
		EnableTools:     true,
		EnableResources: true,
		EnablePrompts:   true,
	})
	if err != nil {
		logger.Fatalf("Failed to create MCP server: %v", err)
	}

	tools := mcp.NewEchidnaTools(service, eventBus, logger)
	tools.RegisterAll(mcpServer)

	features := mcp.NewFeaturesResource(logger)
	mcpServer.AddResource(features.GetResource(), features.Handler)

	help := mcp.NewHelpPrompt(logger)
	mcpServer.AddPrompt(help.GetPrompt(), help.Handler)

	var apiServer *api.Server
	if appConfig.HTTP.Enabled {
		recorder := api.NewRunRecorder(eventBus, 100)

		var gateway *api.WebSocketGateway
		if appConfig.WebSocket.Enabled {
			gateway = api.NewWebSocketGateway(eventBus, logger)
		}

		apiServer = api.NewServer(appConfig.HTTP, appConfig.Server.Name, appConfig.Server.Version,
			tools.Names(), recorder, gateway, logger)
		apiServer.Start()
	}

	serveErr := make(chan error, 1)
	go func() {
		switch mcp.TransportType(appConfig.Server.Transport) {
		case mcp.TransportSSE:
			serveErr <- mcpServer.StartSSE(fmt.Sprintf(":%d", appConfig.Server.SSEPort))
		default:
			serveErr <- mcpServer.ServeStdio()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Infof("Received signal %s, shutting down", sig)
	case err := <-serveErr:
		if err != nil {
			logger.Errorf("MCP server stopped: %v", err)
		} else {
			logger.Info("MCP client disconnected, shutting down")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if apiServer != nil {
		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Errorf("HTTP server shutdown error: %v", err)
		}
	}

	if err := mcpServer.Shutdown(ctx); err != nil {
		logger.Errorf("MCP server shutdown error: %v", err)
	}

	logger.Info("Server stopped")
}
