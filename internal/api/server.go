package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fuzzbridge/echidna-mcp/internal/config"
)

// Server is the HTTP status API served alongside the MCP transport. It
// exposes health, the registered tool names, recent tool activity and a
// WebSocket event stream. It never executes tools itself.
type Server struct {
	config     config.HTTPConfig
	router     *gin.Engine
	httpServer *http.Server
	recorder   *RunRecorder
	gateway    *WebSocketGateway
	toolNames  []string
	name       string
	version    string
	logger     *logrus.Logger
	startedAt  time.Time
}

// NewServer assembles the status API. The gateway may be nil when the
// WebSocket stream is disabled.
func NewServer(cfg config.HTTPConfig, name, version string, toolNames []string, recorder *RunRecorder, gateway *WebSocketGateway, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	s := &Server{
		config:    cfg,
		router:    router,
		recorder:  recorder,
		gateway:   gateway,
		toolNames: toolNames,
		name:      name,
		version:   version,
		logger:    logger,
		startedAt: time.Now(),
	}

	router.GET("/health", s.handleHealth)
	router.GET("/tools", s.handleListTools)
	router.GET("/runs", s.handleListRuns)

	if gateway != nil {
		router.GET("/ws/events", func(c *gin.Context) {
			gateway.HandleWebSocket(c.Writer, c.Request)
		})
	}

	return s
}

// Start begins serving in a background goroutine
func (s *Server) Start() {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		s.logger.Infof("HTTP status API listening on %s", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("HTTP server error: %v", err)
		}
	}()
}

// Shutdown stops the HTTP listener gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Shutting down HTTP status API")
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"name":           s.name,
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tools": s.toolNames,
		"count": len(s.toolNames),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	var events []RecordedEvent
	if s.recorder != nil {
		events = s.recorder.Snapshot()
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
