package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Server is the HTTP and WebSocket gateway
type Server struct {
	addr        string
	engine      *gin.Engine
	server      *http.Server
	listener    net.Listener
	upgrader    websocket.Upgrader
	clients     *ClientRegistry
	broadcaster *EventBroadcaster
	sessions    SessionService
	alerts      AlertBoard
	summarizer  SummaryService
	scheduler   TaskLister
	channels    []string
	limiter     *RateLimiter
	metrics     http.Handler
	logger      zerolog.Logger
	startedAt   time.Time

	shutdownMu     sync.RWMutex
	isShuttingDown bool
	pumps          sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	Host       string
	Port       int
	Sessions   SessionService
	Alerts     AlertBoard
	Summarizer SummaryService
	Scheduler  TaskLister
	Metrics    http.Handler
	Logger     zerolog.Logger

	// AlertChannels names the alert channels in delivery order
	AlertChannels []string

	// SummaryRequestsPerMinute caps summary generation per client IP
	SummaryRequestsPerMinute int
}

// NewServer creates a new gateway server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}
	if cfg.Alerts == nil {
		return nil, fmt.Errorf("alert board is required")
	}
	if cfg.SummaryRequestsPerMinute <= 0 {
		cfg.SummaryRequestsPerMinute = 10
	}

	clients := NewClientRegistry()

	s := &Server{
		addr:        net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		clients:     clients,
		broadcaster: NewEventBroadcaster(clients, cfg.Logger),
		sessions:    cfg.Sessions,
		alerts:      cfg.Alerts,
		summarizer:  cfg.Summarizer,
		scheduler:   cfg.Scheduler,
		channels:    append([]string{}, cfg.AlertChannels...),
		limiter:     NewRateLimiter(cfg.SummaryRequestsPerMinute, 2),
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		startedAt:   time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local UI on any port
			},
		},
	}

	s.engine = s.routes()

	return s, nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestContext(), accessLog(s.logger))

	router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics))
	}
	router.GET("/ws", s.handleWebSocket)

	api := router.Group("/api")
	{
		api.GET("/status", s.handleStatus)

		api.GET("/sessions", s.handleListSessions)
		api.POST("/sessions", s.handleCreateSession)
		api.DELETE("/sessions/:id", s.handleDeleteSession)

		api.GET("/alerts", s.handleListAlerts)
		api.POST("/alerts/:id/ack", s.handleAckAlert)

		api.POST("/summaries", s.limiter.Middleware(), s.handleCreateSummary)
		api.POST("/summaries/schedule", s.handleScheduleSummary)
	}

	return router
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listener and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("Starting gateway server")

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop announces shutdown, closes every client and drains the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	if s.isShuttingDown {
		s.shutdownMu.Unlock()
		return nil
	}
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down gateway server")

	s.broadcaster.Broadcast(EventShutdown, map[string]interface{}{
		"message": "Server is shutting down",
	})

	for _, client := range s.clients.GetAll() {
		_ = client.Close()
	}

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.pumps.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.logger.Info().Msg("Gateway server stopped")
	return nil
}

// Broadcast pushes an event to every connected client
func (s *Server) Broadcast(event string, data interface{}) {
	s.broadcaster.Broadcast(event, data)
}

// GetConnectedClients returns information about all connected clients
func (s *Server) GetConnectedClients() []ClientInfo {
	return s.clients.GetConnectedClients()
}

func (s *Server) shuttingDown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.isShuttingDown
}

// handleWebSocket upgrades the connection and registers the client. The
// stream is server-push only; inbound frames just refresh activity.
func (s *Server) handleWebSocket(c *gin.Context) {
	if s.shuttingDown() {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "server is shutting down"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	clientID, _ := gonanoid.New()
	now := time.Now()
	client := &Client{
		ID:           clientID,
		Conn:         conn,
		ConnectedAt:  now,
		LastActivity: now,
		IPAddress:    c.ClientIP(),
	}

	s.clients.Add(client)

	s.logger.Info().
		Str("clientId", clientID).
		Str("ip", client.IPAddress).
		Msg("Client connected")

	s.pumps.Add(2)
	stop := make(chan struct{})
	go s.readPump(client, stop)
	go s.pingPump(client, stop)
}

func (s *Server) readPump(client *Client, stop chan struct{}) {
	defer s.pumps.Done()
	defer func() {
		close(stop)
		_ = client.Close()
		s.clients.Remove(client.ID)
		s.logger.Info().Str("clientId", client.ID).Msg("Client disconnected")
	}()

	client.Conn.SetReadLimit(4096)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		s.clients.UpdateActivity(client.ID)
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Str("clientId", client.ID).Msg("WebSocket read error")
			}
			return
		}
		s.clients.UpdateActivity(client.ID)
	}
}

func (s *Server) pingPump(client *Client, stop chan struct{}) {
	defer s.pumps.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := client.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
