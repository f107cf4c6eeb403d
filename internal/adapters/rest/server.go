package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bidding-platform/internal/adapters/ws"
	"bidding-platform/internal/config"
	"bidding-platform/internal/ports/inbound"
	"bidding-platform/internal/ports/outbound"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Server serves the REST API and the WebSocket endpoint on one listener
type Server struct {
	wsHandler  *ws.WsHandler
	httpServer *http.Server
	config     *config.Config
	logger     zerolog.Logger
}

type ServerParams struct {
	Config         *config.Config
	AuctionService inbound.AuctionService
	Subscriptions  inbound.SubscriptionService
	Identity       outbound.IdentityProvider
	Logger         zerolog.Logger
}

func NewServer(params ServerParams) *Server {
	cfg := params.Config

	wsHandler := ws.NewHandler(ws.WsHandlerParams{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		AuctionService:  params.AuctionService,
		Subscriptions:   params.Subscriptions,
		Identity:        params.Identity,
		EventBufferSize: cfg.Engine.EventBufferSize,
		Logger:          params.Logger,
	})

	router := SetupRouter(RouterParams{
		AuctionService: params.AuctionService,
		Identity:       params.Identity,
		WsHandler:      wsHandler,
		RateLimiter: NewRateLimiter(RateLimiterParams{
			RPS:    cfg.RateLimit.RPS,
			Burst:  cfg.RateLimit.Burst,
			Logger: params.Logger,
		}),
		Logger: params.Logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Minute,
	}

	return &Server{
		wsHandler:  wsHandler,
		httpServer: httpServer,
		config:     cfg,
		logger:     params.Logger.With().Str("component", "http_server").Logger(),
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Str("gin_mode", gin.Mode()).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop disconnects WebSocket clients and gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server...")

	// Hijacked connections are not tracked by Shutdown.
	s.wsHandler.CloseAll()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}
