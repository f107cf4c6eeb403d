package rest

import (
	"net/http"
	"time"

	"bidding-platform/internal/adapters/ws"
	"bidding-platform/internal/ports/inbound"
	"bidding-platform/internal/ports/outbound"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RouterParams struct {
	AuctionService inbound.AuctionService
	Identity       outbound.IdentityProvider
	WsHandler      *ws.WsHandler
	RateLimiter    *RateLimiter
	Clock          func() time.Time
	Logger         zerolog.Logger
}

// SetupRouter configures and returns the gin engine
func SetupRouter(params RouterParams) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(params.Logger.With().Str("component", "http").Logger()))
	r.Use(CORSMiddleware())

	auctions := NewAuctionHandler(AuctionHandlerParams{
		Service: params.AuctionService,
		Clock:   params.Clock,
		Logger:  params.Logger,
	})
	auth := NewAuthHandler(params.Identity, params.Logger)

	r.GET("/health", func(c *gin.Context) {
		clients := 0
		if params.WsHandler != nil {
			clients = params.WsHandler.GetConnectedClients()
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "bidding-platform", "connected_clients": clients})
	})
	if params.WsHandler != nil {
		r.GET("/ws", gin.WrapF(params.WsHandler.HandleWebSocket))
	}

	api := r.Group("/api")
	if params.RateLimiter != nil {
		api.Use(params.RateLimiter.Limit())
	}
	{
		api.POST("/auth/login", auth.Login)
		api.POST("/auth/register", auth.Register)

		api.GET("/auctions", auctions.ListAuctions)
		api.GET("/auctions/:id", auctions.GetAuction)
		api.GET("/auctions/:id/bids", auctions.GetBids)
		api.GET("/stats", auctions.GetStats)

		session := api.Group("/")
		session.Use(SessionMiddleware(params.Identity))
		{
			session.POST("/auctions/:id/bids", auctions.PlaceBid)
		}

		admin := api.Group("/")
		admin.Use(SessionMiddleware(params.Identity), AdminMiddleware())
		{
			admin.POST("/auctions", auctions.CreateAuction)
			admin.PATCH("/auctions/:id", auctions.UpdateAuction)
			admin.DELETE("/auctions/:id", auctions.DeleteAuction)
		}
	}

	return r
}
