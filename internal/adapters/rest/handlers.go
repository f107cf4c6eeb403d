package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/bid"
	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/inbound"
	"bidding-platform/internal/ports/outbound"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuctionHandler serves the auction REST endpoints
type AuctionHandler struct {
	service inbound.AuctionService
	clock   func() time.Time
	logger  zerolog.Logger
}

type AuctionHandlerParams struct {
	Service inbound.AuctionService
	// Clock defaults to time.Now
	Clock  func() time.Time
	Logger zerolog.Logger
}

func NewAuctionHandler(params AuctionHandlerParams) *AuctionHandler {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AuctionHandler{
		service: params.Service,
		clock:   clock,
		logger:  params.Logger.With().Str("component", "auction_handler").Logger(),
	}
}

// auctionDetail is an auction with the values a bidding screen needs
type auctionDetail struct {
	Auction  *auction.Auction `json:"auction"`
	TimeLeft int64            `json:"time_left"`
	MinBid   int64            `json:"min_bid"`
	CanBid   bool             `json:"can_bid"`
}

type placeBidRequest struct {
	Amount *float64 `json:"amount"`
}

func auctionID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid auction id %q", shared.ErrInvalidRequest, c.Param("id"))
	}
	return id, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", shared.ErrInvalidRequest, key)
	}
	return v, nil
}

func listFilter(c *gin.Context) (auction.ListFilter, error) {
	var filter auction.ListFilter

	if raw := c.Query("status"); raw != "" {
		status, ok := auction.ParseStatus(raw)
		if !ok {
			return filter, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidRequest, raw)
		}
		filter.Status = &status
	}
	filter.Category = c.Query("category")

	if raw := c.Query("created_by"); raw != "" {
		creator, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid created_by", shared.ErrInvalidRequest)
		}
		filter.CreatedBy = &creator
	}

	var err error
	if filter.Page, err = queryInt(c, "page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(c, "page_size"); err != nil {
		return filter, err
	}
	return filter, nil
}

// ListAuctions handles GET /api/auctions
func (h *AuctionHandler) ListAuctions(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	auctions, err := h.service.ListAuctions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Auctions retrieved", gin.H{"auctions": auctions, "count": len(auctions)})
}

// GetAuction handles GET /api/auctions/:id
func (h *AuctionHandler) GetAuction(c *gin.Context) {
	id, err := auctionID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	found, err := h.service.GetAuction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.clock()
	respond(c, http.StatusOK, "Auction retrieved", auctionDetail{
		Auction:  found,
		TimeLeft: int64(found.TimeLeft(now).Seconds()),
		MinBid:   found.MinimumBid(),
		CanBid:   found.CanBid(now),
	})
}

// GetBids handles GET /api/auctions/:id/bids
func (h *AuctionHandler) GetBids(c *gin.Context) {
	id, err := auctionID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	bids, err := h.service.GetBids(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Bids retrieved", gin.H{"bids": bids, "count": len(bids)})
}

// GetStats handles GET /api/stats
func (h *AuctionHandler) GetStats(c *gin.Context) {
	respond(c, http.StatusOK, "Stats retrieved", h.service.GetStats(c.Request.Context()))
}

// PlaceBid handles POST /api/auctions/:id/bids
func (h *AuctionHandler) PlaceBid(c *gin.Context) {
	id, err := auctionID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	user, ok := currentUser(c)
	if !ok {
		respondError(c, shared.ErrUnauthenticated)
		return
	}

	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err))
		return
	}
	if req.Amount == nil {
		respondError(c, shared.ErrInvalidAmount)
		return
	}
	amount, err := bid.ParseAmount(*req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	placed, err := h.service.PlaceBid(c.Request.Context(), inbound.PlaceBidRequest{
		AuctionID: id,
		Bidder:    *user,
		Amount:    amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Bid placed successfully", placed)
}

// CreateAuction handles POST /api/auctions
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, shared.ErrUnauthenticated)
		return
	}

	var draft auction.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondError(c, fmt.Errorf("%w: %v", shared.ErrInvalidAuctionData, err))
		return
	}

	created, err := h.service.CreateAuction(c.Request.Context(), inbound.CreateAuctionRequest{
		Creator: *user,
		Auction: draft,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Auction created successfully", created)
}

// UpdateAuction handles PATCH /api/auctions/:id
func (h *AuctionHandler) UpdateAuction(c *gin.Context) {
	id, err := auctionID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var patch auction.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, fmt.Errorf("%w: %v", shared.ErrInvalidAuctionData, err))
		return
	}

	updated, err := h.service.UpdateAuction(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Auction updated successfully", updated)
}

// DeleteAuction handles DELETE /api/auctions/:id
func (h *AuctionHandler) DeleteAuction(c *gin.Context) {
	id, err := auctionID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.service.DeleteAuction(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Auction deleted successfully", gin.H{"id": id})
}

// AuthHandler serves login and registration
type AuthHandler struct {
	identity outbound.IdentityProvider
	logger   zerolog.Logger
}

func NewAuthHandler(identity outbound.IdentityProvider, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  *shared.User `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) session(c *gin.Context, code int, message string, user *shared.User) {
	token, err := h.identity.IssueToken(user)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to issue session token")
		respondError(c, err)
		return
	}
	respond(c, code, message, sessionResponse{User: user, Token: token})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err))
		return
	}

	user, err := h.identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Login rejected")
		respondError(c, err)
		return
	}
	h.session(c, http.StatusOK, "Login successful", user)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var reg outbound.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		respondError(c, fmt.Errorf("%w: %v", shared.ErrInvalidRequest, err))
		return
	}

	user, err := h.identity.Register(c.Request.Context(), reg)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Registration rejected")
		respondError(c, err)
		return
	}
	h.session(c, http.StatusCreated, "Registration successful", user)
}
