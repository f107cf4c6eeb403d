package app

import (
	"context"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/ports/inbound"
	"bidding-platform/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuctionService implements the auction use cases on top of the store
type AuctionService struct {
	store       outbound.AuctionStore
	broadcaster outbound.Broadcaster
	clock       func() time.Time
	logger      zerolog.Logger
}

type AuctionServiceParams struct {
	Store       outbound.AuctionStore
	Broadcaster outbound.Broadcaster
	// Clock defaults to time.Now
	Clock  func() time.Time
	Logger zerolog.Logger
}

var (
	_ inbound.AuctionService      = (*AuctionService)(nil)
	_ inbound.SubscriptionService = (*AuctionService)(nil)
)

// NewAuctionService creates a new auction service
func NewAuctionService(params AuctionServiceParams) *AuctionService {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &AuctionService{
		store:       params.Store,
		broadcaster: params.Broadcaster,
		clock:       clock,
		logger:      params.Logger.With().Str("component", "auction_service").Logger(),
	}
}

// CreateAuction creates a new auction owned by the requesting user
func (service *AuctionService) CreateAuction(ctx context.Context, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
	draft := req.Auction
	draft.CreatedBy = req.Creator.ID

	service.logger.Info().
		Str("creator_id", req.Creator.ID.String()).
		Str("title", draft.Title).
		Time("start_time", draft.StartTime).
		Time("end_time", draft.EndTime).
		Int64("starting_price", draft.StartingPrice).
		Msg("Attempting to create auction")

	created, err := service.store.Create(ctx, draft, service.clock())
	if err != nil {
		service.logger.Warn().Err(err).Str("creator_id", req.Creator.ID.String()).Msg("Auction rejected")
		return nil, err
	}

	service.logger.Info().
		Str("auction_id", created.ID.String()).
		Str("status", string(created.Status)).
		Msg("Auction created successfully")

	return created, nil
}

// GetAuction retrieves an auction by ID
func (service *AuctionService) GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error) {
	now := service.clock()

	a, err := service.store.GetByID(ctx, auctionID, now)
	if err != nil {
		service.logger.Debug().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to retrieve auction")
		return nil, err
	}

	service.logger.Debug().
		Str("auction_id", a.ID.String()).
		Str("auction_status", string(a.Status)).
		Bool("can_bid", a.CanBid(now)).
		Msg("Auction retrieved successfully")

	return a, nil
}

// ListAuctions retrieves auctions newest first
func (service *AuctionService) ListAuctions(ctx context.Context, filter auction.ListFilter) ([]*auction.Auction, error) {
	return service.store.List(ctx, filter, service.clock())
}

// UpdateAuction applies a partial update to an auction
func (service *AuctionService) UpdateAuction(ctx context.Context, auctionID uuid.UUID, patch auction.Patch) (*auction.Auction, error) {
	updated, err := service.store.Update(ctx, auctionID, patch, service.clock())
	if err != nil {
		service.logger.Warn().Err(err).Str("auction_id", auctionID.String()).Msg("Auction update rejected")
		return nil, err
	}

	service.logger.Info().Str("auction_id", auctionID.String()).Msg("Auction updated successfully")
	return updated, nil
}

// DeleteAuction removes an auction and its bids
func (service *AuctionService) DeleteAuction(ctx context.Context, auctionID uuid.UUID) error {
	if err := service.store.Delete(ctx, auctionID, service.clock()); err != nil {
		service.logger.Warn().Err(err).Str("auction_id", auctionID.String()).Msg("Auction delete rejected")
		return err
	}

	service.logger.Info().Str("auction_id", auctionID.String()).Msg("Auction deleted successfully")
	return nil
}

// GetStats summarises auctions by derived status
func (service *AuctionService) GetStats(ctx context.Context) auction.Stats {
	return service.store.Stats(ctx, service.clock())
}

// RefreshStatuses recomputes cached statuses and emits a change event for each transition
func (service *AuctionService) RefreshStatuses(ctx context.Context) int {
	return service.store.RefreshStatuses(ctx, service.clock())
}
