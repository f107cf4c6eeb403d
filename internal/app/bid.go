package app

import (
	"context"
	"errors"

	"bidding-platform/internal/domain/bid"
	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/inbound"

	"github.com/google/uuid"
)

// PlaceBid places a new bid on an auction
func (service *AuctionService) PlaceBid(ctx context.Context, req inbound.PlaceBidRequest) (*bid.Bid, error) {
	service.logger.Debug().
		Str("auction_id", req.AuctionID.String()).
		Str("user_id", req.Bidder.ID.String()).
		Int64("amount", req.Amount).
		Msg("Attempting to place bid")

	placed, err := service.store.PlaceBid(ctx, req.AuctionID, req.Amount, req.Bidder, service.clock())
	if err != nil {
		event := service.logger.Error()
		if isRejection(err) {
			event = service.logger.Warn()
		}
		event.Err(err).
			Str("auction_id", req.AuctionID.String()).
			Str("user_id", req.Bidder.ID.String()).
			Int64("amount", req.Amount).
			Str("reason", shared.Reason(err)).
			Msg("Bid rejected")
		return nil, err
	}

	service.logger.Info().
		Str("bid_id", placed.ID.String()).
		Str("auction_id", placed.AuctionID.String()).
		Str("user_id", placed.UserID.String()).
		Int64("amount", placed.Amount).
		Msg("Bid placed successfully")

	return placed, nil
}

// GetBids retrieves bids for an auction in acceptance order
func (service *AuctionService) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	return service.store.GetBids(ctx, auctionID)
}

func isRejection(err error) bool {
	return errors.Is(err, shared.ErrBidTooLow) ||
		errors.Is(err, shared.ErrAuctionNotActive) ||
		errors.Is(err, shared.ErrInvalidAmount) ||
		errors.Is(err, shared.ErrAuctionNotFound)
}
