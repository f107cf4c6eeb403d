package inbound

import (
	"context"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/bid"
	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/outbound"

	"github.com/google/uuid"
)

// AuctionService defines the interface for auction operations
type AuctionService interface {
	// CreateAuction creates a new auction
	CreateAuction(ctx context.Context, req CreateAuctionRequest) (*auction.Auction, error)

	// GetAuction retrieves an auction by ID
	GetAuction(ctx context.Context, auctionID uuid.UUID) (*auction.Auction, error)

	// ListAuctions retrieves a list of auctions
	ListAuctions(ctx context.Context, filter auction.ListFilter) ([]*auction.Auction, error)

	// UpdateAuction applies a partial update to an auction
	UpdateAuction(ctx context.Context, auctionID uuid.UUID, patch auction.Patch) (*auction.Auction, error)

	// DeleteAuction removes an auction and its bids
	DeleteAuction(ctx context.Context, auctionID uuid.UUID) error

	// PlaceBid places a new bid on an auction
	PlaceBid(ctx context.Context, req PlaceBidRequest) (*bid.Bid, error)

	// GetBids retrieves bids for an auction
	GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// GetStats summarises auctions by status
	GetStats(ctx context.Context) auction.Stats

	// RefreshStatuses recomputes cached statuses and emits status changes
	RefreshStatuses(ctx context.Context) int
}

// SubscriptionService defines the interface for following auction events
type SubscriptionService interface {
	Subscribe(ctx context.Context, auctionID uuid.UUID, clientID string, eventChan chan outbound.Event) error
	SubscribeAll(ctx context.Context, clientID string, eventChan chan outbound.Event) error
	Unsubscribe(ctx context.Context, auctionID uuid.UUID, clientID string) error
	UnsubscribeAll(ctx context.Context, clientID string) error
	Leave(ctx context.Context, clientID string)
}

// request to create an auction
type CreateAuctionRequest struct {
	Creator shared.User   `json:"creator"`
	Auction auction.Draft `json:"auction"`
}

// request to place a bid
type PlaceBidRequest struct {
	AuctionID uuid.UUID   `json:"auction_id"`
	Bidder    shared.User `json:"bidder"`
	Amount    int64       `json:"amount"`
}
