package outbound

import (
	"context"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/bid"
	"bidding-platform/internal/domain/shared"

	"github.com/google/uuid"
)

// AuctionStore owns auctions and their bid sequences. It is the only
// component allowed to mutate them and emits an event for each mutation.
type AuctionStore interface {
	// Create validates the draft and inserts a new auction at the head of the collection
	Create(ctx context.Context, draft auction.Draft, now time.Time) (*auction.Auction, error)

	// GetByID retrieves an auction by ID with its status derived at now
	GetByID(ctx context.Context, id uuid.UUID, now time.Time) (*auction.Auction, error)

	// List retrieves auctions newest first with optional filters
	List(ctx context.Context, filter auction.ListFilter, now time.Time) ([]*auction.Auction, error)

	// Update merges a partial update into an auction
	Update(ctx context.Context, id uuid.UUID, patch auction.Patch, now time.Time) (*auction.Auction, error)

	// Delete removes an auction together with its bids
	Delete(ctx context.Context, id uuid.UUID, now time.Time) error

	// PlaceBid validates and appends a bid, raising the current price
	PlaceBid(ctx context.Context, auctionID uuid.UUID, amount int64, bidder shared.User, now time.Time) (*bid.Bid, error)

	// GetBids retrieves the bids of an auction in acceptance order
	GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error)

	// RefreshStatuses recomputes every cached status and returns how many changed
	RefreshStatuses(ctx context.Context, now time.Time) int

	// Stats counts auctions per derived status
	Stats(ctx context.Context, now time.Time) auction.Stats
}

// Registration is the input for a new account
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
}

// IdentityProvider supplies trusted User values to the core
type IdentityProvider interface {
	// Login resolves credentials to a user
	Login(ctx context.Context, email, password string) (*shared.User, error)

	// Register creates a new user account
	Register(ctx context.Context, reg Registration) (*shared.User, error)

	// IssueToken creates a session token for the user
	IssueToken(user *shared.User) (string, error)

	// Authenticate resolves a session token back to its user
	Authenticate(ctx context.Context, token string) (*shared.User, error)
}
