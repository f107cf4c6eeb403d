package bid

import (
	"time"

	"bidding-platform/internal/domain/shared"

	"github.com/google/uuid"
)

// Bid is an immutable record of one user's accepted price on an auction.
// Bidder and Avatar are copied from the user at acceptance time.
type Bid struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	Bidder    string    `json:"bidder"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	Avatar    string    `json:"avatar"`
	UserID    uuid.UUID `json:"user_id"`
}

// New creates a bid for the given bidder
func New(auctionID uuid.UUID, bidder shared.User, amount int64, now time.Time) *Bid {
	return &Bid{
		ID:        uuid.New(),
		AuctionID: auctionID,
		Bidder:    bidder.Name,
		Amount:    amount,
		Timestamp: now,
		Avatar:    bidder.Avatar,
		UserID:    bidder.ID,
	}
}
