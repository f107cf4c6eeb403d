package bid

import (
	"fmt"
	"math"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/shared"
)

// maxExactAmount is the largest whole number a float64 represents exactly
const maxExactAmount = 1 << 53

// Validate decides whether amount may be accepted on a at time now.
// The status is always derived from the auction window; the cached
// Status field is never consulted.
func Validate(a *auction.Auction, amount int64, now time.Time) error {
	if status := a.StatusAt(now); status != auction.StatusActive {
		return fmt.Errorf("%w: auction is %s", shared.ErrAuctionNotActive, status)
	}
	if amount <= a.CurrentPrice {
		return fmt.Errorf("%w: minimum bid is %d", shared.ErrBidTooLow, a.MinimumBid())
	}
	if amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// ParseAmount converts a decoded JSON number into a currency amount.
// Fractions, NaN, infinities and non-positive values are rejected.
func ParseAmount(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v != math.Trunc(v) || v > maxExactAmount {
		return 0, shared.ErrInvalidAmount
	}
	return int64(v), nil
}
