package bid

import (
	"math"
	"sync"
	"testing"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newAuction(start, end time.Time, current int64) *auction.Auction {
	return &auction.Auction{
		ID:            uuid.New(),
		StartingPrice: 2500000,
		CurrentPrice:  current,
		StartTime:     start,
		EndTime:       end,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	active := newAuction(now.Add(-30*time.Minute), now.Add(time.Hour), 2500000)
	upcoming := newAuction(now.Add(2*time.Hour), now.Add(4*time.Hour), 2500000)
	expired := newAuction(now.Add(-2*time.Hour), now.Add(-30*time.Minute), 2500000)

	// Cached status claims active but the window says expired.
	staleCache := newAuction(now.Add(-2*time.Hour), now.Add(-time.Minute), 2500000)
	staleCache.Status = auction.StatusActive

	tests := []struct {
		name    string
		auction *auction.Auction
		amount  int64
		wantErr error
	}{
		{name: "accepts_higher_bid", auction: active, amount: 2600000},
		{name: "accepts_one_unit_above", auction: active, amount: 2500001},
		{name: "rejects_equal_bid", auction: active, amount: 2500000, wantErr: shared.ErrBidTooLow},
		{name: "rejects_lower_bid", auction: active, amount: 100, wantErr: shared.ErrBidTooLow},
		{name: "rejects_negative_bid_as_too_low", auction: active, amount: -1, wantErr: shared.ErrBidTooLow},
		{name: "rejects_upcoming", auction: upcoming, amount: 9000000, wantErr: shared.ErrAuctionNotActive},
		{name: "rejects_expired", auction: expired, amount: 9000000, wantErr: shared.ErrAuctionNotActive},
		{name: "ignores_stale_cache", auction: staleCache, amount: 9000000, wantErr: shared.ErrAuctionNotActive},
		{name: "status_checked_before_amount", auction: expired, amount: 1, wantErr: shared.ErrAuctionNotActive},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tc.auction, tc.amount, now)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidate_InvalidAmountWhenPriceIsNotPositive(t *testing.T) {
	// Unreachable through the store since starting prices are positive,
	// but the rule still holds for a bare auction value.
	a := newAuction(now.Add(-time.Minute), now.Add(time.Minute), -10)
	require.ErrorIs(t, Validate(a, 0, now), shared.ErrInvalidAmount)
}

func TestValidate_DoesNotMutate(t *testing.T) {
	a := newAuction(now.Add(-time.Minute), now.Add(time.Minute), 100)
	before := *a

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_ = Validate(a, amount, now)
		}(int64(50 + i*5))
	}
	wg.Wait()

	require.Equal(t, before, *a)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      float64
		want    int64
		wantErr bool
	}{
		{in: 2600000, want: 2600000},
		{in: 1, want: 1},
		{in: 0, wantErr: true},
		{in: -100, wantErr: true},
		{in: 10.5, wantErr: true},
		{in: math.NaN(), wantErr: true},
		{in: math.Inf(1), wantErr: true},
		{in: math.MaxFloat64, wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseAmount(tc.in)
		if tc.wantErr {
			require.ErrorIs(t, err, shared.ErrInvalidAmount, "input %v", tc.in)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestNew_DenormalizesBidder(t *testing.T) {
	user := shared.User{ID: uuid.New(), Name: "John Doe", Avatar: "john.jpg"}
	auctionID := uuid.New()

	b := New(auctionID, user, 2600000, now)

	require.NotEqual(t, uuid.Nil, b.ID)
	require.Equal(t, auctionID, b.AuctionID)
	require.Equal(t, "John Doe", b.Bidder)
	require.Equal(t, "john.jpg", b.Avatar)
	require.Equal(t, user.ID, b.UserID)
	require.Equal(t, now, b.Timestamp)
}
