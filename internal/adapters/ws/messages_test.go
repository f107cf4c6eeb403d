package ws

import (
	"fmt"
	"testing"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/bid"
	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientMessage(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"place_bid","auction_id":"6f1c9d1e-8a52-4f5e-9a55-3c1f2b7d9e10","data":{"amount":2600000}}`))
	require.NoError(t, err)
	require.Equal(t, MessageTypePlaceBid, msg.Type)
	require.NoError(t, msg.Validate())

	amount, err := msg.Amount()
	require.NoError(t, err)
	require.Equal(t, int64(2600000), amount)

	_, err = ParseClientMessage([]byte(`{"data":{}}`))
	require.ErrorIs(t, err, shared.ErrMessageTypeRequired)

	_, err = ParseClientMessage([]byte(`[`))
	require.ErrorIs(t, err, shared.ErrInvalidRequest)
}

func TestClientMessage_Validate(t *testing.T) {
	id := uuid.New()
	nilID := uuid.Nil

	tests := []struct {
		name    string
		msg     ClientMessage
		wantErr error
	}{
		{name: "subscribe", msg: ClientMessage{Type: MessageTypeSubscribe, AuctionID: &id}},
		{name: "subscribe_without_id", msg: ClientMessage{Type: MessageTypeSubscribe}, wantErr: shared.ErrAuctionIDRequired},
		{name: "subscribe_nil_id", msg: ClientMessage{Type: MessageTypeSubscribe, AuctionID: &nilID}, wantErr: shared.ErrAuctionIDRequired},
		{name: "subscribe_all", msg: ClientMessage{Type: MessageTypeSubscribeAll}},
		{name: "bid_without_amount", msg: ClientMessage{Type: MessageTypePlaceBid, AuctionID: &id}, wantErr: shared.ErrInvalidAmount},
		{name: "bid_string_amount", msg: ClientMessage{Type: MessageTypePlaceBid, AuctionID: &id, Data: map[string]interface{}{"amount": "100"}}, wantErr: shared.ErrInvalidAmount},
		{name: "list_with_status", msg: ClientMessage{Type: MessageTypeListAuctions, Data: map[string]interface{}{"status": "upcoming"}}},
		{name: "list_with_bad_status", msg: ClientMessage{Type: MessageTypeListAuctions, Data: map[string]interface{}{"status": "closed"}}, wantErr: shared.ErrInvalidRequest},
		{name: "unknown", msg: ClientMessage{Type: "create_auction"}, wantErr: shared.ErrUnknownMessageType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestClientMessage_ListFilter(t *testing.T) {
	msg := ClientMessage{Type: MessageTypeListAuctions, Data: map[string]interface{}{
		"status": "active", "category": "car", "page": float64(2), "page_size": float64(5),
	}}

	filter, err := msg.ListFilter()
	require.NoError(t, err)
	require.NotNil(t, filter.Status)
	assert.Equal(t, auction.StatusActive, *filter.Status)
	assert.Equal(t, "car", filter.Category)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 5, filter.PageSize)

	tests := []struct {
		name string
		data map[string]interface{}
	}{
		{name: "fractional_page", data: map[string]interface{}{"page": 1.5}},
		{name: "negative_page_size", data: map[string]interface{}{"page_size": float64(-2)}},
		{name: "huge_page", data: map[string]interface{}{"page": 1e19}},
		{name: "string_page", data: map[string]interface{}{"page": "2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := ClientMessage{Type: MessageTypeListAuctions, Data: tc.data}
			_, err := msg.ListFilter()
			require.ErrorIs(t, err, shared.ErrInvalidRequest)
			require.ErrorIs(t, msg.Validate(), shared.ErrInvalidRequest)
		})
	}
}

func TestNewEventMessage(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a := &auction.Auction{ID: uuid.New(), Title: "Rolex Submariner"}
	placed := &bid.Bid{ID: uuid.New(), AuctionID: a.ID, Amount: 10, Timestamp: now}

	tests := []struct {
		event   outbound.Event
		want    MessageType
		dataKey string
	}{
		{event: outbound.NewBidAcceptedEvent(placed), want: MessageTypeBidAccepted, dataKey: "bid"},
		{event: outbound.NewAuctionCreatedEvent(a, now), want: MessageTypeAuctionCreated, dataKey: "auction"},
		{event: outbound.NewAuctionUpdatedEvent(a, now), want: MessageTypeAuctionUpdated, dataKey: "auction"},
		{event: outbound.NewAuctionDeletedEvent(a.ID, now), want: MessageTypeAuctionDeleted},
		{event: outbound.NewStatusChangedEvent(a.ID, auction.StatusUpcoming, auction.StatusActive, now), want: MessageTypeStatusChanged, dataKey: "new_status"},
	}

	for _, tc := range tests {
		t.Run(string(tc.want), func(t *testing.T) {
			msg := NewEventMessage(tc.event)
			require.Equal(t, tc.want, msg.Type)
			require.Equal(t, a.ID, *msg.AuctionID)
			require.Equal(t, now.Unix(), msg.Timestamp)
			if tc.dataKey != "" {
				require.Contains(t, msg.Data, tc.dataKey)
			}
		})
	}
}

func TestNewErrorMessage(t *testing.T) {
	id := uuid.New()
	msg := NewErrorMessage(fmt.Errorf("%w: 1000 <= 1000", shared.ErrBidTooLow), &id)

	require.Equal(t, MessageTypeError, msg.Type)
	require.Equal(t, "bid_too_low", msg.Reason)
	require.Contains(t, *msg.Error, shared.ErrBidTooLow.Error())
	require.Equal(t, id, *msg.AuctionID)
}
