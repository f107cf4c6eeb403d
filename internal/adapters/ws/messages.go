package ws

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/bid"
	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/outbound"

	"github.com/google/uuid"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypeSubscribe      MessageType = "subscribe"
	MessageTypeUnsubscribe    MessageType = "unsubscribe"
	MessageTypeSubscribeAll   MessageType = "subscribe_all"
	MessageTypeUnsubscribeAll MessageType = "unsubscribe_all"
	MessageTypePlaceBid       MessageType = "place_bid"
	MessageTypeGetAuction     MessageType = "get_auction"
	MessageTypeListAuctions   MessageType = "list_auctions"
	MessageTypePing           MessageType = "ping"

	// Server to Client message types
	MessageTypeBidAccepted    MessageType = "bid_accepted"
	MessageTypeAuctionCreated MessageType = "auction_created"
	MessageTypeAuctionUpdated MessageType = "auction_updated"
	MessageTypeAuctionDeleted MessageType = "auction_deleted"
	MessageTypeStatusChanged  MessageType = "status_changed"
	MessageTypeAuctionUpdate  MessageType = "auction_update"
	MessageTypeError          MessageType = "error"
	MessageTypePong           MessageType = "pong"
)

type ClientMessage struct {
	Type      MessageType            `json:"type"`
	AuctionID *uuid.UUID             `json:"auction_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type      MessageType            `json:"type"`
	AuctionID *uuid.UUID             `json:"auction_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     *string                `json:"error,omitempty"`
	Reason    string                 `json:"reason,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now().Unix(),
	}
}

// NewErrorMessage reports a failed request along with its stable reason
func NewErrorMessage(err error, auctionID *uuid.UUID) *ServerMessage {
	text := err.Error()
	return &ServerMessage{
		Type:      MessageTypeError,
		AuctionID: auctionID,
		Error:     &text,
		Reason:    shared.Reason(err),
		Timestamp: time.Now().Unix(),
	}
}

// NewEventMessage converts a broadcast event into the message pushed to subscribers
func NewEventMessage(event outbound.Event) *ServerMessage {
	auctionID := event.AuctionID
	msg := &ServerMessage{
		AuctionID: &auctionID,
		Data:      make(map[string]interface{}),
		Timestamp: event.Timestamp,
	}

	switch event.Type {
	case outbound.EventTypeBidAccepted:
		msg.Type = MessageTypeBidAccepted
		msg.Data["bid"] = event.Bid
	case outbound.EventTypeAuctionCreated:
		msg.Type = MessageTypeAuctionCreated
		msg.Data["auction"] = event.Auction
	case outbound.EventTypeAuctionUpdated:
		msg.Type = MessageTypeAuctionUpdated
		msg.Data["auction"] = event.Auction
	case outbound.EventTypeAuctionDeleted:
		msg.Type = MessageTypeAuctionDeleted
	case outbound.EventTypeStatusChanged:
		msg.Type = MessageTypeStatusChanged
		msg.Data["old_status"] = event.OldStatus
		msg.Data["new_status"] = event.NewStatus
	default:
		msg.Type = MessageTypeAuctionUpdate
	}

	return msg
}

// auctionView adds the values a bidding screen needs to an auction snapshot
func auctionView(a *auction.Auction, now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"auction":   a,
		"time_left": int64(a.TimeLeft(now).Seconds()),
		"min_bid":   a.MinimumBid(),
		"can_bid":   a.CanBid(now),
	}
}

func (m *ClientMessage) validateAuctionID() error {
	if m.AuctionID == nil || *m.AuctionID == uuid.Nil {
		return shared.ErrAuctionIDRequired
	}
	return nil
}

// ParseClientMessage parses a JSON message from client
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse client message: %v", shared.ErrInvalidRequest, err)
	}

	// Validate required fields
	if msg.Type == "" {
		return nil, shared.ErrMessageTypeRequired
	}

	return &msg, nil
}

// Amount extracts the bid amount of a place_bid message
func (m *ClientMessage) Amount() (int64, error) {
	raw, ok := m.Data["amount"].(float64)
	if !ok {
		return 0, shared.ErrInvalidAmount
	}
	return bid.ParseAmount(raw)
}

// ListFilter extracts the listing filter of a list_auctions message
func (m *ClientMessage) ListFilter() (auction.ListFilter, error) {
	var filter auction.ListFilter

	if raw, ok := m.Data["status"].(string); ok && raw != "" {
		status, valid := auction.ParseStatus(raw)
		if !valid {
			return filter, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidRequest, raw)
		}
		filter.Status = &status
	}
	if category, ok := m.Data["category"].(string); ok {
		filter.Category = category
	}

	var err error
	if filter.Page, err = m.pageParam("page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = m.pageParam("page_size"); err != nil {
		return filter, err
	}
	return filter, nil
}

// pageParam reads an optional non-negative whole number from Data
func (m *ClientMessage) pageParam(key string) (int, error) {
	raw, ok := m.Data[key]
	if !ok || raw == nil {
		return 0, nil
	}
	v, ok := raw.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", shared.ErrInvalidRequest, key)
	}
	return int(v), nil
}

// Validate validates a client message
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case MessageTypeSubscribe, MessageTypeUnsubscribe, MessageTypeGetAuction:
		return m.validateAuctionID()
	case MessageTypePlaceBid:
		if err := m.validateAuctionID(); err != nil {
			return err
		}
		_, err := m.Amount()
		return err
	case MessageTypeListAuctions:
		_, err := m.ListFilter()
		return err
	case MessageTypeSubscribeAll, MessageTypeUnsubscribeAll, MessageTypePing:
		return nil
	default:
		return shared.ErrUnknownMessageType
	}
}
