package outbound

import (
	"context"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/bid"

	"github.com/google/uuid"
)

// EventType represents the type of event being broadcasted
type EventType string

const (
	EventTypeAuctionCreated EventType = "auction.created"
	EventTypeAuctionUpdated EventType = "auction.updated"
	EventTypeAuctionDeleted EventType = "auction.deleted"
	EventTypeBidAccepted    EventType = "bid.accepted"
	EventTypeStatusChanged  EventType = "auction.status_changed"
)

// Event represents a broadcast event. Payload pointers are private copies
// and must be treated as read-only by observers.
type Event struct {
	Type      EventType        `json:"type"`
	AuctionID uuid.UUID        `json:"auction_id"`
	Auction   *auction.Auction `json:"auction,omitempty"`
	Bid       *bid.Bid         `json:"bid,omitempty"`
	OldStatus auction.Status   `json:"old_status,omitempty"`
	NewStatus auction.Status   `json:"new_status,omitempty"`
	Timestamp int64            `json:"timestamp"`
}

func NewAuctionCreatedEvent(a *auction.Auction, now time.Time) Event {
	return Event{Type: EventTypeAuctionCreated, AuctionID: a.ID, Auction: a.Clone(), Timestamp: now.Unix()}
}

func NewAuctionUpdatedEvent(a *auction.Auction, now time.Time) Event {
	return Event{Type: EventTypeAuctionUpdated, AuctionID: a.ID, Auction: a.Clone(), Timestamp: now.Unix()}
}

func NewAuctionDeletedEvent(auctionID uuid.UUID, now time.Time) Event {
	return Event{Type: EventTypeAuctionDeleted, AuctionID: auctionID, Timestamp: now.Unix()}
}

func NewBidAcceptedEvent(b *bid.Bid) Event {
	placed := *b
	return Event{Type: EventTypeBidAccepted, AuctionID: b.AuctionID, Bid: &placed, Timestamp: b.Timestamp.Unix()}
}

func NewStatusChangedEvent(auctionID uuid.UUID, oldStatus, newStatus auction.Status, now time.Time) Event {
	return Event{
		Type:      EventTypeStatusChanged,
		AuctionID: auctionID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Timestamp: now.Unix(),
	}
}

// EventPublisher accepts events for delivery. Publish must not block on observers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// Broadcaster defines the interface for broadcasting events
type Broadcaster interface {
	EventPublisher

	// Subscribe subscribes a client to events for a specific auction
	// When a client subscribes to multiple auctions, all events are delivered to the same channel
	Subscribe(ctx context.Context, auctionID uuid.UUID, clientID string, eventChan chan Event) error

	// SubscribeAll subscribes a client to events of every auction
	SubscribeAll(ctx context.Context, clientID string, eventChan chan Event) error

	// Unsubscribe unsubscribes a client from events for a specific auction
	Unsubscribe(ctx context.Context, auctionID uuid.UUID, clientID string) error

	// UnsubscribeAll drops the every-auction subscription, keeping per-auction ones
	UnsubscribeAll(ctx context.Context, clientID string) error

	// Remove drops every subscription held by the client
	Remove(ctx context.Context, clientID string)

	// GetSubscribers returns the list of client IDs receiving events for an auction
	GetSubscribers(ctx context.Context, auctionID uuid.UUID) ([]string, error)

	// IsSubscribed checks if a client is subscribed to an auction
	IsSubscribed(ctx context.Context, auctionID uuid.UUID, clientID string) bool
}
