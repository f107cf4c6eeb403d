package app

import (
	"context"

	"bidding-platform/internal/ports/outbound"

	"github.com/google/uuid"
)

// Subscribe starts delivering an existing auction's events to the client's channel
func (service *AuctionService) Subscribe(ctx context.Context, auctionID uuid.UUID, clientID string, eventChan chan outbound.Event) error {
	if _, err := service.store.GetByID(ctx, auctionID, service.clock()); err != nil {
		return err
	}
	return service.broadcaster.Subscribe(ctx, auctionID, clientID, eventChan)
}

// SubscribeAll delivers every auction's events to the client's channel
func (service *AuctionService) SubscribeAll(ctx context.Context, clientID string, eventChan chan outbound.Event) error {
	return service.broadcaster.SubscribeAll(ctx, clientID, eventChan)
}

// Unsubscribe stops delivering an auction's events to the client
func (service *AuctionService) Unsubscribe(ctx context.Context, auctionID uuid.UUID, clientID string) error {
	return service.broadcaster.Unsubscribe(ctx, auctionID, clientID)
}

// UnsubscribeAll drops the client's every-auction subscription
func (service *AuctionService) UnsubscribeAll(ctx context.Context, clientID string) error {
	return service.broadcaster.UnsubscribeAll(ctx, clientID)
}

// Leave drops every subscription the client holds
func (service *AuctionService) Leave(ctx context.Context, clientID string) {
	service.broadcaster.Remove(ctx, clientID)
}
