package memory

import (
	"context"
	"fmt"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/bid"
	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/outbound"
	"bidding-platform/internal/syncutils"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const btreeDegree = 16

// entry owns one auction and its bid sequence. Every mutation of either
// happens under mu, which serializes bids on the same auction.
type entry struct {
	mu      syncutils.Mutex
	seq     uint64
	auction *auction.Auction
	bids    []*bid.Bid
	deleted bool
}

// view returns a copy of the auction with its status derived at now.
// Callers must hold e.mu.
func (e *entry) view(now time.Time) *auction.Auction {
	v := e.auction.Clone()
	v.Status = v.StatusAt(now)
	v.BidCount = len(e.bids)
	return v
}

// AuctionStore is an in-memory implementation of outbound.AuctionStore.
// Lock order is store.mu before entry.mu; PlaceBid only ever holds an entry lock.
type AuctionStore struct {
	mu        syncutils.RWMutex
	entries   map[uuid.UUID]*entry
	order     *btree.BTreeG[*entry] // newest first
	nextSeq   uint64
	publisher outbound.EventPublisher
	logger    zerolog.Logger
}

type AuctionStoreParams struct {
	Publisher outbound.EventPublisher
	Logger    zerolog.Logger
}

var _ outbound.AuctionStore = (*AuctionStore)(nil)

// NewAuctionStore creates an empty store
func NewAuctionStore(params AuctionStoreParams) *AuctionStore {
	return &AuctionStore{
		entries: make(map[uuid.UUID]*entry),
		order: btree.NewG(btreeDegree, func(a, b *entry) bool {
			return a.seq > b.seq
		}),
		publisher: params.Publisher,
		logger:    params.Logger.With().Str("component", "auction_store").Logger(),
	}
}

// Create validates the draft and inserts the auction at the head of the collection
func (s *AuctionStore) Create(ctx context.Context, draft auction.Draft, now time.Time) (*auction.Auction, error) {
	a, err := auction.NewAuction(draft, now)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	e := &entry{seq: s.nextSeq, auction: a}
	s.entries[a.ID] = e
	s.order.ReplaceOrInsert(e)

	// Published before the lock is released so that no bid event on this
	// auction can be queued ahead of its creation.
	s.publish(ctx, outbound.NewAuctionCreatedEvent(a, now))

	s.logger.Debug().
		Str("auction_id", a.ID.String()).
		Str("status", string(a.Status)).
		Int("total_auctions", len(s.entries)).
		Msg("Auction stored")

	return a.Clone(), nil
}

// GetByID retrieves an auction by ID
func (s *AuctionStore) GetByID(ctx context.Context, id uuid.UUID, now time.Time) (*auction.Auction, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, shared.ErrAuctionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, shared.ErrAuctionNotFound
	}
	return e.view(now), nil
}

// List retrieves auctions newest first, filtered and optionally paginated
func (s *AuctionStore) List(ctx context.Context, filter auction.ListFilter, now time.Time) ([]*auction.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auctions := make([]*auction.Auction, 0, s.order.Len())
	s.order.Ascend(func(e *entry) bool {
		e.mu.Lock()
		v := e.view(now)
		e.mu.Unlock()

		if filter.Matches(v, now) {
			auctions = append(auctions, v)
		}
		return true
	})

	return paginate(auctions, filter.Page, filter.PageSize), nil
}

func paginate(auctions []*auction.Auction, page, pageSize int) []*auction.Auction {
	if pageSize <= 0 {
		return auctions
	}
	if page <= 0 {
		page = 1
	}

	// Compare page counts before multiplying so huge inputs cannot overflow.
	pages := len(auctions) / pageSize
	if len(auctions)%pageSize != 0 {
		pages++
	}
	if page > pages {
		return []*auction.Auction{}
	}
	offset := (page - 1) * pageSize
	if pageSize >= len(auctions)-offset {
		return auctions[offset:]
	}
	return auctions[offset : offset+pageSize]
}

// Update merges a partial update into an auction
func (s *AuctionStore) Update(ctx context.Context, id uuid.UUID, patch auction.Patch, now time.Time) (*auction.Auction, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, shared.ErrAuctionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, shared.ErrAuctionNotFound
	}

	// An expired auction stays expired.
	if e.auction.StatusAt(now) == auction.StatusExpired && (patch.StartTime != nil || patch.EndTime != nil) {
		return nil, fmt.Errorf("%w: schedule of an expired auction cannot change", shared.ErrInvalidAuctionData)
	}

	next, err := patch.Apply(e.auction, now)
	if err != nil {
		return nil, err
	}
	e.auction = next

	v := e.view(now)
	s.publish(ctx, outbound.NewAuctionUpdatedEvent(v, now))

	s.logger.Debug().Str("auction_id", id.String()).Msg("Auction updated")
	return v, nil
}

// Delete removes an auction together with its bids
func (s *AuctionStore) Delete(ctx context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return shared.ErrAuctionNotFound
	}

	e.mu.Lock()
	e.deleted = true
	e.bids = nil
	delete(s.entries, id)
	s.order.Delete(e)
	s.publish(ctx, outbound.NewAuctionDeletedEvent(id, now))
	e.mu.Unlock()

	s.logger.Debug().Str("auction_id", id.String()).Int("total_auctions", len(s.entries)).Msg("Auction deleted")
	return nil
}

// PlaceBid validates the amount against the auction as it is right now and,
// if accepted, appends the bid and raises the current price.
func (s *AuctionStore) PlaceBid(ctx context.Context, auctionID uuid.UUID, amount int64, bidder shared.User, now time.Time) (*bid.Bid, error) {
	e := s.lookup(auctionID)
	if e == nil {
		return nil, shared.ErrAuctionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, shared.ErrAuctionNotFound
	}

	if err := bid.Validate(e.auction, amount, now); err != nil {
		return nil, err
	}

	newBid := bid.New(auctionID, bidder, amount, now)
	e.bids = append(e.bids, newBid)
	e.auction.CurrentPrice = amount
	e.auction.BidCount = len(e.bids)
	e.auction.UpdatedAt = now

	s.publish(ctx, outbound.NewBidAcceptedEvent(newBid))

	placed := *newBid
	return &placed, nil
}

// GetBids retrieves the bids of an auction in acceptance order
func (s *AuctionStore) GetBids(ctx context.Context, auctionID uuid.UUID) ([]*bid.Bid, error) {
	e := s.lookup(auctionID)
	if e == nil {
		return nil, shared.ErrAuctionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil, shared.ErrAuctionNotFound
	}

	bids := make([]*bid.Bid, 0, len(e.bids))
	for _, b := range e.bids {
		c := *b
		bids = append(bids, &c)
	}
	return bids, nil
}

// RefreshStatuses recomputes the cached status of every auction and emits
// a status change event for each one that moved.
func (s *AuctionStore) RefreshStatuses(ctx context.Context, now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	changed := 0
	s.order.Ascend(func(e *entry) bool {
		e.mu.Lock()
		defer e.mu.Unlock()

		oldStatus := e.auction.Status
		newStatus := e.auction.StatusAt(now)
		if oldStatus == newStatus {
			return true
		}

		e.auction.Status = newStatus
		changed++
		s.publish(ctx, outbound.NewStatusChangedEvent(e.auction.ID, oldStatus, newStatus, now))

		s.logger.Info().
			Str("auction_id", e.auction.ID.String()).
			Str("old_status", string(oldStatus)).
			Str("new_status", string(newStatus)).
			Msg("Auction status changed")
		return true
	})

	return changed
}

// Stats counts auctions per derived status
func (s *AuctionStore) Stats(ctx context.Context, now time.Time) auction.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats auction.Stats
	s.order.Ascend(func(e *entry) bool {
		e.mu.Lock()
		defer e.mu.Unlock()

		stats.Total++
		stats.TotalBids += len(e.bids)
		switch e.auction.StatusAt(now) {
		case auction.StatusActive:
			stats.Active++
		case auction.StatusUpcoming:
			stats.Upcoming++
		case auction.StatusExpired:
			stats.Expired++
		}
		return true
	})

	return stats
}

func (s *AuctionStore) lookup(id uuid.UUID) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

func (s *AuctionStore) publish(ctx context.Context, event outbound.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("auction_id", event.AuctionID.String()).
			Msg("Failed to publish event")
	}
}
