package broadcaster

import (
	"context"
	"sync"

	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/outbound"
	"bidding-platform/internal/syncutils"

	"github.com/cespare/xxhash/v2"
	"github.com/gammazero/deque"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultLanes = 4

// subscriber is one client's delivery target. A client receives every
// matching event at most once, no matter how many subscriptions match.
type subscriber struct {
	eventChan chan outbound.Event
	all       bool
	auctions  map[uuid.UUID]struct{}
}

func (s *subscriber) wants(auctionID uuid.UUID) bool {
	if s.all {
		return true
	}
	_, ok := s.auctions[auctionID]
	return ok
}

// lane is a FIFO delivery queue drained by a single goroutine. All events
// of one auction hash to the same lane, which keeps them in publish order.
type lane struct {
	mu     syncutils.Mutex
	queue  *deque.Deque[outbound.Event]
	wake   chan struct{}
	closed bool
}

func (l *lane) push(event outbound.Event) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return shared.ErrBroadcasterClosed
	}
	l.queue.PushBack(event)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// pop returns the next queued event. done is true once the lane is closed and drained.
func (l *lane) pop() (event outbound.Event, ok bool, done bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.queue.Len() > 0 {
		return l.queue.PopFront(), true, false
	}
	return outbound.Event{}, false, l.closed
}

// LocalBroadcaster implements the broadcaster interface in process.
// Publish never blocks on observers; a subscriber whose channel is full
// misses the event.
type LocalBroadcaster struct {
	mu          syncutils.RWMutex
	subscribers map[string]*subscriber
	lanes       []*lane
	wg          sync.WaitGroup
	closeOnce   sync.Once
	logger      zerolog.Logger
}

type LocalBroadcasterParams struct {
	Lanes  int
	Logger zerolog.Logger
}

var _ outbound.Broadcaster = (*LocalBroadcaster)(nil)

func NewLocalBroadcaster(params LocalBroadcasterParams) *LocalBroadcaster {
	n := params.Lanes
	if n <= 0 {
		n = defaultLanes
	}

	b := &LocalBroadcaster{
		subscribers: make(map[string]*subscriber),
		lanes:       make([]*lane, n),
		logger:      params.Logger.With().Str("component", "local_broadcaster").Logger(),
	}

	for i := range b.lanes {
		l := &lane{
			queue: deque.New[outbound.Event](),
			wake:  make(chan struct{}, 1),
		}
		b.lanes[i] = l
		b.wg.Add(1)
		go b.run(l)
	}

	return b
}

func (b *LocalBroadcaster) laneFor(auctionID uuid.UUID) *lane {
	return b.lanes[xxhash.Sum64(auctionID[:])%uint64(len(b.lanes))]
}

// Publish enqueues an event for asynchronous delivery
func (b *LocalBroadcaster) Publish(ctx context.Context, event outbound.Event) error {
	if err := b.laneFor(event.AuctionID).push(event); err != nil {
		return err
	}

	b.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("auction_id", event.AuctionID.String()).
		Msg("Event queued")
	return nil
}

func (b *LocalBroadcaster) run(l *lane) {
	defer b.wg.Done()

	for {
		event, ok, done := l.pop()
		if done {
			return
		}
		if !ok {
			<-l.wake
			continue
		}
		b.deliver(event)
	}
}

func (b *LocalBroadcaster) deliver(event outbound.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for clientID, sub := range b.subscribers {
		if !sub.wants(event.AuctionID) {
			continue
		}
		select {
		case sub.eventChan <- event:
		default:
			b.logger.Warn().
				Str("client_id", clientID).
				Str("event_type", string(event.Type)).
				Str("auction_id", event.AuctionID.String()).
				Msg("Subscriber channel full, dropping event")
		}
	}
}

// getOrCreate returns the client's subscriber record. Callers must hold b.mu.
// The channel given with the first subscription is kept for the client's lifetime.
func (b *LocalBroadcaster) getOrCreate(clientID string, eventChan chan outbound.Event) *subscriber {
	sub, ok := b.subscribers[clientID]
	if !ok {
		sub = &subscriber{eventChan: eventChan, auctions: make(map[uuid.UUID]struct{})}
		b.subscribers[clientID] = sub
	}
	return sub
}

// Subscribe subscribes a client to events for a specific auction
func (b *LocalBroadcaster) Subscribe(ctx context.Context, auctionID uuid.UUID, clientID string, eventChan chan outbound.Event) error {
	if eventChan == nil {
		return shared.ErrInvalidRequest
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := b.getOrCreate(clientID, eventChan)
	if _, exists := sub.auctions[auctionID]; exists {
		b.logger.Debug().Str("client_id", clientID).Str("auction_id", auctionID.String()).Msg("Client already subscribed to auction")
		return nil
	}
	sub.auctions[auctionID] = struct{}{}

	b.logger.Info().
		Str("client_id", clientID).
		Str("auction_id", auctionID.String()).
		Msg("Client subscribed to auction")
	return nil
}

// SubscribeAll subscribes a client to every auction's events
func (b *LocalBroadcaster) SubscribeAll(ctx context.Context, clientID string, eventChan chan outbound.Event) error {
	if eventChan == nil {
		return shared.ErrInvalidRequest
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.getOrCreate(clientID, eventChan).all = true

	b.logger.Info().Str("client_id", clientID).Msg("Client subscribed to all auctions")
	return nil
}

// Unsubscribe unsubscribes a client from events for a specific auction
func (b *LocalBroadcaster) Unsubscribe(ctx context.Context, auctionID uuid.UUID, clientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[clientID]
	if !ok {
		return nil
	}
	delete(sub.auctions, auctionID)
	b.dropIfIdle(clientID, sub)

	b.logger.Info().
		Str("client_id", clientID).
		Str("auction_id", auctionID.String()).
		Msg("Client unsubscribed from auction")
	return nil
}

// UnsubscribeAll drops the every-auction subscription, keeping per-auction ones
func (b *LocalBroadcaster) UnsubscribeAll(ctx context.Context, clientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[clientID]
	if !ok {
		return nil
	}
	sub.all = false
	b.dropIfIdle(clientID, sub)

	b.logger.Info().Str("client_id", clientID).Msg("Client unsubscribed from all auctions")
	return nil
}

// Remove drops every subscription held by the client. Once it returns no
// further event is sent on the client's channel, so the owner may close it.
func (b *LocalBroadcaster) Remove(ctx context.Context, clientID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[clientID]; !ok {
		return
	}
	delete(b.subscribers, clientID)

	b.logger.Info().Str("client_id", clientID).Int("subscribers", len(b.subscribers)).Msg("Client removed")
}

func (b *LocalBroadcaster) dropIfIdle(clientID string, sub *subscriber) {
	if !sub.all && len(sub.auctions) == 0 {
		delete(b.subscribers, clientID)
	}
}

// GetSubscribers returns the clients receiving events for an auction
func (b *LocalBroadcaster) GetSubscribers(ctx context.Context, auctionID uuid.UUID) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var subscribers []string
	for clientID, sub := range b.subscribers {
		if sub.wants(auctionID) {
			subscribers = append(subscribers, clientID)
		}
	}
	return subscribers, nil
}

// IsSubscribed checks if a client holds a subscription for this exact auction
func (b *LocalBroadcaster) IsSubscribed(ctx context.Context, auctionID uuid.UUID, clientID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sub, ok := b.subscribers[clientID]
	if !ok {
		return false
	}
	_, subscribed := sub.auctions[auctionID]
	return subscribed
}

// Close stops accepting events, delivers what is already queued and waits
// for the lanes to finish. Subscriber channels are left open.
func (b *LocalBroadcaster) Close() error {
	b.closeOnce.Do(func() {
		for _, l := range b.lanes {
			l.mu.Lock()
			l.closed = true
			l.mu.Unlock()

			select {
			case l.wake <- struct{}{}:
			default:
			}
		}
		b.wg.Wait()
		b.logger.Info().Msg("Broadcaster closed")
	})
	return nil
}
