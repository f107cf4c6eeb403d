package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"

	"bidding-platform/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisPublisher is the part of the go-redis client the relay needs
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ChannelName returns the Redis pub/sub channel carrying an auction's events
func ChannelName(auctionID uuid.UUID) string {
	return fmt.Sprintf("auction:%s", auctionID.String())
}

// RedisRelay observes every event of a broadcaster and republishes it to
// Redis so other processes can follow the auctions. Relay failures are
// logged and never reach the core.
type RedisRelay struct {
	client   RedisPublisher
	source   outbound.Broadcaster
	clientID string
	events   chan outbound.Event
	cancel   context.CancelFunc
	done     chan struct{}
	logger   zerolog.Logger
}

type RedisRelayParams struct {
	RedisClient RedisPublisher
	Source      outbound.Broadcaster
	BufferSize  int
	Logger      zerolog.Logger
}

func NewRedisRelay(params RedisRelayParams) *RedisRelay {
	size := params.BufferSize
	if size <= 0 {
		size = 100
	}

	return &RedisRelay{
		client:   params.RedisClient,
		source:   params.Source,
		clientID: "redis-relay-" + uuid.NewString(),
		events:   make(chan outbound.Event, size),
		logger:   params.Logger.With().Str("component", "redis_relay").Logger(),
	}
}

// Start subscribes the relay to all events and begins forwarding them
func (r *RedisRelay) Start(ctx context.Context) error {
	if err := r.source.SubscribeAll(ctx, r.clientID, r.events); err != nil {
		return fmt.Errorf("failed to subscribe redis relay: %w", err)
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.forward(ctx)

	r.logger.Info().Msg("Redis relay started")
	return nil
}

func (r *RedisRelay) forward(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case event := <-r.events:
			r.relay(ctx, event)
		case <-ctx.Done():
			return
		}
	}
}

func (r *RedisRelay) relay(ctx context.Context, event outbound.Event) {
	channelName := ChannelName(event.AuctionID)

	eventJSON, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Str("auction_id", event.AuctionID.String()).Msg("Failed to marshal event")
		return
	}

	result := r.client.Publish(ctx, channelName, eventJSON)
	if err := result.Err(); err != nil {
		r.logger.Error().Err(err).Str("channel_name", channelName).Msg("Failed to publish to Redis")
		return
	}

	r.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("channel_name", channelName).
		Int64("subscriber_count", result.Val()).
		Msg("Relayed event to Redis")
}

// Stop detaches the relay from the broadcaster and waits for the forwarder to exit
func (r *RedisRelay) Stop(ctx context.Context) {
	r.source.Remove(ctx, r.clientID)
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.logger.Info().Msg("Redis relay stopped")
}
