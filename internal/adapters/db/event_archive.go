package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bidding-platform/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxBatchSize = 50

const createEventsTable = `
	CREATE TABLE IF NOT EXISTS auction_events (
		id          UUID PRIMARY KEY,
		auction_id  UUID NOT NULL,
		event_type  TEXT NOT NULL,
		payload     JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)
`

const insertEvent = `
	INSERT INTO auction_events (id, auction_id, event_type, payload, created_at)
	VALUES ($1, $2, $3, $4, $5)
`

// EventArchive appends every broadcast event to Postgres as an audit
// trail. The in-memory store is never rebuilt from it.
type EventArchive struct {
	conn     *Connection
	source   outbound.Broadcaster
	clientID string
	events   chan outbound.Event
	cancel   context.CancelFunc
	done     chan struct{}
	logger   zerolog.Logger
}

type EventArchiveParams struct {
	Conn       *Connection
	Source     outbound.Broadcaster
	BufferSize int
	Logger     zerolog.Logger
}

func NewEventArchive(params EventArchiveParams) *EventArchive {
	size := params.BufferSize
	if size <= 0 {
		size = 100
	}

	return &EventArchive{
		conn:     params.Conn,
		source:   params.Source,
		clientID: "event-archive-" + uuid.NewString(),
		events:   make(chan outbound.Event, size),
		logger:   params.Logger.With().Str("component", "event_archive").Logger(),
	}
}

// EnsureSchema creates the events table if it does not exist
func (a *EventArchive) EnsureSchema(ctx context.Context) error {
	if _, err := a.conn.GetDB().ExecContext(ctx, createEventsTable); err != nil {
		return fmt.Errorf("failed to create auction_events table: %w", err)
	}
	return nil
}

// Record writes a batch of events in a single transaction
func (a *EventArchive) Record(ctx context.Context, events []outbound.Event) error {
	if len(events) == 0 {
		return nil
	}

	return a.conn.ExecuteTransaction(ctx, func(tx *sql.Tx) error {
		for _, event := range events {
			payload, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}

			_, err = tx.ExecContext(ctx, insertEvent,
				uuid.New(),
				event.AuctionID.String(),
				string(event.Type),
				payload,
				time.Unix(event.Timestamp, 0).UTC(),
			)
			if err != nil {
				return fmt.Errorf("failed to archive event: %w", err)
			}
		}
		return nil
	})
}

// Start subscribes the archive to all events and begins writing them
func (a *EventArchive) Start(ctx context.Context) error {
	if err := a.source.SubscribeAll(ctx, a.clientID, a.events); err != nil {
		return fmt.Errorf("failed to subscribe event archive: %w", err)
	}

	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go a.run(ctx)

	a.logger.Info().Msg("Event archive started")
	return nil
}

func (a *EventArchive) run(ctx context.Context) {
	defer close(a.done)

	for {
		select {
		case event := <-a.events:
			batch := a.collect(event)
			if err := a.Record(ctx, batch); err != nil {
				a.logger.Error().Err(err).Int("events", len(batch)).Msg("Failed to archive events")
				continue
			}
			a.logger.Debug().Int("events", len(batch)).Msg("Events archived")
		case <-ctx.Done():
			return
		}
	}
}

// collect gathers whatever is already queued behind first, up to maxBatchSize
func (a *EventArchive) collect(first outbound.Event) []outbound.Event {
	batch := []outbound.Event{first}
	for len(batch) < maxBatchSize {
		select {
		case event := <-a.events:
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

// Stop detaches the archive from the broadcaster and waits for the writer to exit
func (a *EventArchive) Stop(ctx context.Context) {
	a.source.Remove(ctx, a.clientID)
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.done
	a.logger.Info().Msg("Event archive stopped")
}
