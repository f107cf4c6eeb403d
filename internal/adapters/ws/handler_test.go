package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bidding-platform/internal/adapters/broadcaster"
	"bidding-platform/internal/adapters/identity"
	"bidding-platform/internal/adapters/memory"
	"bidding-platform/internal/app"
	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/inbound"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type wsFixture struct {
	server      *httptest.Server
	handler     *WsHandler
	service     *app.AuctionService
	broadcaster *broadcaster.LocalBroadcaster
	identity    *identity.MockProvider
	auction     *auction.Auction
}

func newWsFixture(t *testing.T) *wsFixture {
	t.Helper()

	b := broadcaster.NewLocalBroadcaster(broadcaster.LocalBroadcasterParams{Lanes: 2, Logger: zerolog.Nop()})
	store := memory.NewAuctionStore(memory.AuctionStoreParams{Publisher: b, Logger: zerolog.Nop()})
	service := app.NewAuctionService(app.AuctionServiceParams{Store: store, Broadcaster: b, Logger: zerolog.Nop()})
	provider := identity.NewMockProvider(identity.MockProviderParams{Secret: "ws-test", TokenTTL: time.Hour, Logger: zerolog.Nop()})

	handler := NewHandler(WsHandlerParams{
		Upgrader:        websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		AuctionService:  service,
		Subscriptions:   service,
		Identity:        provider,
		EventBufferSize: 16,
		Logger:          zerolog.Nop(),
	})
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))

	now := time.Now()
	created, err := service.CreateAuction(context.Background(), inbound.CreateAuctionRequest{
		Creator: identity.DemoAdmin(),
		Auction: auction.Draft{
			Title:         "Luxury 3BHK Apartment in Bandra West",
			StartingPrice: 1000,
			StartTime:     now.Add(-time.Minute),
			EndTime:       now.Add(time.Hour),
			Category:      "apartment",
		},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		handler.CloseAll()
		server.Close()
		_ = b.Close()
	})

	return &wsFixture{
		server:      server,
		handler:     handler,
		service:     service,
		broadcaster: b,
		identity:    provider,
		auction:     created,
	}
}

func (f *wsFixture) dial(t *testing.T, email string) *websocket.Conn {
	t.Helper()

	password := "secret1"
	switch email {
	case identity.AdminEmail:
		password = "admin123"
	case identity.UserEmail:
		password = "user123"
	}

	user, err := f.identity.Login(context.Background(), email, password)
	require.NoError(t, err)
	token, err := f.identity.IssueToken(user)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil skips messages until one matches, failing after a deadline
func readUntil(t *testing.T, conn *websocket.Conn, match func(*ServerMessage) bool) *ServerMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(&msg) {
			return &msg
		}
	}
}

func ofType(msgType MessageType) func(*ServerMessage) bool {
	return func(m *ServerMessage) bool { return m.Type == msgType }
}

func withStatus(status string) func(*ServerMessage) bool {
	return func(m *ServerMessage) bool {
		return m.Type == MessageTypeAuctionUpdate && m.Data["status"] == status
	}
}

func TestHandleWebSocket_RequiresSession(t *testing.T) {
	f := newWsFixture(t)
	base := "ws" + strings.TrimPrefix(f.server.URL, "http")

	for _, url := range []string{base, base + "?token=not-a-token"} {
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestWebSocket_SubscriberReceivesAcceptedBid(t *testing.T) {
	f := newWsFixture(t)
	id := f.auction.ID

	watcher := f.dial(t, identity.AdminEmail)
	send(t, watcher, ClientMessage{Type: MessageTypeSubscribe, AuctionID: &id})
	readUntil(t, watcher, withStatus("subscribed"))

	bidder := f.dial(t, identity.UserEmail)
	send(t, bidder, ClientMessage{Type: MessageTypePlaceBid, AuctionID: &id, Data: map[string]interface{}{"amount": 1500}})

	confirmation := readUntil(t, bidder, withStatus("bid_placed"))
	require.Equal(t, id, *confirmation.AuctionID)

	event := readUntil(t, watcher, ofType(MessageTypeBidAccepted))
	require.Equal(t, id, *event.AuctionID)
	placed := event.Data["bid"].(map[string]interface{})
	require.Equal(t, float64(1500), placed["amount"])
	require.Equal(t, "John Doe", placed["bidder"])
}

func TestWebSocket_RejectedBidReportsReason(t *testing.T) {
	f := newWsFixture(t)
	id := f.auction.ID
	conn := f.dial(t, identity.UserEmail)

	tests := []struct {
		name   string
		amount interface{}
		reason string
	}{
		{name: "equal_to_current", amount: 1000, reason: "bid_too_low"},
		{name: "fractional", amount: 1000.5, reason: "invalid_amount"},
		{name: "negative", amount: -5, reason: "invalid_amount"},
		{name: "missing", amount: nil, reason: "invalid_amount"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			send(t, conn, ClientMessage{Type: MessageTypePlaceBid, AuctionID: &id, Data: map[string]interface{}{"amount": tc.amount}})
			msg := readUntil(t, conn, ofType(MessageTypeError))
			require.Equal(t, tc.reason, msg.Reason)
			require.NotNil(t, msg.Error)
		})
	}

	bids, err := f.service.GetBids(context.Background(), id)
	require.NoError(t, err)
	require.Empty(t, bids)
}

func TestWebSocket_GetAndListAuctions(t *testing.T) {
	f := newWsFixture(t)
	id := f.auction.ID
	conn := f.dial(t, identity.UserEmail)

	send(t, conn, ClientMessage{Type: MessageTypeGetAuction, AuctionID: &id})
	got := readUntil(t, conn, func(m *ServerMessage) bool { return m.Type == MessageTypeAuctionUpdate && m.Data["auction"] != nil })
	require.Equal(t, float64(1001), got.Data["min_bid"])
	require.Equal(t, true, got.Data["can_bid"])
	require.Greater(t, got.Data["time_left"].(float64), float64(0))

	send(t, conn, ClientMessage{Type: MessageTypeListAuctions, Data: map[string]interface{}{"status": "active"}})
	listed := readUntil(t, conn, func(m *ServerMessage) bool { return m.Data["auctions"] != nil })
	require.Equal(t, float64(1), listed.Data["count"])

	send(t, conn, ClientMessage{Type: MessageTypeListAuctions, Data: map[string]interface{}{"status": "expired"}})
	empty := readUntil(t, conn, func(m *ServerMessage) bool { return m.Data["count"] != nil })
	require.Equal(t, float64(0), empty.Data["count"])

	missing := uuid.New()
	send(t, conn, ClientMessage{Type: MessageTypeGetAuction, AuctionID: &missing})
	notFound := readUntil(t, conn, ofType(MessageTypeError))
	require.Equal(t, "not_found", notFound.Reason)
}

func TestWebSocket_PingAndInvalidMessages(t *testing.T) {
	f := newWsFixture(t)
	conn := f.dial(t, "priya@example.com")

	send(t, conn, ClientMessage{Type: MessageTypePing})
	readUntil(t, conn, ofType(MessageTypePong))

	send(t, conn, ClientMessage{Type: "join_room"})
	unknown := readUntil(t, conn, ofType(MessageTypeError))
	require.Equal(t, "invalid_request", unknown.Reason)

	send(t, conn, ClientMessage{Type: MessageTypeSubscribe})
	noID := readUntil(t, conn, ofType(MessageTypeError))
	require.Equal(t, shared.ErrAuctionIDRequired.Error(), *noID.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	malformed := readUntil(t, conn, ofType(MessageTypeError))
	require.Equal(t, "invalid_request", malformed.Reason)
}

func TestWebSocket_SubscribeAllReceivesNewAuctions(t *testing.T) {
	f := newWsFixture(t)
	conn := f.dial(t, identity.UserEmail)

	send(t, conn, ClientMessage{Type: MessageTypeSubscribeAll})
	readUntil(t, conn, withStatus("subscribed_all"))

	now := time.Now()
	created, err := f.service.CreateAuction(context.Background(), inbound.CreateAuctionRequest{
		Creator: identity.DemoAdmin(),
		Auction: auction.Draft{Title: "Rolex Submariner", StartingPrice: 500000, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)},
	})
	require.NoError(t, err)

	msg := readUntil(t, conn, ofType(MessageTypeAuctionCreated))
	require.Equal(t, created.ID, *msg.AuctionID)

	send(t, conn, ClientMessage{Type: MessageTypeUnsubscribeAll})
	readUntil(t, conn, withStatus("unsubscribed_all"))

	subscribers, err := f.broadcaster.GetSubscribers(context.Background(), created.ID)
	require.NoError(t, err)
	require.Empty(t, subscribers)
}

func TestWebSocket_DisconnectDropsSubscriptions(t *testing.T) {
	f := newWsFixture(t)
	id := f.auction.ID
	conn := f.dial(t, identity.UserEmail)

	send(t, conn, ClientMessage{Type: MessageTypeSubscribe, AuctionID: &id})
	readUntil(t, conn, withStatus("subscribed"))
	require.Equal(t, 1, f.handler.GetConnectedClients())

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		subscribers, err := f.broadcaster.GetSubscribers(context.Background(), id)
		return err == nil && len(subscribers) == 0 && f.handler.GetConnectedClients() == 0
	}, 3*time.Second, 10*time.Millisecond)
}
