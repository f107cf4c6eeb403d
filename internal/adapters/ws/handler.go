package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/inbound"
	"bidding-platform/internal/ports/outbound"
	"bidding-platform/internal/syncutils"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WsHandler manages WebSocket connections and message routing
type WsHandler struct {
	clients         map[string]*WsClient // clientID -> Client
	clientsMu       syncutils.RWMutex
	upgrader        websocket.Upgrader
	auctionService  inbound.AuctionService
	subscriptions   inbound.SubscriptionService
	identity        outbound.IdentityProvider
	eventBufferSize int
	clock           func() time.Time
	logger          zerolog.Logger
}

type WsHandlerParams struct {
	Upgrader        websocket.Upgrader
	AuctionService  inbound.AuctionService
	Subscriptions   inbound.SubscriptionService
	Identity        outbound.IdentityProvider
	EventBufferSize int
	Clock           func() time.Time
	Logger          zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &WsHandler{
		clients:         make(map[string]*WsClient),
		upgrader:        params.Upgrader,
		auctionService:  params.AuctionService,
		subscriptions:   params.Subscriptions,
		identity:        params.Identity,
		eventBufferSize: params.EventBufferSize,
		clock:           clock,
		logger:          params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

func sessionToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// HandleWebSocket authenticates the session token and upgrades the connection
func (handler *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	user, err := handler.identity.Authenticate(r.Context(), token)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		User:            *user,
		Conn:            conn,
		Handler:         handler,
		EventBufferSize: handler.eventBufferSize,
		Logger:          handler.logger,
	})

	handler.registerClient(client)

	client.Start()

	// Start listening for broadcast events for this client
	go handler.listenForClientEvents(client)

	// Wait for client to disconnect
	go func() {
		<-client.ctx.Done()
		handler.unregisterClient(client)
	}()

	handler.logger.Info().Str("client_id", client.id).Str("user_id", client.user.ID.String()).Msg("WebSocket client connected")
}

func (handler *WsHandler) registerClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
	handler.logger.Debug().Str("client_id", client.id).Int("total_clients", len(handler.clients)).Msg("Client registered")
}

// unregisterClient cancels the client before dropping its subscriptions so
// that a subscribe racing with the disconnect can detect it and undo itself.
func (handler *WsHandler) unregisterClient(client *WsClient) {
	handler.clientsMu.Lock()
	if _, ok := handler.clients[client.id]; !ok {
		handler.clientsMu.Unlock()
		return
	}
	delete(handler.clients, client.id)
	total := len(handler.clients)
	handler.clientsMu.Unlock()

	client.Stop()
	handler.subscriptions.Leave(context.Background(), client.id)

	handler.logger.Info().Str("client_id", client.id).Str("user_id", client.user.ID.String()).Int("total_clients", total).Msg("WebSocket client disconnected")
}

// listenForClientEvents forwards broadcast events to the connection
func (handler *WsHandler) listenForClientEvents(client *WsClient) {
	handler.logger.Debug().Str("client_id", client.id).Msg("Event listener started for client")

	for {
		select {
		case event := <-client.events:
			if err := client.Send(NewEventMessage(event)); err != nil {
				handler.logger.Error().Err(err).Str("client_id", client.id).Msg("Failed to send event to WebSocket client")
				continue
			}
			handler.logger.Debug().Str("client_id", client.id).Str("event_type", string(event.Type)).
				Msg("Sent event to WebSocket client")

		case <-client.ctx.Done():
			handler.logger.Debug().Str("client_id", client.id).Msg("Client disconnected, stopping event listener")
			return
		}
	}
}

func (handler *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	switch msg.Type {
	case MessageTypeSubscribe:
		return handler.handleSubscribe(client, msg)

	case MessageTypeUnsubscribe:
		return handler.handleUnsubscribe(client, msg)

	case MessageTypeSubscribeAll:
		return handler.handleSubscribeAll(client)

	case MessageTypeUnsubscribeAll:
		return handler.handleUnsubscribeAll(client)

	case MessageTypePlaceBid:
		return handler.handlePlaceBid(client, msg)

	case MessageTypeGetAuction:
		return handler.handleGetAuction(client, msg)

	case MessageTypeListAuctions:
		return handler.handleListAuctions(client, msg)

	default:
		handler.logger.Warn().Str("client_id", client.id).Str("message_type", string(msg.Type)).Msg("Unknown message type from client")
		return shared.ErrUnknownMessageType
	}
}

// GetConnectedClients returns the number of connected clients
func (handler *WsHandler) GetConnectedClients() int {
	handler.clientsMu.RLock()
	defer handler.clientsMu.RUnlock()
	return len(handler.clients)
}

// CloseAll disconnects every client
func (handler *WsHandler) CloseAll() {
	handler.clientsMu.RLock()
	clients := make([]*WsClient, 0, len(handler.clients))
	for _, client := range handler.clients {
		clients = append(clients, client)
	}
	handler.clientsMu.RUnlock()

	for _, client := range clients {
		handler.unregisterClient(client)
	}
}

func (handler *WsHandler) handleSubscribe(client *WsClient, msg *ClientMessage) error {
	if err := handler.subscriptions.Subscribe(client.ctx, *msg.AuctionID, client.id, client.events); err != nil {
		handler.logger.Warn().Err(err).Str("client_id", client.id).Str("auction_id", msg.AuctionID.String()).Msg("Failed to subscribe to auction")
		return client.Send(NewErrorMessage(err, msg.AuctionID))
	}

	if handler.leftDuring(client) {
		return nil
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.AuctionID = msg.AuctionID
	response.Data["status"] = "subscribed"

	handler.logger.Info().Str("client_id", client.id).Str("auction_id", msg.AuctionID.String()).Msg("Client subscribed to auction")
	return client.Send(response)
}

// leftDuring undoes a subscription made after the client disconnected
func (handler *WsHandler) leftDuring(client *WsClient) bool {
	if client.ctx.Err() == nil {
		return false
	}
	handler.subscriptions.Leave(context.Background(), client.id)
	return true
}

// handleUnsubscribe handles unsubscription from auction events
func (handler *WsHandler) handleUnsubscribe(client *WsClient, msg *ClientMessage) error {
	if err := handler.subscriptions.Unsubscribe(client.ctx, *msg.AuctionID, client.id); err != nil {
		return err
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.AuctionID = msg.AuctionID
	response.Data["status"] = "unsubscribed"

	handler.logger.Info().Str("client_id", client.id).Str("auction_id", msg.AuctionID.String()).Msg("Client unsubscribed from auction")
	return client.Send(response)
}

func (handler *WsHandler) handleSubscribeAll(client *WsClient) error {
	if err := handler.subscriptions.SubscribeAll(client.ctx, client.id, client.events); err != nil {
		return err
	}

	if handler.leftDuring(client) {
		return nil
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["status"] = "subscribed_all"

	handler.logger.Info().Str("client_id", client.id).Msg("Client subscribed to all auctions")
	return client.Send(response)
}

func (handler *WsHandler) handleUnsubscribeAll(client *WsClient) error {
	if err := handler.subscriptions.UnsubscribeAll(client.ctx, client.id); err != nil {
		return err
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["status"] = "unsubscribed_all"
	return client.Send(response)
}

// handlePlaceBid places a bid as the authenticated user. Acceptance reaches
// subscribers as bid_accepted; the bidder also gets a direct confirmation.
func (handler *WsHandler) handlePlaceBid(client *WsClient, msg *ClientMessage) error {
	amount, err := msg.Amount()
	if err != nil {
		return err
	}

	placed, err := handler.auctionService.PlaceBid(client.ctx, inbound.PlaceBidRequest{
		AuctionID: *msg.AuctionID,
		Bidder:    client.user,
		Amount:    amount,
	})
	if err != nil {
		return client.Send(NewErrorMessage(err, msg.AuctionID))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.AuctionID = msg.AuctionID
	response.Data["status"] = "bid_placed"
	response.Data["bid"] = placed

	handler.logger.Info().Str("bid_id", placed.ID.String()).Str("auction_id", msg.AuctionID.String()).
		Str("user_id", client.user.ID.String()).Int64("amount", amount).Msg("Bid placed over WebSocket")
	return client.Send(response)
}

// handleGetAuction handles getting auction details
func (handler *WsHandler) handleGetAuction(client *WsClient, msg *ClientMessage) error {
	found, err := handler.auctionService.GetAuction(client.ctx, *msg.AuctionID)
	if err != nil {
		return client.Send(NewErrorMessage(err, msg.AuctionID))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.AuctionID = msg.AuctionID
	response.Data = auctionView(found, handler.clock())
	return client.Send(response)
}

// handleListAuctions handles listing auctions
func (handler *WsHandler) handleListAuctions(client *WsClient, msg *ClientMessage) error {
	filter, err := msg.ListFilter()
	if err != nil {
		return err
	}

	auctions, err := handler.auctionService.ListAuctions(client.ctx, filter)
	if err != nil {
		return client.Send(NewErrorMessage(err, nil))
	}

	response := NewServerMessage(MessageTypeAuctionUpdate)
	response.Data["auctions"] = auctions
	response.Data["count"] = len(auctions)
	return client.Send(response)
}
