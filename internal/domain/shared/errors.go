package shared

import "errors"

// Domain-specific errors
var (
	// Auction errors
	ErrInvalidAuctionData = errors.New("invalid auction data")
	ErrAuctionNotFound    = errors.New("auction not found")
	ErrAuctionNotActive   = errors.New("auction is not accepting bids")

	// Bid errors
	ErrBidTooLow     = errors.New("bid amount must be higher than current price")
	ErrInvalidAmount = errors.New("bid amount must be a positive whole number")

	// Identity errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient role")

	// Validation errors
	ErrInvalidTimeFormat = errors.New("invalid time format")
	ErrInvalidRequest    = errors.New("invalid request")

	// WebSocket message validation errors
	ErrMessageTypeRequired = errors.New("message type is required")
	ErrAuctionIDRequired   = errors.New("auction_id is required")
	ErrUnknownMessageType  = errors.New("unknown message type")

	// Broadcasting errors
	ErrBroadcasterClosed = errors.New("broadcaster closed")
)

// Reason returns the stable error kind reported to clients.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAuctionData):
		return "invalid_auction_data"
	case errors.Is(err, ErrAuctionNotFound):
		return "not_found"
	case errors.Is(err, ErrAuctionNotActive):
		return "auction_not_active"
	case errors.Is(err, ErrBidTooLow):
		return "bid_too_low"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidTimeFormat), errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrMessageTypeRequired), errors.Is(err, ErrAuctionIDRequired),
		errors.Is(err, ErrUnknownMessageType):
		return "invalid_request"
	default:
		return "internal"
	}
}
