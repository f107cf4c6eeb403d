package rest

import (
	"errors"
	"net/http"

	"bidding-platform/internal/domain/shared"

	"github.com/gin-gonic/gin"
)

// envelope is the body of every API response
type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

func respond(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, envelope{Status: "success", Message: message, Data: data})
}

// respondError writes err with the status code of its kind
func respondError(c *gin.Context, err error) {
	code := statusCode(err)
	c.AbortWithStatusJSON(code, envelope{
		Status:  "error",
		Message: http.StatusText(code),
		Error:   err.Error(),
		Reason:  shared.Reason(err),
	})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidAuctionData),
		errors.Is(err, shared.ErrInvalidRequest),
		errors.Is(err, shared.ErrInvalidTimeFormat):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrAuctionNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrAuctionNotActive),
		errors.Is(err, shared.ErrBidTooLow),
		errors.Is(err, shared.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrInvalidCredentials),
		errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
