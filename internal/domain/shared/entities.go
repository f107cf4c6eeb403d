package shared

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level a user holds on the platform
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents an authenticated user in the system
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Avatar      string    `json:"avatar"`
	IsOnline    bool      `json:"is_online"`
	JoinedAt    time.Time `json:"joined_at"`
	KYCVerified bool      `json:"kyc_verified"`
	City        string    `json:"city"`
	Role        Role      `json:"role"`
}

// IsAdmin returns true if the user may manage auctions
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
