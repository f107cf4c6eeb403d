package auction

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the time-derived phase of an auction
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
)

// ParseStatus converts a query value to a Status
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusUpcoming, StatusActive, StatusExpired:
		return Status(s), true
	}
	return "", false
}

// ResolveStatus maps a point in time onto the auction window.
// Both window boundaries are inclusive on the active side.
func ResolveStatus(now, startTime, endTime time.Time) Status {
	switch {
	case now.Before(startTime):
		return StatusUpcoming
	case now.After(endTime):
		return StatusExpired
	default:
		return StatusActive
	}
}

// Location is where the auctioned item is
type Location struct {
	Area    string `json:"area"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Details holds the optional listing attributes
type Details struct {
	Type      string `json:"type"`
	Area      *int   `json:"area,omitempty"`
	Bedrooms  *int   `json:"bedrooms,omitempty"`
	Bathrooms *int   `json:"bathrooms,omitempty"`
	Parking   *int   `json:"parking,omitempty"`
	Floor     string `json:"floor,omitempty"`
	Facing    string `json:"facing,omitempty"`
	Age       string `json:"age,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// Auction represents a priced, time-bounded listing open to bids
type Auction struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Images        []string  `json:"images"`
	Location      Location  `json:"location"`
	Details       Details   `json:"details"`
	StartingPrice int64     `json:"starting_price"`
	CurrentPrice  int64     `json:"current_price"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Category      string    `json:"category"`
	Amenities     []string  `json:"amenities"`
	Status        Status    `json:"status"`
	CreatedBy     uuid.UUID `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	BidCount      int       `json:"bid_count"`
}

// StatusAt derives the status at the given time, ignoring the cached Status field
func (a *Auction) StatusAt(now time.Time) Status {
	return ResolveStatus(now, a.StartTime, a.EndTime)
}

// CanBid returns true if a bid can be placed on this auction at the given time
func (a *Auction) CanBid(now time.Time) bool {
	return a.StatusAt(now) == StatusActive
}

// MinimumBid is the lowest amount that would currently be accepted
func (a *Auction) MinimumBid() int64 {
	return a.CurrentPrice + 1
}

// TimeLeft returns the time until the auction starts when upcoming,
// until it ends when active, and zero once expired.
func (a *Auction) TimeLeft(now time.Time) time.Duration {
	switch a.StatusAt(now) {
	case StatusUpcoming:
		return a.StartTime.Sub(now)
	case StatusActive:
		return a.EndTime.Sub(now)
	default:
		return 0
	}
}

// Clone returns a deep copy safe to hand out to readers
func (a *Auction) Clone() *Auction {
	c := *a
	c.Images = append([]string(nil), a.Images...)
	c.Amenities = append([]string(nil), a.Amenities...)
	c.Details = a.Details.clone()
	return &c
}

func (d Details) clone() Details {
	d.Area = cloneInt(d.Area)
	d.Bedrooms = cloneInt(d.Bedrooms)
	d.Bathrooms = cloneInt(d.Bathrooms)
	d.Parking = cloneInt(d.Parking)
	return d
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ListFilter narrows the auctions returned by a listing
type ListFilter struct {
	Status    *Status    `json:"status,omitempty"`
	Category  string     `json:"category,omitempty"`
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}

// Matches reports whether the auction passes the non-paging criteria at the given time
func (f ListFilter) Matches(a *Auction, now time.Time) bool {
	if f.Status != nil && a.StatusAt(now) != *f.Status {
		return false
	}
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.CreatedBy != nil && a.CreatedBy != *f.CreatedBy {
		return false
	}
	return true
}

// Stats summarises the auctions held by the platform
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Upcoming  int `json:"upcoming"`
	Expired   int `json:"expired"`
	TotalBids int `json:"total_bids"`
}
