package auction

import (
	"fmt"
	"time"

	"bidding-platform/internal/domain/shared"

	"github.com/google/uuid"
)

// DefaultImage is used for listings created without any image
const DefaultImage = "https://images.pexels.com/photos/1396122/pexels-photo-1396122.jpeg?auto=compress&cs=tinysrgb&w=800"

// Draft is the admin-supplied input for a new auction
type Draft struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Images        []string  `json:"images"`
	Location      Location  `json:"location"`
	Details       Details   `json:"details"`
	StartingPrice int64     `json:"starting_price"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Category      string    `json:"category"`
	Amenities     []string  `json:"amenities"`
	CreatedBy     uuid.UUID `json:"created_by"`
}

// Validate checks the draft against the listing constraints
func (d *Draft) Validate() error {
	return validateTerms(d.StartingPrice, d.StartTime, d.EndTime)
}

func validateTerms(startingPrice int64, startTime, endTime time.Time) error {
	if startingPrice <= 0 {
		return fmt.Errorf("%w: starting price must be greater than 0", shared.ErrInvalidAuctionData)
	}
	if startTime.IsZero() || endTime.IsZero() {
		return fmt.Errorf("%w: start and end time are required", shared.ErrInvalidAuctionData)
	}
	if !endTime.After(startTime) {
		return fmt.Errorf("%w: end time must be after start time", shared.ErrInvalidAuctionData)
	}
	return nil
}

// NewAuction builds an auction from a validated draft.
// The status cache is primed from now.
func NewAuction(d Draft, now time.Time) (*Auction, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	images := append([]string(nil), d.Images...)
	if len(images) == 0 {
		images = []string{DefaultImage}
	}

	a := &Auction{
		ID:            uuid.New(),
		Title:         d.Title,
		Description:   d.Description,
		Images:        images,
		Location:      d.Location,
		Details:       d.Details.clone(),
		StartingPrice: d.StartingPrice,
		CurrentPrice:  d.StartingPrice,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		Category:      d.Category,
		Amenities:     append([]string(nil), d.Amenities...),
		CreatedBy:     d.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	a.Status = a.StatusAt(now)
	return a, nil
}

// Patch carries a partial update. CurrentPrice and Status are store-managed
// and deliberately absent, so clients cannot set them.
type Patch struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Images        []string   `json:"images,omitempty"`
	Location      *Location  `json:"location,omitempty"`
	Details       *Details   `json:"details,omitempty"`
	StartingPrice *int64     `json:"starting_price,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Category      *string    `json:"category,omitempty"`
	Amenities     []string   `json:"amenities,omitempty"`
}

// Apply merges the patch into a copy of a. The original is left untouched
// so a rejected patch cannot leave partial state behind.
func (p Patch) Apply(a *Auction, now time.Time) (*Auction, error) {
	next := a.Clone()

	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Images != nil {
		next.Images = append([]string(nil), p.Images...)
		if len(next.Images) == 0 {
			next.Images = []string{DefaultImage}
		}
	}
	if p.Location != nil {
		next.Location = *p.Location
	}
	if p.Details != nil {
		next.Details = p.Details.clone()
	}
	if p.StartTime != nil {
		next.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		next.EndTime = *p.EndTime
	}
	if p.Category != nil {
		next.Category = *p.Category
	}
	if p.Amenities != nil {
		next.Amenities = append([]string(nil), p.Amenities...)
	}
	if p.StartingPrice != nil && *p.StartingPrice != a.StartingPrice {
		// currentPrice never decreases and is final once the auction expires.
		if a.BidCount > 0 {
			return nil, fmt.Errorf("%w: starting price cannot change after bids were placed", shared.ErrInvalidAuctionData)
		}
		if a.StatusAt(now) == StatusExpired {
			return nil, fmt.Errorf("%w: starting price of an expired auction cannot change", shared.ErrInvalidAuctionData)
		}
		if *p.StartingPrice < a.CurrentPrice {
			return nil, fmt.Errorf("%w: starting price can only be raised", shared.ErrInvalidAuctionData)
		}
		next.StartingPrice = *p.StartingPrice
		next.CurrentPrice = *p.StartingPrice
	}

	if err := validateTerms(next.StartingPrice, next.StartTime, next.EndTime); err != nil {
		return nil, err
	}

	next.UpdatedAt = now
	return next, nil
}
