package app

import (
	"context"
	"fmt"
	"time"

	"bidding-platform/internal/domain/auction"
	"bidding-platform/internal/domain/shared"
	"bidding-platform/internal/ports/outbound"
)

// SeedParams describes who owns and who bid on the demo listings
type SeedParams struct {
	Seller shared.User
	Bidder shared.User
	Now    time.Time
}

func intPtr(v int) *int { return &v }

// demoAuctions returns the demo listings, oldest first, with windows relative to now
func demoAuctions(seller shared.User, now time.Time) []auction.Draft {
	return []auction.Draft{
		{
			Title:       "Classic BMW 3 Series",
			Description: "Well-maintained BMW 3 Series with low mileage. Perfect for car enthusiasts looking for luxury and performance.",
			Images: []string{
				"https://images.pexels.com/photos/170811/pexels-photo-170811.jpeg?auto=compress&cs=tinysrgb&w=800",
				"https://images.pexels.com/photos/116675/pexels-photo-116675.jpeg?auto=compress&cs=tinysrgb&w=800",
			},
			Location:      auction.Location{Area: "Koramangala", City: "Bangalore", State: "Karnataka", Pincode: "560034"},
			Details:       auction.Details{Type: "Car", Condition: "Good", Age: "8 Years"},
			StartingPrice: 800000,
			StartTime:     now.Add(-2 * time.Hour),
			EndTime:       now.Add(-30 * time.Minute),
			Category:      "Automobiles",
			Amenities:     []string{"Service History", "Insurance", "Registration Papers"},
			CreatedBy:     seller.ID,
		},
		{
			Title:       "Vintage Rolex Submariner Watch",
			Description: "Authentic vintage Rolex Submariner in excellent condition. This timepiece represents luxury and precision craftsmanship.",
			Images: []string{
				"https://images.pexels.com/photos/190819/pexels-photo-190819.jpeg?auto=compress&cs=tinysrgb&w=800",
				"https://images.pexels.com/photos/277390/pexels-photo-277390.jpeg?auto=compress&cs=tinysrgb&w=800",
			},
			Location:      auction.Location{Area: "Central Delhi", City: "Delhi", State: "Delhi", Pincode: "110001"},
			Details:       auction.Details{Type: "Watch", Condition: "Excellent", Age: "15 Years"},
			StartingPrice: 500000,
			StartTime:     now.Add(2 * time.Hour),
			EndTime:       now.Add(4 * time.Hour),
			Category:      "Luxury Items",
			Amenities:     []string{"Certificate of Authenticity", "Original Box", "Warranty"},
			CreatedBy:     seller.ID,
		},
		{
			Title:       "Luxury 3BHK Apartment in Bandra West",
			Description: "Premium 3BHK apartment with sea view in the heart of Bandra West. This property features modern amenities, spacious rooms, and is located in one of Mumbai's most sought-after neighborhoods.",
			Images: []string{
				"https://images.pexels.com/photos/1396122/pexels-photo-1396122.jpeg?auto=compress&cs=tinysrgb&w=800",
				"https://images.pexels.com/photos/1571460/pexels-photo-1571460.jpeg?auto=compress&cs=tinysrgb&w=800",
				"https://images.pexels.com/photos/1643383/pexels-photo-1643383.jpeg?auto=compress&cs=tinysrgb&w=800",
			},
			Location: auction.Location{Area: "Bandra West", City: "Mumbai", State: "Maharashtra", Pincode: "400050"},
			Details: auction.Details{
				Type:      "Apartment",
				Area:      intPtr(1450),
				Bedrooms:  intPtr(3),
				Bathrooms: intPtr(3),
				Parking:   intPtr(2),
				Floor:     "12th Floor",
				Facing:    "West (Sea View)",
				Age:       "5 Years",
			},
			StartingPrice: 2500000,
			StartTime:     now.Add(-30 * time.Minute),
			EndTime:       now.Add(60 * time.Minute),
			Category:      "Real Estate",
			Amenities:     []string{"Swimming Pool", "Gym", "Club House", "Security", "Parking"},
			CreatedBy:     seller.ID,
		},
	}
}

// Seed loads the demo listings into the store. The expired car listing
// closes at 950,000 through a bid recorded while it was still open.
func Seed(ctx context.Context, store outbound.AuctionStore, params SeedParams) ([]*auction.Auction, error) {
	drafts := demoAuctions(params.Seller, params.Now)
	seeded := make([]*auction.Auction, 0, len(drafts))

	for _, draft := range drafts {
		a, err := store.Create(ctx, draft, params.Now)
		if err != nil {
			return nil, fmt.Errorf("failed to seed %q: %w", draft.Title, err)
		}
		seeded = append(seeded, a)
	}

	car := seeded[0]
	if _, err := store.PlaceBid(ctx, car.ID, 950000, params.Bidder, car.StartTime.Add(time.Hour)); err != nil {
		return nil, fmt.Errorf("failed to seed opening bid: %w", err)
	}

	return seeded, nil
}
