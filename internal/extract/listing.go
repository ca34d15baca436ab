package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-scanner/internal/model"
	"github.com/sells-group/presence-scanner/internal/platform"
	"github.com/sells-group/presence-scanner/pkg/places"
)

// ListingClient adapts the Places client to the orchestrator's map-listing
// verification interface.
type ListingClient struct {
	client places.Client
}

// NewListingClient wraps a Places client.
func NewListingClient(client places.Client) *ListingClient {
	return &ListingClient{client: client}
}

// VerifyListing searches the map listing for the business and returns the
// top hit as a candidate profile, or nil when nothing was found.
func (l *ListingClient) VerifyListing(ctx context.Context, business model.BusinessInput) (*model.CandidateProfile, error) {
	terms := []string{business.Name}
	if business.Address != "" {
		terms = append(terms, business.Address)
	}
	if business.City != "" {
		terms = append(terms, business.City)
	}

	resp, err := l.client.TextSearch(ctx, strings.Join(terms, " "))
	if err != nil {
		return nil, eris.Wrap(err, "extract: listing search")
	}
	if len(resp.Places) == 0 {
		return nil, nil
	}

	place := resp.Places[0]
	candidate := &model.CandidateProfile{
		Platform: platform.GoogleMaps,
		Name:     place.DisplayName.Text,
		Phone:    place.InternationalPhoneNumber,
		Website:  place.WebsiteURI,
		Address:  place.FormattedAddress,
		Found:    true,
		URL:      place.GoogleMapsURI,
	}
	if place.Rating > 0 {
		rating := place.Rating
		candidate.Rating = &rating
	}
	if place.UserRatingCount > 0 {
		count := place.UserRatingCount
		candidate.ReviewCount = &count
	}
	return candidate, nil
}
