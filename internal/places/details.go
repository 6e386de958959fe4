package places

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Details fetches the contact fields of a place.
func (c *Client) Details(ctx context.Context, apiKey, placeID string) (*DetailsResponse, error) {
	result := &DetailsResponse{}
	err := c.get(ctx, apiKey, "/details/json", map[string]string{
		"place_id": placeID,
		"fields":   DetailFields,
	}, result)
	if err != nil {
		return nil, fmt.Errorf("place details: %w", err)
	}
	return result, nil
}

// Contact looks up phone and website for a place. It never fails: any error
// or non-OK status yields an empty Contact.
func (c *Client) Contact(ctx context.Context, apiKey, placeID string) Contact {
	if placeID == "" {
		return Contact{}
	}

	resp, err := c.Details(ctx, apiKey, placeID)
	if err != nil {
		log.Debug().Err(err).Str("placeID", placeID).Msg("details lookup failed")
		return Contact{}
	}
	if resp.Status != StatusOK || resp.Result == nil {
		log.Debug().Str("placeID", placeID).Str("status", resp.Status).Msg("details not available")
		return Contact{}
	}

	return contactFromResult(resp.Result)
}

// contactFromResult prefers the international phone number over the local one.
func contactFromResult(r *DetailsResult) Contact {
	phone := r.InternationalPhoneNumber
	if phone == "" {
		phone = r.FormattedPhoneNumber
	}
	return Contact{
		Phone:   phone,
		Website: r.Website,
	}
}
