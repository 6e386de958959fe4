package places

import (
	"context"
	"fmt"
)

// keyCheckPlaceID is not a real place. A usable key gets INVALID_REQUEST or
// NOT_FOUND back for it, a rejected key gets REQUEST_DENIED.
const keyCheckPlaceID = "places-collector-key-check"

// CheckKey makes one Place Details call to find out whether the API accepts
// apiKey. Only REQUEST_DENIED and transport failures are reported.
func (c *Client) CheckKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("api key is empty")
	}

	resp, err := c.Details(ctx, apiKey, keyCheckPlaceID)
	if err != nil {
		return err
	}
	if resp.Status == StatusRequestDenied {
		return &StatusError{Status: resp.Status, Message: resp.ErrorMessage}
	}
	return nil
}
