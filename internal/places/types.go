package places

import "fmt"

// Response statuses the Places API uses.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusUnknownError   = "UNKNOWN_ERROR"
	StatusNotFound       = "NOT_FOUND"
)

// mapLinkTemplate opens a place in Google Maps by its place id.
const mapLinkTemplate = "https://www.google.com/maps/place/?q=place_id:%s"

// DetailFields are the fields requested from Place Details.
const DetailFields = "formatted_phone_number,international_phone_number,website"

// Place is a single Text Search result.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	Types            []string `json:"types,omitempty"`
}

// TextSearchResponse is one page of Text Search results.
type TextSearchResponse struct {
	Status        string  `json:"status"`
	ErrorMessage  string  `json:"error_message,omitempty"`
	Results       []Place `json:"results"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// DetailsResponse is the Place Details response restricted to DetailFields.
type DetailsResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Result       *DetailsResult `json:"result,omitempty"`
}

type DetailsResult struct {
	FormattedPhoneNumber     string `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string `json:"international_phone_number,omitempty"`
	Website                  string `json:"website,omitempty"`
}

// Contact holds the enrichment fields. Empty strings mean unknown.
type Contact struct {
	Phone   string
	Website string
}

// QueryFor builds the free-text query for a category in a municipality.
func QueryFor(category, municipality string) string {
	return fmt.Sprintf("%s em %s", category, municipality)
}

// MapLink returns the Google Maps link for a place id, or "" for an empty id.
func MapLink(placeID string) string {
	if placeID == "" {
		return ""
	}
	return fmt.Sprintf(mapLinkTemplate, placeID)
}
