package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"wayfarer/internal/model"
)

const placesAPIBase = "https://maps.googleapis.com/maps/api/place"

// Photo is a photo reference returned by any of the lookup shapes.
type Photo struct {
	Reference string `json:"photo_reference"`
}

// Candidate is a place found by text or proximity search.
type Candidate struct {
	PlaceID string  `json:"place_id"`
	Photos  []Photo `json:"photos"`
}

// Client wraps the Google Places API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Places API client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    placesAPIBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Details fetches a place by ID and returns its photos.
func (c *Client) Details(ctx context.Context, placeID string) ([]Photo, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "photos")
	params.Set("key", c.apiKey)

	var result struct {
		Status string `json:"status"`
		Result struct {
			Photos []Photo `json:"photos"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/details/json", params, &result); err != nil {
		return nil, err
	}
	if result.Status != "OK" {
		return nil, fmt.Errorf("place details returned status %s", result.Status)
	}
	return result.Result.Photos, nil
}

// FindPlace text-searches for a place by name and returns the first
// candidate, or nil when nothing matched.
func (c *Client) FindPlace(ctx context.Context, name string) (*Candidate, error) {
	params := url.Values{}
	params.Set("input", name)
	params.Set("inputtype", "textquery")
	params.Set("fields", "place_id,photos")
	params.Set("key", c.apiKey)

	var result struct {
		Status     string      `json:"status"`
		Candidates []Candidate `json:"candidates"`
	}
	if err := c.get(ctx, "/findplacefromtext/json", params, &result); err != nil {
		return nil, err
	}
	if result.Status != "OK" || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("text search returned status %s", result.Status)
	}
	return &result.Candidates[0], nil
}

// Nearby searches for a place close to the given coordinate and returns the
// first result, or an error when nothing was found.
func (c *Client) Nearby(ctx context.Context, coord model.Coordinate, radiusMeters int) (*Candidate, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%.6f,%.6f", coord.Latitude, coord.Longitude))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	params.Set("key", c.apiKey)

	var result struct {
		Results []Candidate `json:"results"`
	}
	if err := c.get(ctx, "/nearbysearch/json", params, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, fmt.Errorf("nearby search found nothing within %dm", radiusMeters)
	}
	return &result.Results[0], nil
}

// PhotoURL builds the fetchable URL for a photo reference.
func (c *Client) PhotoURL(reference string) string {
	params := url.Values{}
	params.Set("maxwidth", "800")
	params.Set("photo_reference", reference)
	params.Set("key", c.apiKey)
	return c.baseURL + "/photo?" + params.Encode()
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: places request returned status %d", model.ErrNetwork, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed places response: %v", model.ErrNetwork, err)
	}
	return nil
}
