package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"wayfarer/internal/model"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

// Itineraries are requested as bare JSON so the parser has as little noise
// as possible to strip. The model does not always comply; the parser copes.
const promptTemplate = `Plan a %d-day trip to %s. Respond with a single JSON object and nothing else, in this exact shape:
{"days":[{"day":1,"locations":[{"name":"...","description":"...","latitude":0.0,"longitude":0.0,"place_id":"optional Google place ID"}]}]}
Give each day 2-4 locations. Descriptions should be one or two sentences. Coordinates must be real.`

// Client wraps the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new generative-text client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GenerateItinerary asks the model for a day-by-day plan and returns the raw
// response text. The text is expected, not guaranteed, to contain JSON.
func (c *Client) GenerateItinerary(ctx context.Context, destination string, days int) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(promptTemplate, days, destination)}}}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := c.baseURL + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: generate request returned status %d", model.ErrNetwork, resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: malformed generate response: %v", model.ErrNetwork, err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: generate response has no candidates", model.ErrNetwork)
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// API request/response types

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}
