package extractapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/use-agent/placerank/config"
	"github.com/use-agent/placerank/models"
)

// requestTimeout bounds every call to the extraction service.
const requestTimeout = 30 * time.Second

// Client talks to a Firecrawl-compatible structured extraction API.
// It uses net/http directly; the API is a single JSON endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// NewClient creates a client. A missing API key is a configuration error.
func NewClient(cfg config.ExtractAPIConfig, httpClient *http.Client) (*Client, error) {
	if !cfg.Enabled() {
		return nil, models.NewScrapeError(models.ErrCodeConfiguration, "extraction API key is not set", nil)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		endpoint:   strings.TrimRight(cfg.Endpoint, "/") + "/scrape",
	}, nil
}

// ScrapeRequest is the body of POST /scrape.
type ScrapeRequest struct {
	URL     string      `json:"url"`
	Formats []string    `json:"formats"`
	Extract ExtractSpec `json:"extract"`
	WaitFor int         `json:"waitFor,omitempty"`
}

// ExtractSpec asks the service to fill schema from the rendered page.
type ExtractSpec struct {
	Schema json.RawMessage `json:"schema"`
	Prompt string          `json:"prompt"`
}

// ScrapeResponse is the subset of the service response we read. Success is
// optional; only an explicit false marks a failed extraction.
type ScrapeResponse struct {
	Success *bool `json:"success,omitempty"`
	Data    struct {
		Extract PlaceList `json:"extract"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

// PlaceList is the extracted search result list.
type PlaceList struct {
	Places       []Place `json:"places"`
	TotalResults *int    `json:"total_results"`
}

// Place is one extracted search result.
type Place struct {
	Rank      int        `json:"rank"`
	Name      string     `json:"name"`
	ListingID flexString `json:"listingId"`
}

// flexString accepts a JSON string or number. Extraction models return
// numeric IDs either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("listingId: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// Scrape sends req and decodes the response.
func (c *Client) Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtractFailure, "extraction request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtractFailure, "failed to read extraction response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyError(resp.StatusCode, respBody)
	}

	var out ScrapeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtractFailure, "failed to parse extraction response", err)
	}
	if out.Success != nil && !*out.Success {
		msg := "extraction service reported failure"
		if out.Error != "" {
			msg = out.Error
		}
		return nil, models.NewScrapeError(models.ErrCodeExtractFailure, msg, nil)
	}
	return &out, nil
}

// classifyError maps HTTP status codes to error codes.
func classifyError(statusCode int, body []byte) *models.ScrapeError {
	var errResp struct {
		Error string `json:"error"`
	}
	msg := "extraction API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewScrapeError(models.ErrCodeExtractAuthFailure, msg, nil)
	case http.StatusTooManyRequests:
		return models.NewScrapeError(models.ErrCodeExtractRateLimited, msg, nil)
	default:
		return models.NewScrapeError(models.ErrCodeExtractFailure, fmt.Sprintf("extraction API returned %d: %s", statusCode, msg), nil)
	}
}
