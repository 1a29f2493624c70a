// Package realty fetches listing data from the Realty in US API on RapidAPI.
package realty

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// APIHost is the RapidAPI host identifier sent with every request.
	APIHost        = "realty-in-us.p.rapidapi.com"
	defaultBaseURL = "https://" + APIHost

	searchPath = "/properties/v3/list"
	detailPath = "/properties/v3/detail"
	photosPath = "/properties/v3/get-photos"

	// DefaultTimeout bounds every upstream call.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is kept in APIError.
	maxErrorBody = 4096
)

var (
	// ErrMissingAPIKey is returned by NewClient when no key is configured.
	ErrMissingAPIKey = errors.New("missing REALTY_RAPIDAPI_KEY or RAPIDAPI_KEY")
	// ErrInvalidJSON wraps responses whose body is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON response")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("realty API error %d: %s", e.StatusCode, e.Body)
}

// Default search filters: active listings, newest first.
var (
	DefaultStatuses = []string{"for_sale", "ready_to_build"}
	DefaultSort     = Sort{Direction: "desc", Field: "list_date"}
)

// Sort orders search results.
type Sort struct {
	Direction string `json:"direction"`
	Field     string `json:"field"`
}

// SearchRequest is the body of a listing search.
type SearchRequest struct {
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
	PostalCode string   `json:"postal_code"`
	Status     []string `json:"status"`
	Sort       Sort     `json:"sort"`
}

// Client calls the Realty in US endpoints. Responses are returned as
// generic JSON trees (numbers as json.Number) for shape resolution.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another server, e.g. a test double.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client with the given RapidAPI key.
// It fails before any network call when the key is empty.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search runs a listing search.
func (c *Client) Search(ctx context.Context, sr SearchRequest) (any, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Detail fetches the detail document of one property.
func (c *Client) Detail(ctx context.Context, propertyID string) (any, error) {
	return c.getByProperty(ctx, detailPath, propertyID)
}

// Photos fetches the photo document of one property.
func (c *Client) Photos(ctx context.Context, propertyID string) (any, error) {
	return c.getByProperty(ctx, photosPath, propertyID)
}

func (c *Client) getByProperty(ctx context.Context, path, propertyID string) (any, error) {
	params := url.Values{"property_id": {propertyID}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.do(req)
}

// do sends an authenticated request and decodes the JSON response.
func (c *Client) do(req *http.Request) (doc any, err error) {
	req.Header.Set("x-rapidapi-host", APIHost)
	req.Header.Set("x-rapidapi-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}

	return doc, nil
}
