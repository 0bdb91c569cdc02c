// Raw JSON-over-HTTP client shared by the catalog services
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/amzx/internal/shared"
)

// Observer receives the status and headers of every response, e.g. a [pacing.Pacer].
type Observer interface {
	Observe(status int, header http.Header)
}

// APIService performs raw JSON requests against a catalog base URL.
//
// Authentication lives in the [http.Client] transport; extra static headers (API keys) are set per request.
type APIService struct {
	name       string
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	observer   Observer
}

// NewAPIService creates a new API client for the named catalog.
func NewAPIService(name, baseURL string, client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		name:       name,
		baseURL:    baseURL,
		httpClient: client,
		headers:    map[string]string{},
	}
}

// SetHeader adds a static header sent with every request.
func (a *APIService) SetHeader(key, value string) {
	a.headers[key] = value
}

// SetObserver registers an [Observer] for response headers.
func (a *APIService) SetObserver(o Observer) {
	a.observer = o
}

// BaseURL returns the configured base URL.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	Service    string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns a [*shared.StatusError] for non-2xx responses.
func (r *APIResponse) Err() error {
	if r.OK() {
		return nil
	}
	return r.StatusError()
}

// StatusError builds a [*shared.StatusError] from the response regardless of status.
func (r *APIResponse) StatusError() *shared.StatusError {
	return &shared.StatusError{Service: r.Service, StatusCode: r.StatusCode, Body: string(r.Body)}
}

// Decode unmarshals the body into v, wrapping failures with [shared.ErrMalformedResponse].
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrMalformedResponse, r.Service, err)
	}
	return nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with body marshalled as JSON and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, body any) (*APIResponse, error) {
	return a.Do(ctx, http.MethodPost, path, body)
}

// Do performs a request. Only transport and encoding failures are returned as errors;
// callers inspect the status through [APIResponse.Err].
func (a *APIService) Do(ctx context.Context, method, path string, body any) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", a.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if a.observer != nil {
		a.observer.Observe(resp.StatusCode, resp.Header)
	}

	return &APIResponse{
		Service:    a.name,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}
