package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const clientTimeout = 10 * time.Second

// HTTPClient talks to the playback-progress endpoints of the watchdeck API
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a progress API client. token is the opaque session
// token forwarded on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// PullProgress fetches all progress records for the authenticated user
func (c *HTTPClient) PullProgress(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/progress", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Session-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("progress pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("progress pull returned status %d", resp.StatusCode)
	}

	var payload struct {
		Records []Record `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode progress response: %w", err)
	}
	return payload.Records, nil
}

// PushProgress uploads locally produced records
func (c *HTTPClient) PushProgress(ctx context.Context, records []Record) error {
	body, err := json.Marshal(map[string]interface{}{"records": records})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/progress", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("progress push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("progress push returned status %d", resp.StatusCode)
	}
	return nil
}
