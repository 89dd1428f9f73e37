package hub

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nerrad567/dirigera-bridge/internal/infrastructure/config"
)

// apiBasePath is the versioned REST prefix used by current hub firmware.
const apiBasePath = "/v1"

// Client is an HTTP client for the hub's REST API.
//
// The hub terminates TLS with a self-signed certificate that cannot be
// verified against a system trust store, so certificate verification is
// disabled. Authentication relies on the bearer token instead, and traffic
// never leaves the local network.
//
// Client is safe for concurrent use; it holds no mutable state beyond the
// underlying http.Client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a REST client for the hub described by cfg.
//
// No connection is made at construction time; use HealthCheck to verify
// the hub is reachable and the token is accepted.
func NewClient(cfg config.HubConfig) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, // #nosec G402 -- hub uses a self-signed certificate, auth is via bearer token
			MinVersion:         tls.VersionTLS12,
		},
	}

	return &Client{
		baseURL: fmt.Sprintf("https://%s:%d%s", cfg.Host, cfg.Port, apiBasePath),
		token:   cfg.Token,
		http: &http.Client{
			Timeout:   cfg.GetRequestTimeout(),
			Transport: transport,
		},
	}
}

// ListDevices fetches every device known to the hub.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - []Device: All devices, including unreachable ones
//   - error: ErrHubUnreachable, ErrAuthRejected, or ErrBadResponse
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.get(ctx, "/devices", &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// GetDevice fetches the full current state of a single device.
//
// Event frames carry partial attribute deltas only, so consumers handling
// events call this to materialise the complete record.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - deviceID: Hub-assigned device identifier
//
// Returns:
//   - *Device: The device record
//   - error: ErrDeviceNotFound if the ID is unknown, or a transport error
func (c *Client) GetDevice(ctx context.Context, deviceID string) (*Device, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: empty device id", ErrDeviceNotFound)
	}

	var device Device
	if err := c.get(ctx, "/devices/"+deviceID, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// HealthCheck verifies the hub is reachable and the token is accepted.
// It performs a device list fetch and discards the result.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.ListDevices(ctx); err != nil {
		return err
	}
	return nil
}

// get performs an authenticated GET against the hub and decodes the JSON
// response body into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHubUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d for %s", ErrBadResponse, resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding body: %v", ErrBadResponse, err)
	}
	return nil
}
