// Package geolocate implements a network-based location provider: it asks a
// geolocation HTTP endpoint (IP or wifi based) for the device's approximate
// coordinates. Accuracy is coarse but sufficient for nearby-feast radii.
package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/feastradar/feastradar/internal/httpx"
	"github.com/feastradar/feastradar/internal/location"
)

const (
	// ProviderName identifies this location provider.
	ProviderName = "geolocate"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// ClientConfig holds configuration for the geolocation client.
type ClientConfig struct {
	// Endpoint is the geolocation service URL (required). The service must
	// answer GET with a JSON body carrying lat/lon fields.
	Endpoint string

	// Enabled gates the capability; when false every lookup is refused
	// with ErrPermissionDenied.
	Enabled bool

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient httpx.Doer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a network-based location provider.
type Client struct {
	endpoint   string
	enabled    bool
	httpClient httpx.Doer
	logger     zerolog.Logger
}

// NewClient creates a new geolocation client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := httpx.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		httpClient = httpx.NewClient(clientCfg)
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		enabled:    cfg.Enabled,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// HasPermission reports whether network geolocation is enabled.
func (c *Client) HasPermission() bool {
	return c.enabled
}

type geolocateResponse struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// CurrentLocation asks the geolocation service for a fix.
func (c *Client) CurrentLocation(ctx context.Context) (*location.Sample, error) {
	if !c.enabled {
		return nil, location.ErrPermissionDenied
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", location.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: geolocation returned status %d", location.ErrUnavailable, resp.StatusCode)
	}

	var geo geolocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if geo.Latitude < -90 || geo.Latitude > 90 || geo.Longitude < -180 || geo.Longitude > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", location.ErrUnavailable)
	}

	sample := &location.Sample{
		Latitude:  geo.Latitude,
		Longitude: geo.Longitude,
		SampledAt: time.Now(),
	}

	c.logger.Debug().
		Float64("lat", sample.Latitude).
		Float64("lon", sample.Longitude).
		Msg("location fix obtained")

	return sample, nil
}

var _ location.Provider = (*Client)(nil)
