// Package backend provides the REST client for the feast backend: device
// registration, location updates, feast creation, nearby search, and
// reporting. All operations are stateless request/response pairs over JSON,
// bearer-authenticated when a principal session exists.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/feastradar/feastradar/internal/feast"
	"github.com/feastradar/feastradar/internal/httpx"
)

const (
	// DefaultTimeout is the flat per-request ceiling applied to every call.
	DefaultTimeout = 30 * time.Second

	// DefaultNearbyRadiusMeters is used when the caller passes no radius.
	DefaultNearbyRadiusMeters = 500.0
)

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (required), e.g. "https://api.example.com".
	BaseURL string

	// Credentials supplies the bearer token for outbound calls (optional).
	// Ignored when HTTPClient is set.
	Credentials CredentialSource

	// HTTPClient overrides both internal clients (optional, for tests).
	HTTPClient httpx.Doer

	// Timeout is the per-request timeout (optional, defaults to 30s).
	Timeout time.Duration

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is the feast backend client. Register/update-location calls ride a
// retrying resilient client; create/report calls get exactly one attempt plus
// an Idempotency-Key header, since the backend offers no dedup for them.
type Client struct {
	baseURL  string
	retry    httpx.Doer // safe-to-repeat operations
	oneShot  httpx.Doer // create/report
	logger   zerolog.Logger
	newReqID func() string
}

// NewClient creates a new backend client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	var retryClient, oneShotClient httpx.Doer
	if cfg.HTTPClient != nil {
		retryClient = cfg.HTTPClient
		oneShotClient = cfg.HTTPClient
	} else {
		transport := http.RoundTripper(nil)
		if cfg.Credentials != nil {
			transport = NewAuthTransport(cfg.Credentials, nil, cfg.Logger)
		}

		retryCfg := httpx.DefaultClientConfig("backend")
		retryCfg.Timeout = timeout
		retryCfg.Transport = transport
		retryClient = httpx.NewClient(retryCfg)

		oneShotCfg := httpx.SingleAttemptConfig("backend-mutating")
		oneShotCfg.Timeout = timeout
		oneShotCfg.Transport = transport
		oneShotClient = httpx.NewClient(oneShotCfg)
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		retry:    retryClient,
		oneShot:  oneShotClient,
		logger:   cfg.Logger,
		newReqID: func() string { return uuid.NewString() },
	}
}

// RegisterUser creates (or upserts) the backend record for a principal.
// Safe to repeat; the backend treats it as create-or-update.
func (c *Client) RegisterUser(ctx context.Context, req RegisterUserRequest) (*RegisterUserResponse, error) {
	c.logger.Debug().
		Str("principal", req.FirebaseUID).
		Float64("lat", req.Latitude).
		Float64("lon", req.Longitude).
		Msg("registering user with backend")

	var out RegisterUserResponse
	if err := c.doJSON(ctx, c.retry, http.MethodPost, "/api/users", "registerUser", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLocation pushes the principal's latest location and push token.
// Safe to repeat; last write wins server-side.
func (c *Client) UpdateLocation(ctx context.Context, req UpdateLocationRequest) (*UpdateLocationResponse, error) {
	var out UpdateLocationResponse
	if err := c.doJSON(ctx, c.retry, http.MethodPut, "/api/users/location", "updateLocation", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateFeast announces a new feast. Exactly one attempt is made; the
// request carries a client-generated Idempotency-Key so a future server-side
// dedup can honor it.
func (c *Client) CreateFeast(ctx context.Context, principal string, draft *feast.Draft) (*feast.Feast, error) {
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", feast.ErrInvalidDraft, err)
	}

	var payload feastPayload
	body := fromDraft(principal, draft)
	if err := c.doJSON(ctx, c.oneShot, http.MethodPost, "/api/feasts", "createFeast", body, &payload, true); err != nil {
		return nil, err
	}

	created := payload.toFeast()
	c.logger.Info().Str("feast_id", created.ID).Msg("feast created")
	return &created, nil
}

// ListNearby returns feasts around the given point, ordered by the server
// and annotated with server-computed distance. No client-side filtering is
// applied beyond what the server returns.
func (c *Client) ListNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]feast.Feast, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultNearbyRadiusMeters
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lon))
	q.Set("radius", fmt.Sprintf("%.1f", radiusMeters))

	var payloads []feastPayload
	path := "/api/feasts/nearby?" + q.Encode()
	if err := c.doJSON(ctx, c.retry, http.MethodGet, path, "listNearbyFeasts", nil, &payloads, false); err != nil {
		return nil, err
	}

	feasts := make([]feast.Feast, 0, len(payloads))
	for i := range payloads {
		feasts = append(feasts, payloads[i].toFeast())
	}

	c.logger.Debug().
		Int("count", len(feasts)).
		Float64("radius_m", radiusMeters).
		Msg("nearby feasts fetched")

	return feasts, nil
}

// ReportFeast reports a feast as fake or inappropriate and returns the
// updated snapshot. Activation state mutates server-side only; the client
// just relays the result. One attempt, with an Idempotency-Key.
func (c *Client) ReportFeast(ctx context.Context, feastID string) (*feast.Feast, error) {
	var payload feastPayload
	path := "/api/feasts/" + url.PathEscape(feastID) + "/report"
	if err := c.doJSON(ctx, c.oneShot, http.MethodPut, path, "reportFeast", nil, &payload, true); err != nil {
		return nil, err
	}

	updated := payload.toFeast()
	c.logger.Info().
		Str("feast_id", updated.ID).
		Bool("is_active", updated.IsActive).
		Msg("feast reported")
	return &updated, nil
}

// doJSON executes one request/response pair. A nil body sends no payload; a
// nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, client httpx.Doer, method, path, op string, body, out any, idempotencyKey bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey {
		req.Header.Set("Idempotency-Key", c.newReqID())
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", op, err)
		}
	}
	return nil
}
