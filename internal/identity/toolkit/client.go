// Package toolkit implements anonymous sign-in against the Identity Toolkit
// REST surface, persisting the resulting session locally so the principal
// stays stable across restarts.
package toolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/feastradar/feastradar/internal/httpx"
	"github.com/feastradar/feastradar/internal/identity"
)

const (
	// ProviderName identifies this identity provider.
	ProviderName = "identitytoolkit"

	// DefaultBaseURL is the Identity Toolkit API base URL.
	DefaultBaseURL = "https://identitytoolkit.googleapis.com"

	// DefaultTokenURL is the secure-token exchange base URL.
	DefaultTokenURL = "https://securetoken.googleapis.com"

	// expiryMargin is subtracted from token lifetimes so a credential is
	// refreshed before it actually lapses mid-request.
	expiryMargin = time.Minute
)

// ClientConfig holds configuration for the Identity Toolkit client.
type ClientConfig struct {
	// APIKey is the project web API key (required).
	APIKey string

	// BaseURL is the sign-up API base URL (optional).
	BaseURL string

	// TokenURL is the token-refresh base URL (optional).
	TokenURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient httpx.Doer

	// Sessions persists the anonymous session across restarts (required).
	Sessions identity.SessionStore

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client signs in anonymously and serves bearer credentials.
type Client struct {
	apiKey     string
	baseURL    string
	tokenURL   string
	httpClient httpx.Doer
	sessions   identity.SessionStore
	logger     zerolog.Logger

	mu        sync.Mutex
	session   *identity.Session
	idToken   string
	expiresAt time.Time
}

// NewClient creates a new Identity Toolkit client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpx.NewClient(httpx.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		tokenURL:   tokenURL,
		httpClient: httpClient,
		sessions:   cfg.Sessions,
		logger:     cfg.Logger,
	}
}

// SignIn ensures an anonymous principal exists and returns its identifier.
// A persisted session is reused; otherwise a new anonymous account is
// created and the session saved.
func (c *Client) SignIn(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session.Principal, nil
	}

	sess, err := c.sessions.Load(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("could not load identity session, creating a new one")
	}
	if sess != nil {
		c.session = sess
		c.logger.Debug().Str("principal", sess.Principal).Msg("reusing persisted principal")
		return sess.Principal, nil
	}

	sess, err = c.signUpLocked(ctx)
	if err != nil {
		return "", err
	}
	return sess.Principal, nil
}

// CurrentPrincipal returns the signed-in principal, or "".
func (c *Client) CurrentPrincipal() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Principal
}

// CurrentCredential returns a bearer token, refreshing it when stale.
func (c *Client) CurrentCredential(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return "", identity.ErrNoCredential
	}
	if c.idToken != "" && time.Now().Before(c.expiresAt.Add(-expiryMargin)) {
		return c.idToken, nil
	}
	if err := c.refreshLocked(ctx); err != nil {
		return "", err
	}
	return c.idToken, nil
}

type signUpResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	ExpiresIn    string `json:"expiresIn"`
}

func (c *Client) signUpLocked(ctx context.Context) (*identity.Session, error) {
	body, err := json.Marshal(map[string]bool{"returnSecureToken": true})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/accounts:signUp?key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrNoPrincipal, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Msg("anonymous sign-up rejected")
		return nil, fmt.Errorf("%w: sign-up returned status %d", identity.ErrNoPrincipal, resp.StatusCode)
	}

	var signUp signUpResponse
	if err := json.Unmarshal(respBody, &signUp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if signUp.LocalID == "" {
		return nil, fmt.Errorf("%w: sign-up returned no principal", identity.ErrNoPrincipal)
	}

	sess := &identity.Session{
		Principal:    signUp.LocalID,
		RefreshToken: signUp.RefreshToken,
	}
	if err := c.sessions.Save(ctx, sess); err != nil {
		// The principal is still usable for this run; persistence is retried
		// implicitly on the next sign-up.
		c.logger.Warn().Err(err).Msg("could not persist identity session")
	}

	c.session = sess
	c.idToken = signUp.IDToken
	c.expiresAt = tokenExpiry(signUp.IDToken, signUp.ExpiresIn)

	c.logger.Info().Str("principal", sess.Principal).Msg("anonymous principal created")
	return sess, nil
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	ExpiresIn    string `json:"expires_in"`
}

func (c *Client) refreshLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.session.RefreshToken)

	endpoint := fmt.Sprintf("%s/v1/token?key=%s", c.tokenURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", identity.ErrNoCredential, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Msg("credential refresh rejected")
		return fmt.Errorf("%w: refresh returned status %d", identity.ErrNoCredential, resp.StatusCode)
	}

	var refreshed refreshResponse
	if err := json.Unmarshal(respBody, &refreshed); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if refreshed.IDToken == "" {
		return fmt.Errorf("%w: refresh returned no token", identity.ErrNoCredential)
	}

	c.idToken = refreshed.IDToken
	c.expiresAt = tokenExpiry(refreshed.IDToken, refreshed.ExpiresIn)

	// Refresh tokens rotate; persist the latest one.
	if refreshed.RefreshToken != "" && refreshed.RefreshToken != c.session.RefreshToken {
		c.session.RefreshToken = refreshed.RefreshToken
		if err := c.sessions.Save(ctx, c.session); err != nil {
			c.logger.Warn().Err(err).Msg("could not persist rotated refresh token")
		}
	}
	return nil
}

// tokenExpiry reads the exp claim without verifying the signature; the token
// is opaque to this client and only the lifetime matters. Falls back to the
// expiresIn field when the token is not parseable.
func tokenExpiry(idToken, expiresIn string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(idToken, claims); err == nil {
		if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
			return exp.Time
		}
	}

	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	return time.Now().Add(time.Duration(seconds) * time.Second)
}

var _ identity.Provider = (*Client)(nil)
