package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Doer is the interface for executing HTTP requests. Both *http.Client and
// *Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming.
	Name string

	// Timeout is the flat per-request timeout for individual HTTP calls.
	// Default: 30 seconds (matches the backend's connect/read/write ceiling).
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 3. Set Retry to false to disable retries entirely.
	MaxRetries uint64

	// Retry enables retry with exponential backoff on transient failures.
	Retry bool

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// Breaker is the circuit breaker configuration.
	// If nil, uses DefaultBreakerConfig.
	Breaker *BreakerConfig

	// Transport is the underlying round tripper (optional). Lets callers
	// install outbound decorators such as bearer-credential injection.
	Transport http.RoundTripper
}

// DefaultClientConfig returns defaults for a retrying client. Suitable for
// idempotent calls (device registration, location updates).
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		Retry:           true,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Breaker:         &cb,
	}
}

// SingleAttemptConfig returns a config that never retries. Used for calls
// that are not safely repeatable without server-side dedup.
func SingleAttemptConfig(name string) ClientConfig {
	cfg := DefaultClientConfig(name)
	cfg.Retry = false
	cfg.MaxRetries = 0
	return cfg
}

// Client is a resilient HTTP client with circuit breaker and retry logic.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry && cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	var cb *gobreaker.CircuitBreaker[*http.Response]
	if cfg.Breaker != nil {
		cb = newBreaker[*http.Response](*cfg.Breaker)
	} else {
		cb = newBreaker[*http.Response](DefaultBreakerConfig(cfg.Name))
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		breaker: cb,
		config:  cfg,
	}
}

// Do executes an HTTP request with circuit breaker protection. When retries
// are enabled, transient failures (5xx, network errors) are retried with
// exponential backoff. Returns ErrCircuitOpen immediately when the breaker
// is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	var bo backoff.BackOff
	if c.config.Retry {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = c.config.InitialInterval
		eb.MaxInterval = c.config.MaxInterval
		eb.MaxElapsedTime = 0 // retries are bounded by MaxRetries, not time
		bo = backoff.WithMaxRetries(eb, c.config.MaxRetries)
	} else {
		bo = &backoff.StopBackOff{}
	}
	bo = backoff.WithContext(bo, ctx)

	var lastResp *http.Response

	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			reqClone := req.Clone(ctx)
			r, doErr := c.httpClient.Do(reqClone)
			if doErr != nil {
				return nil, doErr
			}
			// 5xx counts as a failure so the breaker sees backend outages.
			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				lastResp = resp
			}
			return err
		}

		lastResp = resp
		return nil
	}

	err := backoff.Retry(operation, bo)
	if err != nil {
		// A 5xx that exhausted retries still carries a usable response;
		// hand it to the caller so the status code can be reported.
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	return lastResp, nil
}

// ServerError represents an HTTP 5xx server error.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}

// BreakerState returns the current state of the circuit breaker.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

var _ Doer = (*Client)(nil)
