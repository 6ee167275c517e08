package resilience

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client in the circuit breaker and registry.
	Name string

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts.
	// Default: 2
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 200ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 2 seconds
	MaxInterval time.Duration

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Registry receives the client and its call outcomes (optional).
	Registry *Registry

	// Transport overrides the HTTP transport (optional).
	Transport http.RoundTripper

	// Logger for retries and breaker state changes.
	Logger zerolog.Logger
}

// DefaultClientConfig returns the defaults for a named provider client.
func DefaultClientConfig(name string) ClientConfig {
	cb := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		CircuitBreaker:  &cb,
	}
}

// Client is an HTTP client with circuit breaker and retry logic.
type Client struct {
	name           string
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	registry       *Registry
	logger         zerolog.Logger

	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewClient creates a resilient HTTP client and registers it with
// cfg.Registry when one is set.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 2 * time.Second
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: cfg.Transport,
	}

	c := &Client{
		name:            cfg.Name,
		httpClient:      httpClient,
		circuitBreaker:  NewCircuitBreaker[*http.Response](cbConfig, cfg.Logger),
		registry:        cfg.Registry,
		logger:          cfg.Logger,
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
	}

	if c.registry != nil {
		c.registry.Register(c.name, c)
	}
	return c
}

// Name returns the client's provider name.
func (c *Client) Name() string {
	return c.name
}

// Do executes an HTTP request with circuit breaker protection and retries.
// Network errors, 429 and 5xx responses are retried with exponential
// backoff; when retries run out the last response is returned to the caller.
// Returns ErrCircuitOpen without calling the server if the breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = c.maxInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)

	var lastResp *http.Response
	keep := func(resp *http.Response) {
		if lastResp != nil && lastResp != resp {
			drain(lastResp)
		}
		lastResp = resp
	}

	attempt := 0
	operation := func() error {
		attempt++
		resp, err := c.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			attemptReq, err := rewind(req)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			r, err := c.httpClient.Do(attemptReq)
			if err != nil {
				return nil, err
			}
			if retryable(r.StatusCode) {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				keep(resp)
			}
			c.logger.Debug().Err(err).
				Str("provider", c.name).
				Int("attempt", attempt).
				Msg("provider request failed")
			return err
		}

		keep(resp)
		return nil
	}

	err := backoff.Retry(operation, policy)
	switch {
	case err == nil:
		c.record(nil)
		return lastResp, nil
	case lastResp != nil:
		c.record(&ServerError{StatusCode: lastResp.StatusCode})
		return lastResp, nil
	default:
		c.record(err)
		return nil, err
	}
}

func (c *Client) record(err error) {
	if c.registry == nil {
		return
	}
	if err != nil {
		c.registry.RecordFailure(c.name, err)
		return
	}
	c.registry.RecordSuccess(c.name)
}

// rewind returns a copy of req with a fresh body so it can be resent.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewinding request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best effort
	resp.Body.Close()
}

// ServerError is a retryable HTTP status (429 or 5xx).
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.circuitBreaker.Counts()
}
