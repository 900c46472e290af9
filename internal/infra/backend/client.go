// Package backend is the HTTP client for the FlixGo backend API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"flixgo-client/internal/domain"
	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/domain/ports/repository"
	"flixgo-client/internal/infra/metrics"
)

// Envelope is the backend's response wrapper.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DecodeData unmarshals the envelope payload into out.
func (e *Envelope) DecodeData(out any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, out)
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend http %d", e.Status)
	}
	return fmt.Sprintf("backend http %d: %s", e.Status, e.Message)
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second; 0 disables throttling
	Burst     int
}

// Client sends JSON requests with the stored bearer token. A 401 answer (or
// an expired token) signs the user out: the store is cleared and the
// navigator is sent to the login view.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	tokens  *TokenSource
	store   repository.KeyValueStore
	nav     adapter.Navigator
	log     *zerolog.Logger
}

func NewClient(opts Options, store repository.KeyValueStore, nav adapter.Navigator, logger *zerolog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend base url empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	l := logger.With().Str("component", "BackendClient").Logger()
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, opts.Burst),
		tokens:  NewTokenSource(store),
		store:   store,
		nav:     nav,
		log:     &l,
	}, nil
}

// Call performs method on endpoint with in as JSON body (nil for none) and
// returns the decoded envelope. Endpoints that answer with a bare JSON array
// are wrapped into a successful envelope.
func (c *Client) Call(ctx context.Context, method, endpoint string, in any) (*Envelope, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			c.signOut(ctx)
		}
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", endpoint, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.IncBackendCall(endpoint, "error")
		return nil, err
	}
	defer resp.Body.Close()
	metrics.IncBackendCall(endpoint, fmt.Sprintf("%dxx", resp.StatusCode/100))
	c.log.Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend_call")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.signOut(ctx)
		return nil, fmt.Errorf("%w: backend answered 401", domain.ErrUnauthenticated)
	}

	env, decErr := decodeEnvelope(raw)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decErr == nil {
			apiErr.Message = env.Message
		}
		return nil, apiErr
	}
	if decErr != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, decErr)
	}
	return env, nil
}

func decodeEnvelope(raw []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return &Envelope{Success: true, Data: json.RawMessage(trimmed)}, nil
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *Client) signOut(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error().Err(err).Msg("clear store on sign-out")
	}
	c.log.Warn().Msg("session expired; redirecting to login")
	if c.nav != nil {
		c.nav.Navigate(ctx, LoginPath)
	}
}
