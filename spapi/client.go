// Package spapi is a thin Selling Partner API caller. Every call first makes
// sure the session holds a valid access token.
package spapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/rs/zerolog/log"
)

// TokenSource supplies a currently valid access token.
type TokenSource interface {
	EnsureValidToken(ctx context.Context) bool
	AccessToken() string
}

// Config is the subset of configuration the client needs.
type Config interface {
	GetRegion() string
	UseSandbox() bool
	GetSPAPIEndpoint() string
	GetOutboundTimeout() time.Duration
}

// APIError is a non-2xx SP-API response.
type APIError struct {
	Operation  string
	StatusCode int
	Errors     []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s: %d %s: %s", e.Operation, e.StatusCode, e.Errors[0].Code, e.Errors[0].Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Operation, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client calls SP-API on behalf of one session.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(cfg Config, tokens TokenSource, options ...Option) *Client {
	baseURL := cfg.GetSPAPIEndpoint()
	if baseURL == "" {
		baseURL = Endpoint(cfg.GetRegion(), cfg.UseSandbox())
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.GetOutboundTimeout()},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// BaseURL is the SP-API host in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CallAPI performs op and decodes the JSON response into out when out is non-nil.
func (c *Client) CallAPI(ctx context.Context, op Operation, params Params, out any) error {
	if c == nil || c.tokens == nil {
		return liberrors.ErrNotInitialized
	}
	if !c.tokens.EnsureValidToken(ctx) {
		return fmt.Errorf("%s: %w: no valid access token", op.Name, liberrors.ErrInvalidCredentials)
	}

	path, err := op.resolve(params)
	if err != nil {
		return err
	}

	var body io.Reader
	if params.Body != nil {
		raw, err := json.Marshal(params.Body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op.Name, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name, err)
	}
	req.Header.Set("x-amz-access-token", c.tokens.AccessToken())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op.Name, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("operation", op.Name).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("sp-api call")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", op.Name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Operation: op.Name, StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %w", liberrors.ErrInvalidCredentials, apiErr)
		}
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op.Name, err)
		}
	}
	return nil
}

// MarketplaceParticipation is one entry of getMarketplaceParticipations.
type MarketplaceParticipation struct {
	Marketplace struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		CountryCode  string `json:"countryCode"`
		CurrencyCode string `json:"defaultCurrencyCode"`
	} `json:"marketplace"`
	Participation struct {
		IsParticipating      bool `json:"isParticipating"`
		HasSuspendedListings bool `json:"hasSuspendedListings"`
	} `json:"participation"`
}

// MarketplaceParticipations lists the marketplaces the seller participates in.
func (c *Client) MarketplaceParticipations(ctx context.Context) ([]MarketplaceParticipation, error) {
	var resp struct {
		Payload []MarketplaceParticipation `json:"payload"`
	}
	if err := c.CallAPI(ctx, GetMarketplaceParticipations, Params{}, &resp); err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// ValidateCredentials checks that the session can call SP-API. A nil error
// means the credentials work.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	participations, err := c.MarketplaceParticipations(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("sp-api credential validation failed")
		return err
	}
	log.Info().Int("participations", len(participations)).Msg("sp-api credentials validated")
	return nil
}
