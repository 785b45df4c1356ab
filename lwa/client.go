// Package lwa talks to Login with Amazon: the Seller Central consent page, the
// token endpoint and the user profile endpoint.
package lwa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-listing-server/internal/config"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Config is the subset of configuration the client needs.
type Config interface {
	config.OAuthConfig
	config.ProviderConfig
}

// Client performs the provider side of the authorization-code flow.
type Client struct {
	oauth         *oauth2.Config
	consentURL    string
	applicationID string
	draft         bool
	profileURL    string
	httpClient    *http.Client
	nowFunc       func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the outbound client. Tests use it with httptest servers.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// WithEndpoints overrides the token and profile endpoints, e.g. with the
// result of Discover.
func WithEndpoints(e Endpoints) Option {
	return func(c *Client) {
		if e.TokenURL != "" {
			c.oauth.Endpoint.TokenURL = e.TokenURL
		}
		if e.ProfileURL != "" {
			c.profileURL = e.ProfileURL
		}
	}
}

func NewClient(cfg Config, options ...Option) *Client {
	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.GetClientID(),
			ClientSecret: cfg.GetClientSecret(),
			RedirectURL:  cfg.GetRedirectURI(),
			Scopes:       []string{cfg.GetScope()},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.GetConsentURL(),
				TokenURL:  cfg.GetTokenURL(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		consentURL:    cfg.GetConsentURL(),
		applicationID: cfg.GetApplicationID(),
		draft:         cfg.IsDraftApplication(),
		profileURL:    cfg.GetProfileURL(),
		httpClient:    &http.Client{Timeout: cfg.GetOutboundTimeout()},
		nowFunc:       time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// TokenURL is the token endpoint in use.
func (c *Client) TokenURL() string {
	return c.oauth.Endpoint.TokenURL
}

// ConsentURL builds the Seller Central authorization URL carrying state.
// Draft applications get version=beta.
func (c *Client) ConsentURL(state string) string {
	q := url.Values{}
	q.Set("application_id", c.applicationID)
	q.Set("redirect_uri", c.oauth.RedirectURL)
	q.Set("state", state)
	if c.draft {
		q.Set("version", "beta")
	}

	sep := "?"
	if strings.Contains(c.consentURL, "?") {
		sep = "&"
	}
	return c.consentURL + sep + q.Encode()
}

func (c *Client) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Exchange trades an authorization code for a token set.
func (c *Client) Exchange(ctx context.Context, code string) (oauthmodel.TokenSet, error) {
	tok, err := c.oauth.Exchange(c.context(ctx), code)
	if err != nil {
		return oauthmodel.TokenSet{}, fromOAuth2Error(liberrors.ErrTokenExchangeFailed, err)
	}
	log.Debug().Bool("has_refresh_token", tok.RefreshToken != "").Msg("authorization code exchanged")
	return c.toTokenSet(tok), nil
}

// Refresh trades a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (oauthmodel.TokenSet, error) {
	src := c.oauth.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return oauthmodel.TokenSet{}, fromOAuth2Error(liberrors.ErrTokenRefreshFailed, err)
	}
	return c.toTokenSet(tok), nil
}

func (c *Client) toTokenSet(tok *oauth2.Token) oauthmodel.TokenSet {
	ts := oauthmodel.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		TokenType:    oauthmodel.BearerTokenType,
		Scope:        strings.Join(c.oauth.Scopes, " "),
	}
	if tok.ExpiresIn > 0 {
		ts.ExpiresAt = c.nowFunc().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		ts.Scope = scope
	}
	return ts
}

// FetchProfile reads the identity profile with the access token as bearer.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (oauthmodel.IdentityProfile, error) {
	hc := oauth2.NewClient(c.context(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   oauthmodel.BearerTokenType,
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return oauthmodel.IdentityProfile{}, fmt.Errorf("%w: %w", liberrors.ErrProfileFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return oauthmodel.IdentityProfile{}, fmt.Errorf("%w: %w", liberrors.ErrProfileFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return oauthmodel.IdentityProfile{}, fmt.Errorf("%w: read body: %w", liberrors.ErrProfileFetchFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return oauthmodel.IdentityProfile{}, newProviderError(liberrors.ErrProfileFetchFailed, resp.StatusCode, body)
	}

	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return oauthmodel.IdentityProfile{}, fmt.Errorf("%w: decode: %w", liberrors.ErrProfileFetchFailed, err)
	}
	profile, err := oauthmodel.ProfileFromClaims(claims)
	if err != nil {
		return oauthmodel.IdentityProfile{}, fmt.Errorf("%w: %w", liberrors.ErrProfileFetchFailed, err)
	}
	return profile, nil
}

// ProbeTokenEndpoint posts a deliberately invalid code and returns the HTTP
// status. A reachable, correctly configured endpoint answers 400.
func (c *Client) ProbeTokenEndpoint(ctx context.Context) (int, error) {
	form := url.Values{
		"grant_type":    {string(oauthmodel.AuthorizationCodeGrant)},
		"code":          {"health_check_probe"},
		"redirect_uri":  {c.oauth.RedirectURL},
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", liberrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
