package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// DefaultSkew is how long before expiry an access token is treated as stale.
const DefaultSkew = 5 * time.Minute

// Refresher exchanges a refresh token for a fresh token set.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (oauthmodel.TokenSet, error)
}

// ResponseBodyError is implemented by provider errors that carry the raw
// response body for server-side diagnostics.
type ResponseBodyError interface {
	ResponseBody() string
}

// Hook is called after every successful refresh.
type Hook func(ctx context.Context, tokens oauthmodel.TokenSet)

// Accessor hands out a currently valid access token for one session,
// refreshing it before expiry.
type Accessor struct {
	mu        sync.Mutex
	tokens    oauthmodel.TokenSet
	refresher Refresher
	skew      time.Duration
	onRefresh Hook
}

type AccessorOption func(*Accessor)

func WithSkew(skew time.Duration) AccessorOption {
	return func(a *Accessor) {
		a.skew = skew
	}
}

// WithRefreshHook registers fn to persist or propagate refreshed tokens.
func WithRefreshHook(fn Hook) AccessorOption {
	return func(a *Accessor) {
		a.onRefresh = fn
	}
}

// NewAccessor creates an accessor seeded with the session's token set
func NewAccessor(tokens oauthmodel.TokenSet, refresher Refresher, options ...AccessorOption) *Accessor {
	a := &Accessor{
		tokens:    tokens,
		refresher: refresher,
		skew:      DefaultSkew,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Tokens returns a snapshot of the held token set
func (a *Accessor) Tokens() oauthmodel.TokenSet {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokens
}

// AccessToken returns the held access token without checking expiry
func (a *Accessor) AccessToken() string {
	return a.Tokens().AccessToken
}

// EnsureValidToken refreshes the access token when it is within the skew of
// its expiry and reports whether a usable token is held afterwards.
func (a *Accessor) EnsureValidToken(ctx context.Context) bool {
	tokens := a.Tokens()
	if !tokens.NeedsRefresh(NowTimeFunc(), a.skew) {
		return tokens.AccessToken != ""
	}

	accessToken, err := a.RefreshAccessToken(ctx)
	if err != nil {
		return false
	}
	return accessToken != ""
}

// RefreshAccessToken exchanges the refresh token for a new access token. On
// failure the previously held tokens are left untouched.
func (a *Accessor) RefreshAccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.tokens.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token", liberrors.ErrTokenRefreshFailed)
	}
	if a.refresher == nil {
		return "", liberrors.ErrNotInitialized
	}

	fresh, err := a.refresher.Refresh(ctx, a.tokens.RefreshToken)
	if err != nil {
		event := log.Warn().Err(err)
		var bodyErr ResponseBodyError
		if liberrors.As(err, &bodyErr) {
			event = event.Str("provider_body", bodyErr.ResponseBody())
		}
		event.Msg("access token refresh failed")
		return "", fmt.Errorf("%w: %w", liberrors.ErrTokenRefreshFailed, err)
	}
	if fresh.AccessToken == "" {
		return "", fmt.Errorf("%w: provider returned no access token", liberrors.ErrTokenRefreshFailed)
	}

	// Login with Amazon does not rotate refresh tokens
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = a.tokens.RefreshToken
	}
	if fresh.TokenType == "" {
		fresh.TokenType = a.tokens.TokenType
	}
	if fresh.Scope == "" {
		fresh.Scope = a.tokens.Scope
	}
	a.tokens = fresh

	log.Debug().Time("expires_at", fresh.ExpiresAt).Msg("access token refreshed")

	if a.onRefresh != nil {
		a.onRefresh(ctx, fresh)
	}
	return fresh.AccessToken, nil
}
