package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
)

// StateData is carried through the provider consent redirect.
type StateData struct {
	SellerID            string
	OriginalRedirectURI string
	Timestamp           time.Time
	Nonce               string
}

// SessionData is the payload of the session cookie.
type SessionData struct {
	UserID            string
	Email             string
	SellerID          string
	ProviderAccountID string
	Tokens            oauthmodel.TokenSet
	ExpiresAt         time.Time
}

// Manager issues and verifies the two signed artifacts of the login flow:
// short-lived state tokens and long-lived session credentials.
type Manager struct {
	stateSigner   Signer
	sessionSigner Signer
	issuer        string
	stateExpiry   time.Duration
	sessionExpiry time.Duration
	nowFunc       func() time.Time
}

type ManagerOption func(*Manager)

func WithExpiry(stateExpiry, sessionExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.stateExpiry = stateExpiry
		m.sessionExpiry = sessionExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func New(stateSigner, sessionSigner Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		stateSigner:   stateSigner,
		sessionSigner: sessionSigner,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.stateExpiry == 0 {
		m.stateExpiry = 10 * time.Minute
	}
	if m.sessionExpiry == 0 {
		m.sessionExpiry = 30 * 24 * time.Hour
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// SessionExpiry is the lifetime of minted session credentials.
func (m *Manager) SessionExpiry() time.Duration {
	return m.sessionExpiry
}

// IssueState signs a state token. Timestamp and Nonce are filled in when empty.
func (m *Manager) IssueState(data StateData) (string, error) {
	now := m.nowFunc()
	if data.Timestamp.IsZero() {
		data.Timestamp = now
	}
	if data.Nonce == "" {
		data.Nonce = uuid.NewString()
	}

	claims := jwt.MapClaims{
		claimUse:       useState,
		claimSellerID:  data.SellerID,
		claimTimestamp: data.Timestamp.UnixMilli(),
		claimNonce:     data.Nonce,
		"iat":          now.Unix(),
		"exp":          now.Add(m.stateExpiry).Unix(),
	}
	if data.OriginalRedirectURI != "" {
		claims[claimRedirectURI] = data.OriginalRedirectURI
	}
	if m.issuer != "" {
		claims["iss"] = m.issuer
	}
	return m.stateSigner.Sign(claims)
}

// VerifyState checks signature and expiry of a state token. Every failure
// wraps ErrStateInvalid.
func (m *Manager) VerifyState(raw string) (*StateData, error) {
	claims, err := m.parse(raw, m.stateSigner, useState)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", liberrors.ErrStateInvalid, err)
	}
	return &StateData{
		SellerID:            claimString(claims, claimSellerID),
		OriginalRedirectURI: claimString(claims, claimRedirectURI),
		Timestamp:           claimUnixMilli(claims, claimTimestamp),
		Nonce:               claimString(claims, claimNonce),
	}, nil
}

// MintSession signs a session credential valid for the session expiry.
func (m *Manager) MintSession(data SessionData) (string, error) {
	now := m.nowFunc()
	claims := jwt.MapClaims{
		claimUse:               useSession,
		"sub":                  data.UserID,
		claimEmail:             data.Email,
		claimSellerID:          data.SellerID,
		claimProviderAccountID: data.ProviderAccountID,
		claimAccessToken:       data.Tokens.AccessToken,
		claimRefreshToken:      data.Tokens.RefreshToken,
		"iat":                  now.Unix(),
		"exp":                  now.Add(m.sessionExpiry).Unix(),
		"jti":                  uuid.NewString(),
	}
	if data.Tokens.HasExpiry() {
		claims[claimTokenExpiresAt] = data.Tokens.ExpiresAt.UnixMilli()
	}
	if m.issuer != "" {
		claims["iss"] = m.issuer
	}

	signed, err := m.sessionSigner.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("%w: %w", liberrors.ErrSessionMintFailed, err)
	}
	return signed, nil
}

// ParseSession verifies a session credential. Expired credentials return
// ErrSessionExpired; any other failure, including a rotated secret, returns
// ErrInvalidToken.
func (m *Manager) ParseSession(raw string) (*SessionData, error) {
	claims, err := m.parse(raw, m.sessionSigner, useSession)
	if err != nil {
		if liberrors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", liberrors.ErrSessionExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", liberrors.ErrInvalidToken, err)
	}

	data := &SessionData{
		UserID:            claimString(claims, "sub"),
		Email:             claimString(claims, claimEmail),
		SellerID:          claimString(claims, claimSellerID),
		ProviderAccountID: claimString(claims, claimProviderAccountID),
		Tokens: oauthmodel.TokenSet{
			AccessToken:  claimString(claims, claimAccessToken),
			RefreshToken: claimString(claims, claimRefreshToken),
			ExpiresAt:    claimUnixMilli(claims, claimTokenExpiresAt),
			TokenType:    oauthmodel.BearerTokenType,
		},
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		data.ExpiresAt = exp.Time
	}
	return data, nil
}

func (m *Manager) parse(raw string, signer Signer, use string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, signer.GetVerificationKey, opts...); err != nil {
		return nil, err
	}
	if claimString(claims, claimUse) != use {
		return nil, fmt.Errorf("token is not a %s token", use)
	}
	return claims, nil
}
