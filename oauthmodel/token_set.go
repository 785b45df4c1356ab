package oauthmodel

import "time"

// TokenSet is the access/refresh token pair obtained from the provider.
type TokenSet struct {
	// AccessToken authorizes marketplace API calls.
	// Lifespan: about one hour for Login with Amazon
	AccessToken string `json:"accessToken"`

	// RefreshToken is long-lived and is the durable refresh capability.
	// May be empty when the provider does not issue one.
	RefreshToken string `json:"refreshToken,omitempty"`

	// ExpiresAt is the absolute expiry of AccessToken.
	// Zero means the provider did not report an expiry.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`

	TokenType string `json:"tokenType,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// HasExpiry reports whether the provider supplied an expiry for the access token.
func (t TokenSet) HasExpiry() bool {
	return !t.ExpiresAt.IsZero()
}

// NeedsRefresh reports whether the access token must be refreshed before use,
// i.e. now >= ExpiresAt - skew. Tokens without an expiry never need refresh.
func (t TokenSet) NeedsRefresh(now time.Time, skew time.Duration) bool {
	if !t.HasExpiry() {
		return false
	}
	return !now.Before(t.ExpiresAt.Add(-skew))
}
