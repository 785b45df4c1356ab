package oauthmodel

// GrantType represents the OAuth 2.0 grant type used at the provider token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges the one-time consent code for tokens.
	// Token request includes: code, redirect_uri, client_id, client_secret
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a stored refresh token for a new access token.
	// Token request includes: refresh_token, client_id, client_secret
	RefreshTokenGrant GrantType = "refresh_token"
)

// ProviderAmazon is the provider key stored on Account rows.
const ProviderAmazon = "amazon"

// AccountTypeOAuth marks accounts that hold delegated OAuth credentials.
const AccountTypeOAuth = "oauth"

// BearerTokenType is the token type persisted alongside every TokenSet.
const BearerTokenType = "Bearer"
