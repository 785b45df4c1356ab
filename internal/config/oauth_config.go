package config

import "time"

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetApplicationID() string
	IsDraftApplication() bool
	GetScope() string
	GetDefaultCallbackPath() string
	GetStateTokenExpiry() time.Duration
	GetSessionMaxAge() time.Duration
	GetRefreshSkew() time.Duration
	GetOutboundTimeout() time.Duration
}

type ProviderConfig interface {
	GetConsentURL() string
	GetTokenURL() string
	GetProfileURL() string
	GetOIDCIssuer() string
	GetMarketplaceID() string
	GetRegion() string
	UseSandbox() bool
	GetSPAPIEndpoint() string
}

var (
	_ OAuthConfig    = (*Settings)(nil)
	_ ProviderConfig = (*Settings)(nil)
)

func (s *Settings) GetClientID() string {
	return s.ClientID
}

func (s *Settings) GetClientSecret() string {
	return s.ClientSecret
}

func (s *Settings) GetRedirectURI() string {
	return s.RedirectURI
}

func (s *Settings) GetApplicationID() string {
	return s.ApplicationID
}

// IsDraftApplication reports whether the marketplace app is unpublished, in which
// case the consent URL carries version=beta.
func (s *Settings) IsDraftApplication() bool {
	return s.AppIsDraft
}

func (s *Settings) GetScope() string {
	return "profile"
}

func (s *Settings) GetDefaultCallbackPath() string {
	if s.DefaultCallbackPath == "" {
		return "/amazon-listing"
	}
	return s.DefaultCallbackPath
}

func (s *Settings) GetStateTokenExpiry() time.Duration {
	return 10 * time.Minute
}

func (s *Settings) GetSessionMaxAge() time.Duration {
	return 30 * 24 * time.Hour // 30 days
}

func (s *Settings) GetRefreshSkew() time.Duration {
	return 5 * time.Minute
}

func (s *Settings) GetOutboundTimeout() time.Duration {
	if s.OutboundTimeout <= 0 {
		return 10 * time.Second
	}
	return s.OutboundTimeout
}

func (s *Settings) GetConsentURL() string {
	return s.ConsentURL
}

func (s *Settings) GetTokenURL() string {
	return s.TokenURL
}

func (s *Settings) GetProfileURL() string {
	return s.ProfileURL
}

func (s *Settings) GetOIDCIssuer() string {
	return s.OIDCIssuer
}

func (s *Settings) GetMarketplaceID() string {
	return s.MarketplaceID
}

func (s *Settings) GetRegion() string {
	if s.Region == "" {
		return "na"
	}
	return s.Region
}

func (s *Settings) UseSandbox() bool {
	return s.Sandbox
}

func (s *Settings) GetSPAPIEndpoint() string {
	return s.SPAPIEndpoint
}
