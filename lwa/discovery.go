package lwa

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Endpoints are the provider URLs resolved from discovery.
type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
}

// Discover reads the OpenID configuration of issuer. It is used when the
// deployment points at an OIDC compatible identity provider instead of the
// fixed Login with Amazon endpoints.
func Discover(ctx context.Context, issuer string, hc *http.Client) (Endpoints, error) {
	if hc != nil {
		ctx = oidc.ClientContext(ctx, hc)
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return Endpoints{}, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	var meta struct {
		UserinfoEndpoint string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&meta); err != nil {
		return Endpoints{}, fmt.Errorf("failed to read provider metadata: %w", err)
	}

	endpoint := provider.Endpoint()
	return Endpoints{
		AuthURL:    endpoint.AuthURL,
		TokenURL:   endpoint.TokenURL,
		ProfileURL: meta.UserinfoEndpoint,
	}, nil
}
