package oauthmodel_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestTokenSet_NeedsRefresh(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	skew := 5 * time.Minute

	require.False(t, oauthmodel.TokenSet{AccessToken: "a"}.NeedsRefresh(now, skew))
	require.False(t, oauthmodel.TokenSet{ExpiresAt: now.Add(6 * time.Minute)}.NeedsRefresh(now, skew))
	require.True(t, oauthmodel.TokenSet{ExpiresAt: now.Add(5 * time.Minute)}.NeedsRefresh(now, skew))
	require.True(t, oauthmodel.TokenSet{ExpiresAt: now.Add(-time.Hour)}.NeedsRefresh(now, skew))
}

func TestProfileFromClaims(t *testing.T) {
	t.Run("amazon profile", func(t *testing.T) {
		p, err := oauthmodel.ProfileFromClaims(map[string]any{
			"user_id": "amzn1.account.X",
			"name":    "Jane Seller",
			"email":   "jane@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, oauthmodel.IdentityProfile{ExternalUserID: "amzn1.account.X", DisplayName: "Jane Seller", Email: "jane@example.com"}, p)
	})

	t.Run("oidc userinfo", func(t *testing.T) {
		p, err := oauthmodel.ProfileFromClaims(map[string]any{"sub": "123", "email": "a@b.c"})
		require.NoError(t, err)
		require.Equal(t, "123", p.ExternalUserID)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := oauthmodel.ProfileFromClaims(map[string]any{"user_id": "x"})
		require.True(t, errors.Is(err, oauthmodel.ErrProfileMissingEmail))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := oauthmodel.ProfileFromClaims(map[string]any{"email": "a@b.c"})
		require.ErrorIs(t, err, oauthmodel.ErrProfileMissingUserID)
	})
}

func TestParseCallbackParameters(t *testing.T) {
	values := url.Values{
		"state":              {"s"},
		"code":               {"standard"},
		"spapi_oauth_code":   {"provider"},
		"selling_partner_id": {"SP1"},
	}
	p := oauthmodel.ParseCallbackParameters(values)
	require.Equal(t, "provider", p.Code)
	require.Equal(t, "SP1", p.SellingPartnerID)

	values.Del("spapi_oauth_code")
	require.Equal(t, "standard", oauthmodel.ParseCallbackParameters(values).Code)
}
