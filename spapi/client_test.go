package spapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-listing-server/internal/config"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/spapi"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	valid   bool
	ensured int
}

func (f *fakeTokens) EnsureValidToken(context.Context) bool {
	f.ensured++
	return f.valid
}

func (f *fakeTokens) AccessToken() string { return "Atza|access" }

func TestEndpoint(t *testing.T) {
	require.Equal(t, "https://sellingpartnerapi-na.amazon.com", spapi.Endpoint("na", false))
	require.Equal(t, "https://sellingpartnerapi-eu.amazon.com", spapi.Endpoint("EU", false))
	require.Equal(t, "https://sandbox.sellingpartnerapi-fe.amazon.com", spapi.Endpoint("fe", true))
	require.Equal(t, "https://sellingpartnerapi-na.amazon.com", spapi.Endpoint("mars", false))
}

func newServer(t *testing.T, handler http.HandlerFunc) *config.Settings {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &config.Settings{SPAPIEndpoint: srv.URL, OutboundTimeout: 2 * time.Second}
}

func TestClient_CallAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("not initialized", func(t *testing.T) {
		c := spapi.NewClient(&config.Settings{}, nil)
		err := c.CallAPI(ctx, spapi.GetMarketplaceParticipations, spapi.Params{}, nil)
		require.ErrorIs(t, err, liberrors.ErrNotInitialized)
	})

	t.Run("stale token aborts before calling", func(t *testing.T) {
		called := false
		cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })
		tokens := &fakeTokens{valid: false}

		err := spapi.NewClient(cfg, tokens).CallAPI(ctx, spapi.GetMarketplaceParticipations, spapi.Params{}, nil)
		require.ErrorIs(t, err, liberrors.ErrInvalidCredentials)
		require.False(t, called)
		require.Equal(t, 1, tokens.ensured)
	})

	t.Run("path and query parameters", func(t *testing.T) {
		var got *http.Request
		cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			got = r
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"productType":"SHOES"}`))
		})

		var out struct {
			ProductType string `json:"productType"`
		}
		err := spapi.NewClient(cfg, &fakeTokens{valid: true}).CallAPI(ctx, spapi.GetDefinitionsProductType, spapi.Params{
			Path:  map[string]string{"productType": "SHOES"},
			Query: url.Values{"marketplaceIds": {"ATVPDKIKX0DER"}},
		}, &out)
		require.NoError(t, err)
		require.Equal(t, "SHOES", out.ProductType)
		require.Equal(t, "/definitions/2020-09-01/productTypes/SHOES", got.URL.Path)
		require.Equal(t, "ATVPDKIKX0DER", got.URL.Query().Get("marketplaceIds"))
		require.Equal(t, "Atza|access", got.Header.Get("x-amz-access-token"))
	})

	t.Run("unresolved path parameter", func(t *testing.T) {
		cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
		err := spapi.NewClient(cfg, &fakeTokens{valid: true}).CallAPI(ctx, spapi.GetListingsItem, spapi.Params{}, nil)
		require.Error(t, err)
	})

	t.Run("api error", func(t *testing.T) {
		cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":[{"code":"Unauthorized","message":"Access to requested resource is denied."}]}`))
		})
		err := spapi.NewClient(cfg, &fakeTokens{valid: true}).CallAPI(ctx, spapi.GetMarketplaceParticipations, spapi.Params{}, nil)
		require.ErrorIs(t, err, liberrors.ErrInvalidCredentials)

		var apiErr *spapi.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "Unauthorized", apiErr.Errors[0].Code)
	})
}

func TestClient_ValidateCredentials(t *testing.T) {
	cfg := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sellers/v1/marketplaceParticipations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payload":[{"marketplace":{"id":"ATVPDKIKX0DER","name":"Amazon.com"},"participation":{"isParticipating":true}}]}`))
	})

	c := spapi.NewClient(cfg, &fakeTokens{valid: true})
	require.NoError(t, c.ValidateCredentials(context.Background()))

	participations, err := c.MarketplaceParticipations(context.Background())
	require.NoError(t, err)
	require.Len(t, participations, 1)
	require.Equal(t, "ATVPDKIKX0DER", participations[0].Marketplace.ID)
}
