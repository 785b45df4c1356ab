package auth_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-listing-server/accounts"
	fakeaccountrepo "github.com/jrsteele09/go-listing-server/accounts/repofake"
	"github.com/jrsteele09/go-listing-server/auth"
	"github.com/jrsteele09/go-listing-server/internal/config"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/jrsteele09/go-listing-server/storage"
	"github.com/jrsteele09/go-listing-server/token"
	fakeuserrepo "github.com/jrsteele09/go-listing-server/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testStateSecret   = "state-secret"
	testSessionSecret = "session-secret"
	testSellerID      = "A2EUQ1WTGCTBG2"
	testPartnerID     = "SP-PARTNER-1"
	testUserEmail     = "jane@example.com"
	testProviderUser  = "amzn1.account.X"
	testConsentURL    = "https://sellercentral.example.com/consent"
)

type fakeProvider struct {
	exchangeCalls int
	profileCalls  int
	refreshCalls  int
	lastCode      string
	tokens        oauthmodel.TokenSet
	profile       oauthmodel.IdentityProfile
	exchangeErr   error
	profileErr    error
}

func (f *fakeProvider) ConsentURL(state string) string {
	return testConsentURL + "?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) Exchange(_ context.Context, code string) (oauthmodel.TokenSet, error) {
	f.exchangeCalls++
	f.lastCode = code
	if f.exchangeErr != nil {
		return oauthmodel.TokenSet{}, f.exchangeErr
	}
	return f.tokens, nil
}

func (f *fakeProvider) Refresh(_ context.Context, _ string) (oauthmodel.TokenSet, error) {
	f.refreshCalls++
	return oauthmodel.TokenSet{AccessToken: "refreshed", ExpiresAt: f.tokens.ExpiresAt.Add(time.Hour)}, nil
}

func (f *fakeProvider) FetchProfile(_ context.Context, _ string) (oauthmodel.IdentityProfile, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return oauthmodel.IdentityProfile{}, f.profileErr
	}
	return f.profile, nil
}

type describedErr struct{}

func (describedErr) Error() string               { return "token exchange failed: invalid_grant" }
func (describedErr) ProviderDescription() string { return "The authorization code is invalid" }

// fakeTransactor runs fn against the fakes and records whether it was used
type fakeTransactor struct {
	repos storage.Repos
	calls int
}

func (f *fakeTransactor) InTx(_ context.Context, fn func(storage.Repos) error) error {
	f.calls++
	return fn(f.repos)
}

// testFixture holds all test dependencies
type testFixture struct {
	now         time.Time
	userRepo    *fakeuserrepo.FakeUserRepo
	accountRepo *fakeaccountrepo.FakeAccountRepo
	provider    *fakeProvider
	tokens      *token.Manager
	settings    *config.Settings
	service     *auth.AuthorizationService
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T, options ...auth.AuthorizationServiceOption) *testFixture {
	t.Helper()

	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	nowFunc := func() time.Time { return now }

	f := &testFixture{
		now:         now,
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		accountRepo: fakeaccountrepo.NewFakeAccountRepo(),
		provider: &fakeProvider{
			tokens: oauthmodel.TokenSet{
				AccessToken:  "Atza|access",
				RefreshToken: "Atzr|refresh",
				ExpiresAt:    now.Add(time.Hour),
				TokenType:    "Bearer",
			},
			profile: oauthmodel.IdentityProfile{
				ExternalUserID: testProviderUser,
				DisplayName:    "Jane Seller",
				Email:          testUserEmail,
			},
		},
		tokens: token.New(token.NewHMACSigner(testStateSecret), token.NewHMACSigner(testSessionSecret), token.WithNowFunc(nowFunc)),
		settings: &config.Settings{
			DefaultCallbackPath: "/amazon-listing",
			MarketplaceID:       "ATVPDKIKX0DER",
			Region:              "na",
		},
	}

	options = append([]auth.AuthorizationServiceOption{auth.WithNowTime(nowFunc)}, options...)
	service, err := auth.NewAuthorizationService(
		f.provider,
		f.tokens,
		storage.Repos{Users: f.userRepo, Accounts: f.accountRepo},
		f.settings,
		options...,
	)
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *testFixture) signedState(t *testing.T, redirect string) string {
	t.Helper()
	state, err := f.tokens.IssueState(token.StateData{SellerID: testSellerID, OriginalRedirectURI: redirect})
	require.NoError(t, err)
	return state
}

func requireCallbackError(t *testing.T, err error, code string) *auth.CallbackError {
	t.Helper()
	var ce *auth.CallbackError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, code, ce.Code)
	return ce
}

func TestNewAuthorizationService_MissingDependencies(t *testing.T) {
	_, err := auth.NewAuthorizationService(nil, nil, storage.Repos{}, nil)
	require.ErrorIs(t, err, liberrors.ErrNotInitialized)
}

func TestBeginAuthorization(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("missing seller id", func(t *testing.T) {
		_, err := f.service.BeginAuthorization(oauthmodel.AuthorizationParameters{})
		require.ErrorIs(t, err, liberrors.ErrMissingParameter)
	})

	t.Run("state carries seller and redirect", func(t *testing.T) {
		redirect, err := f.service.BeginAuthorization(oauthmodel.AuthorizationParameters{
			SellerID:    testSellerID,
			RedirectURI: "/amazon-listing?draft=1",
		})
		require.NoError(t, err)

		u, err := url.Parse(redirect)
		require.NoError(t, err)
		state, err := f.tokens.VerifyState(u.Query().Get("state"))
		require.NoError(t, err)
		require.Equal(t, testSellerID, state.SellerID)
		require.Equal(t, "/amazon-listing?draft=1", state.OriginalRedirectURI)
		require.Equal(t, f.now, state.Timestamp)
		require.NotEmpty(t, state.Nonce)
	})
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("provider error short-circuits", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{
			Error:            "access_denied",
			ErrorDescription: "foo",
			State:            "s",
			Code:             "c",
		})
		ce := requireCallbackError(t, err, "access_denied")
		require.Equal(t, "foo", ce.Description)
		require.Zero(t, f.provider.exchangeCalls)
	})

	t.Run("missing code", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: f.signedState(t, "")})
		requireCallbackError(t, err, auth.CodeMissingParameters)
		require.ErrorIs(t, err, liberrors.ErrMissingParameter)
		require.Zero(t, f.provider.exchangeCalls)
		require.Zero(t, f.provider.profileCalls)
	})

	t.Run("missing state", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{Code: "c"})
		requireCallbackError(t, err, auth.CodeMissingParameters)
		require.Zero(t, f.provider.exchangeCalls)
	})

	t.Run("signed state success", func(t *testing.T) {
		f := setupTestFixture(t)
		result, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{
			State: f.signedState(t, "https://other.example.com/amazon-listing/new?tab=1"),
			Code:  "auth-code",
		})
		require.NoError(t, err)
		require.False(t, result.DirectAuth)
		require.Equal(t, "/amazon-listing/new?tab=1", result.RedirectPath)
		require.Equal(t, 30*24*time.Hour, result.SessionMaxAge)
		require.Equal(t, "auth-code", f.provider.lastCode)

		require.Equal(t, 1, f.userRepo.UpsertCalls)
		require.Equal(t, 1, f.accountRepo.UpsertCalls)

		user, err := f.userRepo.GetByEmail(ctx, testUserEmail)
		require.NoError(t, err)
		require.Equal(t, "Jane Seller", user.Name)
		require.Equal(t, testSellerID, user.AmazonSellerID)
		require.Equal(t, "ATVPDKIKX0DER", user.AmazonMarketplaceID)
		require.Equal(t, "na", user.AmazonRegion)

		account, err := f.accountRepo.Get(ctx, accounts.Key{Provider: "amazon", ProviderAccountID: testProviderUser})
		require.NoError(t, err)
		require.Equal(t, user.ID, account.UserID)
		require.Equal(t, "Bearer", account.Tokens.TokenType)
		require.Equal(t, "profile", account.Tokens.Scope)
		require.Equal(t, "Atzr|refresh", account.Tokens.RefreshToken)

		session, err := f.tokens.ParseSession(result.SessionToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, session.UserID)
		require.Equal(t, user.Email, session.Email)
		require.Equal(t, testSellerID, session.SellerID)
		require.Equal(t, "Atza|access", session.Tokens.AccessToken)
	})

	t.Run("partner id wins over state seller", func(t *testing.T) {
		f := setupTestFixture(t)
		result, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{
			State:            f.signedState(t, ""),
			Code:             "c",
			SellingPartnerID: testPartnerID,
		})
		require.NoError(t, err)
		require.Equal(t, testPartnerID, result.User.AmazonSellerID)
		require.Equal(t, "/amazon-listing", result.RedirectPath)
	})

	t.Run("garbage state falls back to direct authorization", func(t *testing.T) {
		f := setupTestFixture(t)
		result, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{
			State:            "seller-central-opaque-state",
			Code:             "c",
			SellingPartnerID: testPartnerID,
		})
		require.NoError(t, err)
		require.True(t, result.DirectAuth)
		require.Equal(t, 1, f.provider.exchangeCalls)
		require.Equal(t, testPartnerID, result.User.AmazonSellerID)
		require.Equal(t, "/amazon-listing", result.RedirectPath)
	})

	t.Run("expired state falls back to direct authorization", func(t *testing.T) {
		f := setupTestFixture(t)
		stale := token.New(token.NewHMACSigner(testStateSecret), token.NewHMACSigner(testSessionSecret),
			token.WithNowFunc(func() time.Time { return f.now.Add(-11 * time.Minute) }))
		state, err := stale.IssueState(token.StateData{SellerID: testSellerID, OriginalRedirectURI: "/elsewhere"})
		require.NoError(t, err)

		result, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: state, Code: "c"})
		require.NoError(t, err)
		require.True(t, result.DirectAuth)
		require.Equal(t, "/amazon-listing", result.RedirectPath)
		require.Empty(t, result.User.AmazonSellerID)
	})

	t.Run("session seller matches persisted seller after direct authorization", func(t *testing.T) {
		f := setupTestFixture(t)
		first, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: f.signedState(t, ""), Code: "c"})
		require.NoError(t, err)
		require.Equal(t, testSellerID, first.User.AmazonSellerID)

		second, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: "garbage", Code: "c"})
		require.NoError(t, err)
		require.True(t, second.DirectAuth)

		session, err := f.tokens.ParseSession(second.SessionToken)
		require.NoError(t, err)
		stored, err := f.userRepo.GetByID(ctx, second.User.ID)
		require.NoError(t, err)
		require.Equal(t, stored.ID, session.UserID)
		require.Equal(t, stored.Email, session.Email)
		require.Equal(t, stored.AmazonSellerID, session.SellerID)
		require.Empty(t, session.SellerID)
	})

	t.Run("token exchange failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.exchangeErr = describedErr{}
		_, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: f.signedState(t, ""), Code: "c"})
		ce := requireCallbackError(t, err, auth.CodeTokenExchangeFailed)
		require.Equal(t, "The authorization code is invalid", ce.Description)
		require.Zero(t, f.provider.profileCalls)
		require.Zero(t, f.userRepo.UpsertCalls)
	})

	t.Run("profile fetch failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.profileErr = liberrors.ErrProfileFetchFailed
		_, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: f.signedState(t, ""), Code: "c"})
		ce := requireCallbackError(t, err, auth.CodeProfileFetchFailed)
		require.Equal(t, "Failed to fetch user profile", ce.Description)
		require.Zero(t, f.userRepo.UpsertCalls)
	})

	t.Run("user upsert failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.userRepo.UpsertErr = errors.New("database is locked")
		_, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: f.signedState(t, ""), Code: "c"})
		ce := requireCallbackError(t, err, auth.CodePersistFailed)
		require.Contains(t, ce.Description, "database is locked")
		require.ErrorIs(t, err, liberrors.ErrUserUpsert)
		require.ErrorIs(t, err, liberrors.ErrPersistFailed)
		require.Zero(t, f.accountRepo.UpsertCalls)
	})

	t.Run("account upsert failure", func(t *testing.T) {
		f := setupTestFixture(t)
		f.accountRepo.UpsertErr = errors.New("constraint failed")
		_, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: f.signedState(t, ""), Code: "c"})
		requireCallbackError(t, err, auth.CodePersistFailed)
		require.ErrorIs(t, err, liberrors.ErrAccountUpsert)
	})

	t.Run("upserts share a transaction", func(t *testing.T) {
		tx := &fakeTransactor{}
		f := setupTestFixture(t, auth.WithTransactor(tx))
		tx.repos = storage.Repos{Users: f.userRepo, Accounts: f.accountRepo}

		_, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: f.signedState(t, ""), Code: "c"})
		require.NoError(t, err)
		require.Equal(t, 1, tx.calls)
		require.Equal(t, 1, f.userRepo.UpsertCalls)
	})

	t.Run("repeat login updates the same records", func(t *testing.T) {
		f := setupTestFixture(t)
		params := oauthmodel.CallbackParameters{State: f.signedState(t, ""), Code: "c"}
		first, err := f.service.HandleCallback(ctx, params)
		require.NoError(t, err)

		f.provider.profile.DisplayName = "Jane Renamed"
		second, err := f.service.HandleCallback(ctx, params)
		require.NoError(t, err)
		require.Equal(t, first.User.ID, second.User.ID)
		require.Equal(t, first.Account.ID, second.Account.ID)
		require.Equal(t, "Jane Renamed", second.User.Name)

		n, err := f.userRepo.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

func TestTokenAccessor_WritesBackRefreshedTokens(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	result, err := f.service.HandleCallback(ctx, oauthmodel.CallbackParameters{State: f.signedState(t, ""), Code: "c"})
	require.NoError(t, err)

	session, err := f.service.SessionFromToken(result.SessionToken)
	require.NoError(t, err)

	var propagated oauthmodel.TokenSet
	accessor := f.service.TokenAccessor(session, func(_ context.Context, ts oauthmodel.TokenSet) { propagated = ts })

	accessToken, err := accessor.RefreshAccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "refreshed", accessToken)
	require.Equal(t, 1, f.provider.refreshCalls)
	require.Equal(t, "refreshed", propagated.AccessToken)

	account, err := f.accountRepo.Get(ctx, accounts.Key{Provider: "amazon", ProviderAccountID: testProviderUser})
	require.NoError(t, err)
	require.Equal(t, "refreshed", account.Tokens.AccessToken)
	require.Equal(t, "Atzr|refresh", account.Tokens.RefreshToken)

	reissued, err := f.service.ReissueSession(session, propagated)
	require.NoError(t, err)
	again, err := f.service.SessionFromToken(reissued)
	require.NoError(t, err)
	require.Equal(t, "refreshed", again.Tokens.AccessToken)
	require.Equal(t, session.UserID, again.UserID)
}
