package refresh_test

import (
	"context"
	"errors"
	"testing"
	"time"

	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/jrsteele09/go-listing-server/token/refresh"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls  int
	tokens oauthmodel.TokenSet
	err    error
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (oauthmodel.TokenSet, error) {
	f.calls++
	if f.err != nil {
		return oauthmodel.TokenSet{}, f.err
	}
	return f.tokens, nil
}

type bodyErr struct{ body string }

func (e *bodyErr) Error() string        { return "provider rejected refresh" }
func (e *bodyErr) ResponseBody() string { return e.body }

func withNow(t *testing.T, now time.Time) {
	t.Helper()
	orig := refresh.NowTimeFunc
	refresh.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { refresh.NowTimeFunc = orig })
}

func TestAccessor_EnsureValidToken(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	withNow(t, now)
	ctx := context.Background()

	t.Run("fresh token makes no calls", func(t *testing.T) {
		r := &fakeRefresher{}
		a := refresh.NewAccessor(oauthmodel.TokenSet{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(10 * time.Minute)}, r)

		require.True(t, a.EnsureValidToken(ctx))
		require.Equal(t, 0, r.calls)
	})

	t.Run("no expiry makes no calls", func(t *testing.T) {
		r := &fakeRefresher{}
		a := refresh.NewAccessor(oauthmodel.TokenSet{AccessToken: "a"}, r)

		require.True(t, a.EnsureValidToken(ctx))
		require.Equal(t, 0, r.calls)
	})

	t.Run("within skew refreshes once", func(t *testing.T) {
		newExpiry := now.Add(time.Hour)
		r := &fakeRefresher{tokens: oauthmodel.TokenSet{AccessToken: "a2", ExpiresAt: newExpiry}}

		var hooked oauthmodel.TokenSet
		a := refresh.NewAccessor(
			oauthmodel.TokenSet{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(4 * time.Minute), TokenType: "Bearer"},
			r,
			refresh.WithRefreshHook(func(_ context.Context, ts oauthmodel.TokenSet) { hooked = ts }),
		)

		require.True(t, a.EnsureValidToken(ctx))
		require.Equal(t, 1, r.calls)

		tokens := a.Tokens()
		require.Equal(t, "a2", tokens.AccessToken)
		require.Equal(t, "r", tokens.RefreshToken)
		require.Equal(t, "Bearer", tokens.TokenType)
		require.Equal(t, newExpiry, tokens.ExpiresAt)
		require.Equal(t, tokens, hooked)
	})

	t.Run("failed refresh keeps previous token", func(t *testing.T) {
		r := &fakeRefresher{err: &bodyErr{body: `{"error":"invalid_grant"}`}}
		prev := oauthmodel.TokenSet{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(-time.Minute)}
		a := refresh.NewAccessor(prev, r)

		require.False(t, a.EnsureValidToken(ctx))
		require.Equal(t, 1, r.calls)
		require.Equal(t, prev, a.Tokens())
	})

	t.Run("missing refresh token", func(t *testing.T) {
		r := &fakeRefresher{}
		a := refresh.NewAccessor(oauthmodel.TokenSet{AccessToken: "a", ExpiresAt: now}, r)

		require.False(t, a.EnsureValidToken(ctx))
		require.Equal(t, 0, r.calls)
	})
}

func TestAccessor_RefreshAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps provider error", func(t *testing.T) {
		a := refresh.NewAccessor(oauthmodel.TokenSet{AccessToken: "a", RefreshToken: "r"}, &fakeRefresher{err: errors.New("boom")})
		token, err := a.RefreshAccessToken(ctx)
		require.Empty(t, token)
		require.ErrorIs(t, err, liberrors.ErrTokenRefreshFailed)
	})

	t.Run("nil refresher", func(t *testing.T) {
		a := refresh.NewAccessor(oauthmodel.TokenSet{AccessToken: "a", RefreshToken: "r"}, nil)
		_, err := a.RefreshAccessToken(ctx)
		require.ErrorIs(t, err, liberrors.ErrNotInitialized)
	})
}
