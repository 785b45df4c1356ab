package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-listing-server/accounts"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/jrsteele09/go-listing-server/storage"
	"github.com/jrsteele09/go-listing-server/storage/sqlite"
	"github.com/jrsteele09/go-listing-server/token/keys"
	"github.com/jrsteele09/go-listing-server/users"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "data", "listing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ")
	require.Error(t, err)
}

func TestOpen_ReappliesMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listing.db")
	first, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, second.Ping(context.Background()))
	require.NoError(t, second.Close())

	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer db.Close()
	var (
		version int
		dirty   bool
	)
	require.NoError(t, db.QueryRow(`SELECT version, dirty FROM schema_migrations`).Scan(&version, &dirty))
	require.Equal(t, 1, version)
	require.False(t, dirty)
}

func TestUserRepo_UpsertByEmail(t *testing.T) {
	ctx := context.Background()
	repo := openTempStore(t).Repos().Users

	created, err := repo.UpsertByEmail(ctx, "Jane@Example.com ", users.Fields{
		Name:                "Jane",
		AmazonSellerID:      "SP1",
		AmazonMarketplaceID: "ATVPDKIKX0DER",
		AmazonRegion:        "na",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "jane@example.com", created.Email)

	updated, err := repo.UpsertByEmail(ctx, "jane@example.com", users.Fields{Name: "Jane Seller", AmazonSellerID: "SP2"})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Jane Seller", updated.Name)
	require.Equal(t, "SP2", updated.AmazonSellerID)
	require.Equal(t, "ATVPDKIKX0DER", updated.AmazonMarketplaceID)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, updated.Name, byID.Name)

	cleared, err := repo.UpsertByEmail(ctx, "jane@example.com", users.Fields{})
	require.NoError(t, err)
	require.Empty(t, cleared.AmazonSellerID)
	require.Equal(t, "Jane Seller", cleared.Name)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, liberrors.ErrNotFound)
}

func TestAccountRepo_Upsert(t *testing.T) {
	ctx := context.Background()
	repos := openTempStore(t).Repos()

	user, err := repos.Users.UpsertByEmail(ctx, "jane@example.com", users.Fields{Name: "Jane"})
	require.NoError(t, err)

	key := accounts.Key{Provider: oauthmodel.ProviderAmazon, ProviderAccountID: "amzn1.account.X"}
	expiry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := oauthmodel.TokenSet{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: expiry, TokenType: "Bearer", Scope: "profile"}

	account, err := repos.Accounts.Upsert(ctx, key, accounts.Fields{UserID: user.ID, Tokens: tokens})
	require.NoError(t, err)
	require.Equal(t, oauthmodel.AccountTypeOAuth, account.Type)
	require.Equal(t, tokens, account.Tokens)

	tokens.AccessToken = "a2"
	again, err := repos.Accounts.Upsert(ctx, key, accounts.Fields{UserID: user.ID, Tokens: tokens})
	require.NoError(t, err)
	require.Equal(t, account.ID, again.ID)
	require.Equal(t, "a2", again.Tokens.AccessToken)

	refreshed := oauthmodel.TokenSet{AccessToken: "a3", RefreshToken: "r1", ExpiresAt: expiry.Add(time.Hour)}
	require.NoError(t, repos.Accounts.UpdateTokens(ctx, key, refreshed))

	got, err := repos.Accounts.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "a3", got.Tokens.AccessToken)
	require.True(t, got.Tokens.ExpiresAt.Equal(expiry.Add(time.Hour)))
	require.Equal(t, "Bearer", got.Tokens.TokenType)

	list, err := repos.Accounts.ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = repos.Accounts.UpdateTokens(ctx, accounts.Key{Provider: "amazon", ProviderAccountID: "missing"}, refreshed)
	require.ErrorIs(t, err, liberrors.ErrNotFound)
}

func TestAccountRepo_RequiresExistingUser(t *testing.T) {
	ctx := context.Background()
	repos := openTempStore(t).Repos()

	_, err := repos.Accounts.Upsert(ctx,
		accounts.Key{Provider: "amazon", ProviderAccountID: "x"},
		accounts.Fields{UserID: "no-such-user"},
	)
	require.Error(t, err)
}

func TestStore_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	failure := errors.New("account write failed")

	err := store.InTx(ctx, func(repos storage.Repos) error {
		if _, err := repos.Users.UpsertByEmail(ctx, "jane@example.com", users.Fields{Name: "Jane"}); err != nil {
			return err
		}
		return failure
	})
	require.ErrorIs(t, err, failure)

	n, err := store.Repos().Users.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, store.InTx(ctx, func(repos storage.Repos) error {
		_, err := repos.Users.UpsertByEmail(ctx, "jane@example.com", users.Fields{Name: "Jane"})
		return err
	}))
	n, err = store.Repos().Users.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestAccountRepo_SealsTokensAtRest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "listing.db")
	sealer, err := keys.NewSealerFromSecret("token-encryption-secret")
	require.NoError(t, err)
	store, err := sqlite.Open(ctx, path, sqlite.WithTokenSealer(sealer))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user, err := store.Repos().Users.UpsertByEmail(ctx, "jane@example.com", users.Fields{Name: "Jane"})
	require.NoError(t, err)
	key := accounts.Key{Provider: oauthmodel.ProviderAmazon, ProviderAccountID: "amzn1.account.X"}

	var account *accounts.Account
	require.NoError(t, store.InTx(ctx, func(repos storage.Repos) error {
		account, err = repos.Accounts.Upsert(ctx, key, accounts.Fields{
			UserID: user.ID,
			Tokens: oauthmodel.TokenSet{AccessToken: "Atza|access", RefreshToken: "Atzr|refresh"},
		})
		return err
	}))
	require.Equal(t, "Atza|access", account.Tokens.AccessToken)
	require.Equal(t, "Atzr|refresh", account.Tokens.RefreshToken)

	require.NoError(t, store.Repos().Accounts.UpdateTokens(ctx, key, oauthmodel.TokenSet{AccessToken: "Atza|rotated", RefreshToken: "Atzr|refresh"}))

	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer db.Close()
	var access, refresh string
	require.NoError(t, db.QueryRow(`SELECT access_token, refresh_token FROM accounts WHERE id = ?`, account.ID).Scan(&access, &refresh))
	require.NotContains(t, access, "Atza|")
	require.NotContains(t, refresh, "Atzr|")

	got, err := store.Repos().Accounts.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "Atza|rotated", got.Tokens.AccessToken)
	require.Equal(t, "Atzr|refresh", got.Tokens.RefreshToken)

	plain, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = plain.Close() })
	raw, err := plain.Repos().Accounts.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, refresh, raw.Tokens.RefreshToken)
}
