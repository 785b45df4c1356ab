package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-listing-server/accounts"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
)

var _ accounts.Repo = (*accountRepo)(nil)

const accountColumns = `id, user_id, type, provider, provider_account_id, access_token, refresh_token, expires_at, token_type, scope, created_at, updated_at`

type accountRepo struct {
	q      querier
	sealer TokenSealer
}

// sealTokens returns the access and refresh token as stored.
func (r *accountRepo) sealTokens(t oauthmodel.TokenSet) (string, string, error) {
	if r.sealer == nil {
		return t.AccessToken, t.RefreshToken, nil
	}
	access, err := r.sealer.Seal(t.AccessToken)
	if err != nil {
		return "", "", fmt.Errorf("seal access token: %w", err)
	}
	refresh, err := r.sealer.Seal(t.RefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("seal refresh token: %w", err)
	}
	return access, refresh, nil
}

func (r *accountRepo) scan(row rowScanner) (*accounts.Account, error) {
	a, err := scanAccount(row)
	if err != nil || r.sealer == nil {
		return a, err
	}
	if a.Tokens.AccessToken, err = r.sealer.Open(a.Tokens.AccessToken); err != nil {
		return nil, fmt.Errorf("open access token: %w", err)
	}
	if a.Tokens.RefreshToken, err = r.sealer.Open(a.Tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("open refresh token: %w", err)
	}
	return a, nil
}

func scanAccount(row rowScanner) (*accounts.Account, error) {
	var (
		a                               accounts.Account
		expiresAt, createdAt, updatedAt int64
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID,
		&a.Tokens.AccessToken, &a.Tokens.RefreshToken, &expiresAt, &a.Tokens.TokenType, &a.Tokens.Scope,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	a.Tokens.ExpiresAt = fromMillis(expiresAt)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return &a, nil
}

func (r *accountRepo) Upsert(ctx context.Context, key accounts.Key, fields accounts.Fields) (*accounts.Account, error) {
	if key.Provider == "" || key.ProviderAccountID == "" {
		return nil, fmt.Errorf("provider and provider account id are required")
	}
	if fields.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	now := toMillis(NowTimeFunc())
	t := fields.Tokens
	access, refresh, err := r.sealTokens(t)
	if err != nil {
		return nil, err
	}

	row := r.q.QueryRowContext(ctx, `
INSERT INTO accounts (`+accountColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (provider, provider_account_id) DO UPDATE SET
    user_id = excluded.user_id,
    access_token = excluded.access_token,
    refresh_token = excluded.refresh_token,
    expires_at = excluded.expires_at,
    token_type = excluded.token_type,
    scope = excluded.scope,
    updated_at = excluded.updated_at
RETURNING `+accountColumns,
		uuid.New().String(), fields.UserID, oauthmodel.AccountTypeOAuth, key.Provider, key.ProviderAccountID,
		access, refresh, toMillis(t.ExpiresAt), t.TokenType, t.Scope, now, now,
	)
	account, err := r.scan(row)
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}
	return account, nil
}

func (r *accountRepo) Get(ctx context.Context, key accounts.Key) (*accounts.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE provider = ? AND provider_account_id = ?`,
		key.Provider, key.ProviderAccountID,
	)
	account, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, liberrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (r *accountRepo) ListByUserID(ctx context.Context, userID string) ([]*accounts.Account, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY provider_account_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	result := make([]*accounts.Account, 0)
	for rows.Next() {
		account, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		result = append(result, account)
	}
	return result, rows.Err()
}

func (r *accountRepo) UpdateTokens(ctx context.Context, key accounts.Key, tokens oauthmodel.TokenSet) error {
	access, refresh, err := r.sealTokens(tokens)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `
UPDATE accounts SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
WHERE provider = ? AND provider_account_id = ?`,
		access, refresh, toMillis(tokens.ExpiresAt), toMillis(NowTimeFunc()),
		key.Provider, key.ProviderAccountID,
	)
	if err != nil {
		return fmt.Errorf("update account tokens: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return liberrors.ErrNotFound
	}
	return nil
}

func (r *accountRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
