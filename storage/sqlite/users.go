package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/users"
)

var _ users.UserRepo = (*userRepo)(nil)

const userColumns = `id, email, name, amazon_seller_id, amazon_marketplace_id, amazon_region, created_at, updated_at`

type userRepo struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*users.User, error) {
	var (
		u                    users.User
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AmazonSellerID, &u.AmazonMarketplaceID, &u.AmazonRegion, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

// UpsertByEmail inserts or updates in one statement. Empty fields keep the
// stored value, except the seller id which always follows the latest login.
func (r *userRepo) UpsertByEmail(ctx context.Context, email string, fields users.Fields) (*users.User, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	now := toMillis(NowTimeFunc())

	row := r.q.QueryRowContext(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (email) DO UPDATE SET
    name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE users.name END,
    amazon_seller_id = excluded.amazon_seller_id,
    amazon_marketplace_id = CASE WHEN excluded.amazon_marketplace_id <> '' THEN excluded.amazon_marketplace_id ELSE users.amazon_marketplace_id END,
    amazon_region = CASE WHEN excluded.amazon_region <> '' THEN excluded.amazon_region ELSE users.amazon_region END,
    updated_at = excluded.updated_at
RETURNING `+userColumns,
		uuid.New().String(), email, fields.Name, fields.AmazonSellerID, fields.AmazonMarketplaceID, fields.AmazonRegion, now, now,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, users.NormalizeEmail(email))
	return r.one(row)
}

func (r *userRepo) GetByID(ctx context.Context, ID string) (*users.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, ID)
	return r.one(row)
}

func (r *userRepo) one(row *sql.Row) (*users.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, liberrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *userRepo) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	result := make([]*users.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
