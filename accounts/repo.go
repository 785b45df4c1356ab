package accounts

import (
	"context"

	"github.com/jrsteele09/go-listing-server/oauthmodel"
)

type Repo interface {
	// Upsert creates or replaces the account identified by key.
	Upsert(ctx context.Context, key Key, fields Fields) (*Account, error)
	Get(ctx context.Context, key Key) (*Account, error)
	ListByUserID(ctx context.Context, userID string) ([]*Account, error)
	// UpdateTokens overwrites the stored token set after a refresh.
	UpdateTokens(ctx context.Context, key Key, tokens oauthmodel.TokenSet) error
	Count(ctx context.Context) (int, error)
}
