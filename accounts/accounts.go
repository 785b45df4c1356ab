package accounts

import (
	"time"

	"github.com/jrsteele09/go-listing-server/oauthmodel"
)

// Account links a local user to a provider identity and holds the
// provider credentials. (Provider, ProviderAccountID) is unique.
type Account struct {
	ID                string              `json:"id,omitempty"`
	UserID            string              `json:"userId,omitempty"`
	Type              string              `json:"type,omitempty"`
	Provider          string              `json:"provider,omitempty"`
	ProviderAccountID string              `json:"providerAccountId,omitempty"`
	Tokens            oauthmodel.TokenSet `json:"-"`
	CreatedAt         time.Time           `json:"createdAt,omitempty"`
	UpdatedAt         time.Time           `json:"updatedAt,omitempty"`
}

// Fields are written on every upsert.
type Fields struct {
	UserID string
	Tokens oauthmodel.TokenSet
}

// Key identifies an account.
type Key struct {
	Provider          string
	ProviderAccountID string
}
