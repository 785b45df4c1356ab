// Package storage defines the persistence boundary of the login flow.
package storage

import (
	"context"

	"github.com/jrsteele09/go-listing-server/accounts"
	"github.com/jrsteele09/go-listing-server/users"
)

// Repos groups the repositories written by a successful login.
type Repos struct {
	Users    users.UserRepo
	Accounts accounts.Repo
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(Repos) error) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
