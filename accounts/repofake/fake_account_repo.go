package fakeaccountrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-listing-server/accounts"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type FakeAccountRepo struct {
	accounts map[accounts.Key]*accounts.Account
	lock     sync.RWMutex

	// UpsertErr, when set, is returned by every Upsert call
	UpsertErr   error
	UpsertCalls int
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		accounts: make(map[accounts.Key]*accounts.Account),
	}
}

func (ar *FakeAccountRepo) Upsert(_ context.Context, key accounts.Key, fields accounts.Fields) (*accounts.Account, error) {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	ar.UpsertCalls++
	if ar.UpsertErr != nil {
		return nil, ar.UpsertErr
	}

	now := NowTimeFunc()
	account, ok := ar.accounts[key]
	if !ok {
		account = &accounts.Account{
			ID:                uuid.New().String(),
			Type:              oauthmodel.AccountTypeOAuth,
			Provider:          key.Provider,
			ProviderAccountID: key.ProviderAccountID,
			CreatedAt:         now,
		}
		ar.accounts[key] = account
	}
	account.UserID = fields.UserID
	account.Tokens = fields.Tokens
	account.UpdatedAt = now

	copied := *account
	return &copied, nil
}

func (ar *FakeAccountRepo) Get(_ context.Context, key accounts.Key) (*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	account, ok := ar.accounts[key]
	if !ok {
		return nil, liberrors.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (ar *FakeAccountRepo) ListByUserID(_ context.Context, userID string) ([]*accounts.Account, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	found := make([]*accounts.Account, 0)
	for _, a := range ar.accounts {
		if a.UserID == userID {
			copied := *a
			found = append(found, &copied)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ProviderAccountID < found[j].ProviderAccountID })
	return found, nil
}

func (ar *FakeAccountRepo) UpdateTokens(_ context.Context, key accounts.Key, tokens oauthmodel.TokenSet) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	account, ok := ar.accounts[key]
	if !ok {
		return liberrors.ErrNotFound
	}
	account.Tokens = tokens
	account.UpdatedAt = NowTimeFunc()
	return nil
}

func (ar *FakeAccountRepo) Count(_ context.Context) (int, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()
	return len(ar.accounts), nil
}
