package fakeuserrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type FakeUserRepo struct {
	users    map[string]*users.User
	emailIds map[string]string // email to user id
	lock     sync.RWMutex

	// UpsertErr, when set, is returned by every UpsertByEmail call
	UpsertErr   error
	UpsertCalls int
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.User),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) UpsertByEmail(_ context.Context, email string, fields users.Fields) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	ur.UpsertCalls++
	if ur.UpsertErr != nil {
		return nil, ur.UpsertErr
	}

	email = users.NormalizeEmail(email)
	now := NowTimeFunc()

	user, ok := ur.users[ur.emailIds[email]]
	if !ok {
		user = &users.User{
			ID:        uuid.New().String(),
			Email:     email,
			CreatedAt: now,
		}
		ur.users[user.ID] = user
		ur.emailIds[email] = user.ID
	}
	user.Apply(fields)
	user.UpdatedAt = now

	copied := *user
	return &copied, nil
}

// Delete removes a user. Only tests use it, to simulate a vanished row.
func (ur *FakeUserRepo) Delete(email string) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email = users.NormalizeEmail(email)
	delete(ur.users, ur.emailIds[email])
	delete(ur.emailIds, email)
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, liberrors.ErrNotFound
	}
	copied := *ur.users[userID]
	return &copied, nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, ID string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[ID]
	if !ok {
		return nil, liberrors.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) List(_ context.Context, offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	all := make([]*users.User, 0, len(ur.users))
	for _, u := range ur.users {
		copied := *u
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Email < all[j].Email })

	if offset >= len(all) {
		return []*users.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (ur *FakeUserRepo) Count(_ context.Context) (int, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return len(ur.users), nil
}
