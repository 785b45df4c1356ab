package users

import "context"

type UserRepo interface {
	// UpsertByEmail creates the user on first sight of email, otherwise applies fields.
	UpsertByEmail(ctx context.Context, email string, fields Fields) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, ID string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	Count(ctx context.Context) (int, error)
}
