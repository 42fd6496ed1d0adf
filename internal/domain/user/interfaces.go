package user

import "context"

// Repository provides persistence for users and their grants.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	SetPermissions(ctx context.Context, id int64, perms []Permission) error
	SetChannels(ctx context.Context, id int64, channels []string) error
}

// KeyRepository stores hashed API tokens.
type KeyRepository interface {
	Create(ctx context.Context, userID int64, keyHash, description string) error
	Resolve(ctx context.Context, keyHash string) (int64, error)
}

// ChannelRepository lists and registers sales channels.
type ChannelRepository interface {
	List(ctx context.Context) ([]string, error)
	Ensure(ctx context.Context, names []string) error
}
