package user_test

import (
	"context"
	"testing"

	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/repository"
	"github.com/ganot/logitrack/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var admin = user.User{ID: 1, Email: "admin@example.com", Role: user.RoleSuper}

func newService() (*user.Service, *mocks.UserRepository, *mocks.KeyRepository, *mocks.ChannelRepository) {
	users := &mocks.UserRepository{}
	keys := &mocks.KeyRepository{}
	channels := &mocks.ChannelRepository{}
	return user.NewService(users, keys, channels, nil), users, keys, channels
}

func TestUser_Can(t *testing.T) {
	u := user.User{Role: user.RoleUser, Permissions: []user.Permission{user.PermGroupOrders}, Channels: []string{"Retail"}}
	require.True(t, u.Can(user.PermGroupOrders))
	require.False(t, u.Can(user.PermManageUsers))
	require.True(t, u.SeesChannel("Retail"))
	require.False(t, u.SeesChannel("Wholesale"))

	require.True(t, admin.Can(user.PermManageUsers))
	require.True(t, admin.SeesChannel("anything"))
	require.Equal(t, user.AllPermissions, admin.EffectivePermissions())
	require.Equal(t, []user.Permission{user.PermGroupOrders}, u.EffectivePermissions())
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()
	svc, users, keys, _ := newService()

	keys.On("Resolve", ctx, user.HashToken("good")).Return(int64(5), nil)
	keys.On("Resolve", ctx, user.HashToken("bad")).Return(int64(0), repository.ErrNotFound)
	users.On("Get", ctx, int64(5)).Return(&user.User{ID: 5, Email: "ops@example.com"}, nil)

	u, err := svc.Resolve(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", u.Email)

	_, err = svc.Resolve(ctx, "bad")
	require.ErrorIs(t, err, user.ErrInvalidToken)

	_, err = svc.Resolve(ctx, "  ")
	require.ErrorIs(t, err, user.ErrInvalidToken)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, users, keys, channels := newService()

	channels.On("List", ctx).Return([]string{"Retail", "Wholesale"}, nil)
	users.On("Create", ctx, mock.MatchedBy(func(u *user.User) bool {
		return u.Email == "ops@example.com" && u.Role == user.RoleUser
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*user.User).ID = 9
	}).Return(nil)
	keys.On("Create", ctx, int64(9), mock.AnythingOfType("string"), "issued at creation").Return(nil)

	created, err := svc.Create(ctx, admin, user.CreateRequest{
		Email:       " OPS@example.com ",
		Permissions: []user.Permission{user.PermEditNotes},
		Channels:    []string{"Retail"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), created.User.ID)
	require.NotEmpty(t, created.Token)

	_, err = svc.Create(ctx, admin, user.CreateRequest{Email: "x@example.com", Channels: []string{"Mars"}})
	require.ErrorIs(t, err, user.ErrInvalidInput)

	_, err = svc.Create(ctx, admin, user.CreateRequest{Email: "not-an-email"})
	require.ErrorIs(t, err, user.ErrInvalidInput)

	_, err = svc.Create(ctx, user.User{Role: user.RoleUser}, user.CreateRequest{Email: "x@example.com"})
	require.ErrorIs(t, err, user.ErrForbidden)
}

func TestService_SetPermissions(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newService()

	users.On("Get", ctx, int64(2)).Return(&user.User{ID: 2, Role: user.RoleUser}, nil)
	users.On("Get", ctx, int64(1)).Return(&admin, nil)
	users.On("SetPermissions", ctx, int64(2), []user.Permission{user.PermGroupOrders}).Return(nil)

	updated, err := svc.SetPermissions(ctx, admin, 2, []user.Permission{user.PermGroupOrders})
	require.NoError(t, err)
	require.Equal(t, []user.Permission{user.PermGroupOrders}, updated.Permissions)

	_, err = svc.SetPermissions(ctx, admin, 1, nil)
	require.ErrorIs(t, err, user.ErrSuperImmutable)

	_, err = svc.SetPermissions(ctx, admin, 2, []user.Permission{"fly"})
	require.ErrorIs(t, err, user.ErrInvalidInput)
}

func TestService_SetChannels(t *testing.T) {
	ctx := context.Background()
	svc, users, _, channels := newService()

	users.On("Get", ctx, int64(2)).Return(&user.User{ID: 2, Role: user.RoleUser}, nil)
	channels.On("List", ctx).Return([]string{"Retail"}, nil)
	users.On("SetChannels", ctx, int64(2), []string{"Retail"}).Return(nil)

	updated, err := svc.SetChannels(ctx, admin, 2, []string{"Retail"})
	require.NoError(t, err)
	require.Equal(t, []string{"Retail"}, updated.Channels)
}

func TestService_EnsureSuper(t *testing.T) {
	ctx := context.Background()
	svc, users, keys, _ := newService()

	users.On("GetByEmail", ctx, "root@example.com").Return((*user.User)(nil), repository.ErrNotFound)
	users.On("Create", ctx, mock.MatchedBy(func(u *user.User) bool { return u.Role == user.RoleSuper })).
		Run(func(args mock.Arguments) { args.Get(1).(*user.User).ID = 1 }).Return(nil)
	keys.On("Resolve", ctx, user.HashToken("boot")).Return(int64(0), repository.ErrNotFound)
	keys.On("Create", ctx, int64(1), user.HashToken("boot"), "bootstrap").Return(nil)

	u, err := svc.EnsureSuper(ctx, "Root@example.com", "boot")
	require.NoError(t, err)
	require.True(t, u.IsSuper())
	keys.AssertExpectations(t)
}

func TestService_VisibleChannels(t *testing.T) {
	ctx := context.Background()
	svc, _, _, channels := newService()
	channels.On("List", ctx).Return([]string{"Horeca", "Retail", "Wholesale"}, nil)

	names, err := svc.VisibleChannels(ctx, user.User{Role: user.RoleUser, Channels: []string{"Retail"}})
	require.NoError(t, err)
	require.Equal(t, []string{"Retail"}, names)

	names, err = svc.VisibleChannels(ctx, admin)
	require.NoError(t, err)
	require.Len(t, names, 3)
}
