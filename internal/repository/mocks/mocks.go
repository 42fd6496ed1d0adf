package mocks

import (
	"context"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/stretchr/testify/mock"
)

// OrderRepository is a mock for order.Repository.
type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) List(ctx context.Context, opts order.ListOptions) ([]order.Order, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]order.Order); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) Get(ctx context.Context, ref string) (*order.Order, error) {
	args := m.Called(ctx, ref)
	if o, ok := args.Get(0).(*order.Order); ok {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) Upsert(ctx context.Context, o *order.Order, tasks []string) (bool, error) {
	args := m.Called(ctx, o, tasks)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepository) SetStatus(ctx context.Context, refs []string, status order.Status) error {
	args := m.Called(ctx, refs, status)
	return args.Error(0)
}

func (m *OrderRepository) SetNotes(ctx context.Context, ref, notes string) error {
	args := m.Called(ctx, ref, notes)
	return args.Error(0)
}

func (m *OrderRepository) TaskOwner(ctx context.Context, taskID int64) (string, error) {
	args := m.Called(ctx, taskID)
	return args.String(0), args.Error(1)
}

func (m *OrderRepository) SetTaskDone(ctx context.Context, taskID int64, done bool) error {
	args := m.Called(ctx, taskID, done)
	return args.Error(0)
}

func (m *OrderRepository) BlockMembers(ctx context.Context, blockID int64) ([]order.Order, error) {
	args := m.Called(ctx, blockID)
	if list, ok := args.Get(0).([]order.Order); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) GetBlock(ctx context.Context, blockID int64) (*order.Block, error) {
	args := m.Called(ctx, blockID)
	if b, ok := args.Get(0).(*order.Block); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) CreateBlock(ctx context.Context, name string, refs []string, at time.Time) (*order.Block, []string, error) {
	args := m.Called(ctx, name, refs, at)
	b, _ := args.Get(0).(*order.Block)
	grouped, _ := args.Get(1).([]string)
	return b, grouped, args.Error(2)
}

func (m *OrderRepository) Ungroup(ctx context.Context, refs []string) ([]string, error) {
	args := m.Called(ctx, refs)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) Archive(ctx context.Context, refs []string, at time.Time) ([]string, error) {
	args := m.Called(ctx, refs, at)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *OrderRepository) EnsureChannels(ctx context.Context, names []string) error {
	args := m.Called(ctx, names)
	return args.Error(0)
}

// HistoryRepository is a mock for order.HistoryRepository.
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) List(ctx context.Context, filter order.HistoryFilter) ([]order.HistoryEntry, error) {
	args := m.Called(ctx, filter)
	if list, ok := args.Get(0).([]order.HistoryEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HistoryRepository) Get(ctx context.Context, id int64) (*order.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if h, ok := args.Get(0).(*order.HistoryEntry); ok {
		return h, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HistoryRepository) Restore(ctx context.Context, id int64, o *order.Order, tasks []string) error {
	args := m.Called(ctx, id, o, tasks)
	return args.Error(0)
}

func (m *HistoryRepository) Refs(ctx context.Context) (map[string]bool, error) {
	args := m.Called(ctx)
	if refs, ok := args.Get(0).(map[string]bool); ok {
		return refs, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) List(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) SetPermissions(ctx context.Context, id int64, perms []user.Permission) error {
	args := m.Called(ctx, id, perms)
	return args.Error(0)
}

func (m *UserRepository) SetChannels(ctx context.Context, id int64, channels []string) error {
	args := m.Called(ctx, id, channels)
	return args.Error(0)
}

// KeyRepository is a mock for user.KeyRepository.
type KeyRepository struct {
	mock.Mock
}

func (m *KeyRepository) Create(ctx context.Context, userID int64, keyHash, description string) error {
	args := m.Called(ctx, userID, keyHash, description)
	return args.Error(0)
}

func (m *KeyRepository) Resolve(ctx context.Context, keyHash string) (int64, error) {
	args := m.Called(ctx, keyHash)
	return args.Get(0).(int64), args.Error(1)
}

// ChannelRepository is a mock for user.ChannelRepository.
type ChannelRepository struct {
	mock.Mock
}

func (m *ChannelRepository) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ChannelRepository) Ensure(ctx context.Context, names []string) error {
	args := m.Called(ctx, names)
	return args.Error(0)
}
