package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/ganot/logitrack/internal/repository"
)

// Service handles users, permissions, channels and API tokens.
type Service struct {
	repo     Repository
	keys     KeyRepository
	channels ChannelRepository
	logger   *slog.Logger
}

// NewService creates a new user service.
func NewService(repo Repository, keys KeyRepository, channels ChannelRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, keys: keys, channels: channels, logger: logger}
}

// CreateRequest defines user creation inputs.
type CreateRequest struct {
	Email       string
	Name        string
	Permissions []Permission
	Channels    []string
}

// Created is a new user together with its one-time API token.
type Created struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Get fetches a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// Resolve maps a bearer token to its user.
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	id, err := s.keys.Resolve(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	u, err := s.Get(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	return u, err
}

// List returns every user. Requires manage_users.
func (s *Service) List(ctx context.Context, actor User) ([]User, error) {
	if !actor.Can(PermManageUsers) {
		return nil, ErrForbidden
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Create registers a regular user and issues its API token. Requires manage_users.
func (s *Service) Create(ctx context.Context, actor User, req CreateRequest) (*Created, error) {
	if !actor.Can(PermManageUsers) {
		return nil, ErrForbidden
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := s.validateGrants(ctx, req.Permissions, req.Channels); err != nil {
		return nil, err
	}

	u := &User{
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Name:        strings.TrimSpace(req.Name),
		Role:        RoleUser,
		Permissions: req.Permissions,
		Channels:    req.Channels,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token := NewToken()
	if err := s.keys.Create(ctx, u.ID, HashToken(token), "issued at creation"); err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "email", u.Email, "by", actor.Email)
	return &Created{User: u, Token: token}, nil
}

// SetPermissions replaces the permissions of a regular user. Requires manage_users.
func (s *Service) SetPermissions(ctx context.Context, actor User, id int64, perms []Permission) (*User, error) {
	target, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateGrants(ctx, perms, nil); err != nil {
		return nil, err
	}
	if err := s.repo.SetPermissions(ctx, id, perms); err != nil {
		return nil, fmt.Errorf("setting permissions: %w", err)
	}
	target.Permissions = perms
	s.logger.Info("permissions updated", "user_id", id, "permissions", perms, "by", actor.Email)
	return target, nil
}

// SetChannels replaces the channels a regular user may see. Requires manage_users.
func (s *Service) SetChannels(ctx context.Context, actor User, id int64, channels []string) (*User, error) {
	target, err := s.modifiable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateGrants(ctx, nil, channels); err != nil {
		return nil, err
	}
	if err := s.repo.SetChannels(ctx, id, channels); err != nil {
		return nil, fmt.Errorf("setting channels: %w", err)
	}
	target.Channels = channels
	s.logger.Info("channels updated", "user_id", id, "channels", channels, "by", actor.Email)
	return target, nil
}

// Channels returns every known channel name, sorted.
func (s *Service) Channels(ctx context.Context) ([]string, error) {
	names, err := s.channels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	return names, nil
}

// VisibleChannels returns the channels the user may select.
func (s *Service) VisibleChannels(ctx context.Context, u User) ([]string, error) {
	names, err := s.Channels(ctx)
	if err != nil {
		return nil, err
	}
	if u.IsSuper() {
		return names, nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if u.SeesChannel(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// EnsureSuper makes sure a super user with the email exists. When token is
// non-empty it is registered as an API key for that user.
func (s *Service) EnsureSuper(ctx context.Context, email, token string) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = &User{Email: email, Name: "Administrator", Role: RoleSuper, CreatedAt: time.Now()}
		if err := s.repo.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("creating super user: %w", err)
		}
		s.logger.Info("super user created", "email", email)
	case err != nil:
		return nil, fmt.Errorf("getting super user: %w", err)
	case !u.IsSuper():
		return nil, fmt.Errorf("user %s exists without super role: %w", email, ErrInvalidInput)
	}

	if token != "" {
		if _, err := s.keys.Resolve(ctx, HashToken(token)); errors.Is(err, repository.ErrNotFound) {
			if err := s.keys.Create(ctx, u.ID, HashToken(token), "bootstrap"); err != nil {
				return nil, fmt.Errorf("registering bootstrap token: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("checking bootstrap token: %w", err)
		}
	}
	return u, nil
}

func (s *Service) modifiable(ctx context.Context, actor User, id int64) (*User, error) {
	if !actor.Can(PermManageUsers) {
		return nil, ErrForbidden
	}
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.IsSuper() {
		return nil, ErrSuperImmutable
	}
	return target, nil
}

func (s *Service) validateGrants(ctx context.Context, perms []Permission, channels []string) error {
	for _, p := range perms {
		if !p.Valid() {
			return fmt.Errorf("unknown permission %q: %w", p, ErrInvalidInput)
		}
	}
	if len(channels) == 0 {
		return nil
	}
	known, err := s.channels.List(ctx)
	if err != nil {
		return fmt.Errorf("listing channels: %w", err)
	}
	for _, c := range channels {
		if !slices.Contains(known, c) {
			return fmt.Errorf("unknown channel %q: %w", c, ErrInvalidInput)
		}
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("email %q: %w", email, ErrInvalidInput)
	}
	return nil
}
