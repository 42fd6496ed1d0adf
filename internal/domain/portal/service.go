package portal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/google/uuid"
)

// Service manages client portal credentials.
type Service struct {
	store  Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new portal service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, logger: logger}
}

// AddPortalRequest defines portal creation inputs.
type AddPortalRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// List returns every client with its portals.
func (s *Service) List(ctx context.Context) ([]Client, error) {
	clients, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading portals: %w", err)
	}
	return clients, nil
}

// AddClient creates a client. Names are unique ignoring case; new clients are listed first.
func (s *Service) AddClient(ctx context.Context, actor user.User, name string) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("missing client name: %w", ErrInvalidInput)
	}

	var created Client
	err := s.update(ctx, actor, func(clients []Client) ([]Client, error) {
		for _, c := range clients {
			if strings.EqualFold(c.Name, name) {
				return nil, ErrDuplicateClient
			}
		}
		created = Client{ID: uuid.NewString(), Name: name, Portals: []Portal{}}
		return append([]Client{created}, clients...), nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("portal client added", "client_id", created.ID, "by", actor.Email)
	return &created, nil
}

// DeleteClient removes a client and its portals.
func (s *Service) DeleteClient(ctx context.Context, actor user.User, clientID string) error {
	return s.update(ctx, actor, func(clients []Client) ([]Client, error) {
		i := slices.IndexFunc(clients, func(c Client) bool { return c.ID == clientID })
		if i < 0 {
			return nil, ErrClientNotFound
		}
		return slices.Delete(clients, i, i+1), nil
	})
}

// AddPortal attaches a portal to a client.
func (s *Service) AddPortal(ctx context.Context, actor user.User, clientID string, req AddPortalRequest) (*Portal, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("portal needs name and url: %w", ErrInvalidInput)
	}

	p := Portal{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		URL:      strings.TrimSpace(req.URL),
		Username: req.Username,
		Password: req.Password,
	}
	err := s.update(ctx, actor, func(clients []Client) ([]Client, error) {
		i := slices.IndexFunc(clients, func(c Client) bool { return c.ID == clientID })
		if i < 0 {
			return nil, ErrClientNotFound
		}
		clients[i].Portals = append(clients[i].Portals, p)
		return clients, nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePortal changes the given fields of a portal.
func (s *Service) UpdatePortal(ctx context.Context, actor user.User, portalID string, upd PortalUpdate) (*Portal, error) {
	var updated Portal
	err := s.update(ctx, actor, func(clients []Client) ([]Client, error) {
		for ci := range clients {
			for pi := range clients[ci].Portals {
				p := &clients[ci].Portals[pi]
				if p.ID != portalID {
					continue
				}
				if upd.Name != nil {
					p.Name = *upd.Name
				}
				if upd.URL != nil {
					p.URL = *upd.URL
				}
				if upd.Username != nil {
					p.Username = *upd.Username
				}
				if upd.Password != nil {
					p.Password = *upd.Password
				}
				updated = *p
				return clients, nil
			}
		}
		return nil, ErrPortalNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePortal removes a portal from whichever client holds it.
func (s *Service) DeletePortal(ctx context.Context, actor user.User, portalID string) error {
	return s.update(ctx, actor, func(clients []Client) ([]Client, error) {
		for ci := range clients {
			i := slices.IndexFunc(clients[ci].Portals, func(p Portal) bool { return p.ID == portalID })
			if i >= 0 {
				clients[ci].Portals = slices.Delete(clients[ci].Portals, i, i+1)
				return clients, nil
			}
		}
		return nil, ErrPortalNotFound
	})
}

// update runs a read-modify-write cycle under the service lock.
func (s *Service) update(ctx context.Context, actor user.User, fn func([]Client) ([]Client, error)) error {
	if !actor.Can(user.PermManagePortals) {
		return ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clients, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading portals: %w", err)
	}
	next, err := fn(clients)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("saving portals: %w", err)
	}
	return nil
}
