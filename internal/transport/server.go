package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/portal"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/mcp"
	"github.com/ganot/logitrack/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// OrderService is the order surface served over HTTP.
type OrderService interface {
	mcp.OrderService
	Restore(ctx context.Context, actor user.User, historyID int64) (*order.Order, error)
	Sync(ctx context.Context, actor user.User, rows []order.Order) (*order.SyncResult, error)
}

// UserService is the user surface served over HTTP.
type UserService interface {
	UserResolver
	VisibleChannels(ctx context.Context, u user.User) ([]string, error)
	List(ctx context.Context, actor user.User) ([]user.User, error)
	Create(ctx context.Context, actor user.User, req user.CreateRequest) (*user.Created, error)
	SetPermissions(ctx context.Context, actor user.User, id int64, perms []user.Permission) (*user.User, error)
	SetChannels(ctx context.Context, actor user.User, id int64, channels []string) (*user.User, error)
}

// PortalService is the portal directory surface served over HTTP.
type PortalService interface {
	List(ctx context.Context) ([]portal.Client, error)
	AddClient(ctx context.Context, actor user.User, name string) (*portal.Client, error)
	DeleteClient(ctx context.Context, actor user.User, clientID string) error
	AddPortal(ctx context.Context, actor user.User, clientID string, req portal.AddPortalRequest) (*portal.Portal, error)
	UpdatePortal(ctx context.Context, actor user.User, portalID string, upd portal.PortalUpdate) (*portal.Portal, error)
	DeletePortal(ctx context.Context, actor user.User, portalID string) error
}

// Config wires the HTTP server.
type Config struct {
	Orders  OrderService
	Users   UserService
	Portals PortalService

	// RPC serves POST /rpc. MCP serves /mcp when set.
	RPC *mcp.Handler
	MCP http.Handler

	// Auth resolves credentials for API and page routes.
	Auth Authenticator

	// SyncSource is the workbook imported when sync is called without a file.
	SyncSource string
	SyncSheet  string

	Metrics bool
	Logger  *slog.Logger
	Now     func() time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	s := &Server{cfg: cfg, logger: cfg.Logger, now: cfg.Now}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.now == nil {
		s.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if cfg.Metrics {
		r.Use(metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Get("/health", s.handleHealth)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Get("/logout", s.handleLogout)

	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.AuthMiddleware)
		r.Post("/rpc", s.handleRPC)
		r.Route("/api", s.apiRoutes)
	})

	r.Group(func(r chi.Router) {
		r.Use(cfg.Auth.PageMiddleware)
		r.Get("/", s.handleDashboard)
		r.Get("/orders/{ref}", s.handleOrderPage)
		r.Get("/blocks/{id}", s.handleBlockPage)
		r.Get("/history", s.handleHistoryPage)
	})

	return r
}

func (s *Server) apiRoutes(r chi.Router) {
	r.Get("/me", s.handleMe)
	r.Get("/channels", s.handleChannels)

	r.Get("/orders", s.handleOrders)
	r.Post("/orders/sync", s.handleSync)
	r.Post("/orders/{ref}/status", s.handleStatus)
	r.Post("/orders/{ref}/notes", s.handleNotes)
	r.Post("/orders/{ref}/clear-notes", s.handleClearNotes)
	r.Post("/orders/{ref}/archive", s.handleArchive)
	r.Post("/tasks/{id}", s.handleTask)

	r.Post("/blocks", s.handleGroup)
	r.Post("/blocks/ungroup", s.handleUngroup)
	r.Get("/blocks/{id}", s.handleBlock)
	r.Post("/blocks/{id}/archive", s.handleArchiveBlock)

	r.Get("/history", s.handleHistory)
	r.Get("/history/download", s.handleHistoryDownload)
	r.Post("/history/{id}/restore", s.handleRestore)

	r.Get("/users", s.handleUsers)
	r.Post("/users", s.handleCreateUser)
	r.Post("/users/{id}/permissions", s.handleUserPermissions)
	r.Post("/users/{id}/channels", s.handleUserChannels)

	r.Get("/portals", s.handlePortals)
	r.Post("/portals", s.handleAddClient)
	r.Delete("/portals/{clientID}", s.handleDeleteClient)
	r.Post("/portals/{clientID}/portals", s.handleAddPortal)
	r.Patch("/portals/entries/{portalID}", s.handleUpdatePortal)
	r.Delete("/portals/entries/{portalID}", s.handleDeletePortal)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
