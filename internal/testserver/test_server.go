// Package testserver runs the full HTTP stack over an in-memory database for
// end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/portal"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/events"
	"github.com/ganot/logitrack/internal/mcp"
	"github.com/ganot/logitrack/internal/sqlite"
	"github.com/ganot/logitrack/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// SuperEmail is the bootstrap super user of every test server.
const SuperEmail = "admin@example.com"

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Token  string
	Super  user.User

	Orders  *order.Service
	Users   *user.Service
	Portals *portal.Service
}

// Options tweak the server under test.
type Options struct {
	// Now fixes the clock of the order service and the pages.
	Now func() time.Time
	// SyncSource is the workbook imported by sync calls without an upload.
	SyncSource string
}

// New starts a server whose super user authenticates with token.
func New(t *testing.T, token string) *TestServer {
	return NewWithOptions(t, token, Options{})
}

func NewWithOptions(t *testing.T, token string, opts Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	orderSvc := order.NewService(sqlite.NewOrderRepository(db), sqlite.NewHistoryRepository(db), events.Nop{}, nil)
	if opts.Now != nil {
		orderSvc.SetClock(opts.Now)
	}
	userSvc := user.NewService(sqlite.NewUserRepository(db), sqlite.NewAPIKeyRepository(db), sqlite.NewChannelRepository(db), nil)
	portalSvc := portal.NewService(portal.NewFileStore(filepath.Join(t.TempDir(), "portals.json")), nil)

	super, err := userSvc.EnsureSuper(context.Background(), SuperEmail, token)
	require.NoError(t, err)

	rpc := mcp.NewHandler(orderSvc)
	if opts.Now != nil {
		rpc.SetClock(opts.Now)
	}
	mcpServer := mcp.NewServer(mcp.Config{
		Orders:        orderSvc,
		Resolver:      userSvc,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return mcpServer
	}, &sdkmcp.StreamableHTTPOptions{Stateless: true})

	router := transport.NewServer(transport.Config{
		Orders:     orderSvc,
		Users:      userSvc,
		Portals:    portalSvc,
		RPC:        rpc,
		MCP:        mcpHandler,
		Auth:       transport.Authenticator{Resolver: userSvc},
		SyncSource: opts.SyncSource,
		Now:        opts.Now,
	})
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:  server,
		DB:      db,
		Token:   token,
		Super:   *super,
		Orders:  orderSvc,
		Users:   userSvc,
		Portals: portalSvc,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// URL returns the base URL of the server.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// Seed imports rows the way a sheet sync does.
func (ts *TestServer) Seed(t *testing.T, rows ...order.Order) {
	t.Helper()
	_, err := ts.Orders.Sync(context.Background(), ts.Super, rows)
	require.NoError(t, err)
}

// AddUser creates a regular user and returns it with its API token.
func (ts *TestServer) AddUser(t *testing.T, req user.CreateRequest) (user.User, string) {
	t.Helper()
	created, err := ts.Users.Create(context.Background(), ts.Super, req)
	require.NoError(t, err)
	return *created.User, created.Token
}
