package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/ganot/logitrack/internal/domain/user"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var errUnauthenticated = errors.New("unauthenticated")

type contextKey int

const userKey contextKey = iota

// WithUser returns a context acting as u.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the acting user, if present.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey).(user.User)
	return u, ok
}

// UserResolver resolves the user owning a bearer token.
type UserResolver interface {
	Resolve(ctx context.Context, token string) (*user.User, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver UserResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Protocol handshakes carry no credentials
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, errUnauthenticated
			}
			token := strings.TrimSpace(strings.TrimPrefix(extra.Header.Get("Authorization"), "Bearer "))
			if token == "" {
				return nil, errUnauthenticated
			}

			u, err := resolver.Resolve(ctx, token)
			if err != nil {
				return nil, mapError(err)
			}
			return next(WithUser(ctx, *u), method, req)
		}
	}
}

// fixedUserMiddleware acts as u for every request when auth is disabled.
func fixedUserMiddleware(u user.User) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			return next(WithUser(ctx, u), method, req)
		}
	}
}
