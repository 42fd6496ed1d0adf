package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ganot/logitrack/internal/domain/user"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// CookieName is the cookie holding the API token of a browser session.
const CookieName = "logitrack_token"

type userKey struct{}

// UserResolver resolves the user owning a bearer token.
type UserResolver interface {
	Resolve(ctx context.Context, token string) (*user.User, error)
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the authenticated user from context, if present.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userKey{}).(user.User)
	return u, ok
}

// tokenFrom reads the bearer token, falling back to the session cookie.
func tokenFrom(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Authenticator resolves request credentials. With Fixed set, every request
// acts as that user and no token is required.
type Authenticator struct {
	Resolver UserResolver
	Fixed    *user.User
}

func (a Authenticator) authenticate(r *http.Request) (user.User, error) {
	if a.Fixed != nil {
		return *a.Fixed, nil
	}
	token := tokenFrom(r)
	if token == "" {
		return user.User{}, ErrUnauthorized
	}
	u, err := a.Resolver.Resolve(r.Context(), token)
	if err != nil || u == nil {
		return user.User{}, ErrUnauthorized
	}
	return *u, nil
}

// AuthMiddleware enforces authentication on API routes, answering 401 JSON.
func (a Authenticator) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.authenticate(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// PageMiddleware enforces authentication on HTML routes, redirecting to the
// login page.
func (a Authenticator) PageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.authenticate(r)
		if err != nil {
			target := "/login?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// mustUser returns the user set by the auth middleware.
func mustUser(r *http.Request) user.User {
	u, _ := UserFromContext(r.Context())
	return u
}

// safeNext keeps post-login redirects on this site. Browsers read "/\" like
// "//", so a backslash after the leading slash is rejected too.
func safeNext(next string) string {
	if len(next) == 0 || next[0] != '/' {
		return "/"
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return "/"
	}
	return next
}
