package transport

import (
	"bytes"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
	"github.com/ganot/logitrack/internal/render"
	"github.com/go-chi/chi/v5"
)

// sessionTTL is how long the browser keeps the token cookie.
const sessionTTL = 12 * time.Hour

// pageState loads the dashboard state described by the query string.
func (s *Server) pageState(r *http.Request) (dashboard.State, error) {
	u := mustUser(r)
	q := r.URL.Query()
	requested := q.Get("channel")
	channel := requested
	if channel == "" {
		channel = order.AllChannels
	}

	orders, err := s.cfg.Orders.List(r.Context(), u, channel)
	if err != nil {
		return dashboard.State{}, err
	}
	channels, err := s.cfg.Users.VisibleChannels(r.Context(), u)
	if err != nil {
		return dashboard.State{}, err
	}

	now := s.now()
	st := dashboard.NewState(u, now)
	st = dashboard.Loaded(st, dashboard.CacheKey(requested), channel, orders, channels, now)
	st = dashboard.SetQuery(st, q.Get("q"))
	st = dashboard.SetClientFilter(st, q.Get("client"))
	if tab := dashboard.Tab(q.Get("tab")); slices.Contains(dashboard.Tabs, tab) {
		st = dashboard.SetTab(st, tab)
	}
	return st, nil
}

// page renders into a buffer first so template errors never send half a page.
func (s *Server) page(w http.ResponseWriter, status int, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.logger.Error("render failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) pageError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("page failed", "error", err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st, err := s.pageState(r)
	if err != nil {
		s.pageError(w, err)
		return
	}
	s.page(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return render.HTML(buf, dashboard.BuildView(st))
	})
}

func (s *Server) handleOrderPage(w http.ResponseWriter, r *http.Request) {
	st, err := s.pageState(r)
	if err != nil {
		s.pageError(w, err)
		return
	}
	detail, ok := dashboard.DetailFor(st, chi.URLParam(r, "ref"))
	if !ok {
		s.pageError(w, order.ErrOrderNotFound)
		return
	}
	s.page(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return render.OrderModal(buf, render.OrderPage{View: dashboard.BuildView(st), Detail: detail})
	})
}

func (s *Server) handleBlockPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.pageError(w, err)
		return
	}
	detail, err := s.cfg.Orders.BlockDetail(r.Context(), mustUser(r), id)
	if err != nil {
		s.pageError(w, err)
		return
	}
	st, err := s.pageState(r)
	if err != nil {
		s.pageError(w, err)
		return
	}
	bv, ok := dashboard.BlockFor(st, id)
	if !ok {
		s.pageError(w, order.ErrBlockNotFound)
		return
	}
	bv.Block = detail.Block
	s.page(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return render.BlockModal(buf, render.BlockPage{View: dashboard.BuildView(st), Block: bv})
	})
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	u := mustUser(r)
	filter := historyFilter(r)
	p := render.HistoryPage{User: u, Filter: filter, CanRestore: u.Can(user.PermArchiveOrders)}

	channels, err := s.cfg.Users.VisibleChannels(r.Context(), u)
	if err != nil {
		s.pageError(w, err)
		return
	}
	p.Channels = channels

	entries, err := s.cfg.Orders.History(r.Context(), u, filter)
	switch {
	case errors.Is(err, order.ErrForbidden):
		p.Alert = "You can't see that channel."
	case err != nil:
		s.pageError(w, err)
		return
	default:
		p.Entries = entries
	}
	s.page(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return render.History(buf, p)
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	s.page(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return render.Login(buf, render.LoginPage{Next: next})
	})
}

// handleLogin checks the token and stores it in the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.pageError(w, errBadBody)
		return
	}
	token := r.PostForm.Get("token")
	next := safeNext(r.PostForm.Get("next"))

	resolver := s.cfg.Auth.Resolver
	if resolver == nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	u, err := resolver.Resolve(r.Context(), token)
	if err != nil || u == nil {
		s.logger.Info("login rejected", "remote", r.RemoteAddr)
		s.page(w, http.StatusUnauthorized, func(buf *bytes.Buffer) error {
			return render.Login(buf, render.LoginPage{Error: "Invalid token", Next: next})
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("user signed in", "email", u.Email)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
