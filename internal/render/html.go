package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"money":    Money,
	"when":     When,
	"tabLabel": TabLabel,
	"progress": TaskProgress,
	"tabs":     func() []dashboard.Tab { return dashboard.Tabs },
}).ParseFS(templateFS, "templates/*.html"))

// LoginPage is the sign-in form.
type LoginPage struct {
	Error string
	Next  string
}

// HistoryPage lists archived orders.
type HistoryPage struct {
	User       user.User
	Filter     order.HistoryFilter
	Channels   []string
	Entries    []order.HistoryEntry
	CanRestore bool
	Alert      string
}

// OrderPage wraps the order modal with the view it opens over.
type OrderPage struct {
	View   dashboard.View
	Detail dashboard.OrderDetail
}

// BlockPage wraps the block modal with the view it opens over.
type BlockPage struct {
	View  dashboard.View
	Block dashboard.BlockView
}

func execute(w io.Writer, name string, data any) error {
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// HTML writes the dashboard page.
func HTML(w io.Writer, v dashboard.View) error {
	return execute(w, "dashboard.html", v)
}

// Login writes the sign-in page.
func Login(w io.Writer, p LoginPage) error {
	return execute(w, "login.html", p)
}

// OrderModal writes the dashboard with the order detail open.
func OrderModal(w io.Writer, p OrderPage) error {
	return execute(w, "order.html", p)
}

// BlockModal writes the dashboard with the block detail open.
func BlockModal(w io.Writer, p BlockPage) error {
	return execute(w, "block.html", p)
}

// History writes the archived orders page.
func History(w io.Writer, p HistoryPage) error {
	return execute(w, "history.html", p)
}
