package dashboard

import (
	"slices"
	"time"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/domain/user"
)

// View is the render-ready projection of a State. Renderers only read it.
type View struct {
	User     user.User
	Auth     bool
	Channel  string
	Channels []string
	Clients  []string

	Query        string
	ClientFilter string
	Tab          Tab

	Buckets  Buckets
	Today    []Row
	Tomorrow []Row
	KPIs     KPIs
	Notes    []Note

	Selection []string
	CanSelect bool
	CanGroup  bool

	Loading bool
	Alert   string
	Notice  string
	Now     time.Time
}

// BuildView derives everything shown from s. Search and client filter apply to
// the buckets, KPIs and notes alike.
func BuildView(s State) View {
	visible := s.Visible()
	active := Active(visible)
	b := Partition(visible, s.Now)

	return View{
		User:         s.User,
		Auth:         s.Auth,
		Channel:      s.Channel,
		Channels:     s.Channels,
		Clients:      Clients(s.Orders),
		Query:        s.Query,
		ClientFilter: s.ClientFilter,
		Tab:          s.Tab,
		Buckets:      b,
		Today:        CollapseBlocks(b.Today),
		Tomorrow:     CollapseBlocks(b.Tomorrow),
		KPIs:         ComputeKPIs(active, b),
		Notes:        NotesCard(active),
		Selection:    s.Selection.Refs(),
		CanSelect:    s.User.Can(user.PermGroupOrders),
		CanGroup:     CanGroup(s.Selection, s.User),
		Loading:      s.Loading,
		Alert:        s.Alert,
		Notice:       s.Notice,
		Now:          s.Now,
	}
}

// Selected reports whether ref is checked.
func (v View) Selected(ref string) bool {
	return slices.Contains(v.Selection, ref)
}

// Can reports whether the viewing user holds p.
func (v View) Can(p user.Permission) bool {
	return v.User.Can(p)
}

// ActiveTab returns the rows of the selected tab.
func (v View) ActiveTab() []Item {
	return v.Buckets.ForTab(v.Tab)
}

// OrderDetail is the content of the order modal. A final status offers
// archiving; any other status offers the next statuses. A block member is only
// archivable together with its whole block.
type OrderDetail struct {
	Item       Item
	Statuses   []order.Status
	CanArchive bool
	CanStatus  bool
	CanNotes   bool
}

// DetailFor builds the order modal for ref.
func DetailFor(s State, ref string) (OrderDetail, bool) {
	it, ok := Find(s.Orders, ref)
	if !ok {
		return OrderDetail{}, false
	}
	final := it.Status.Final()
	canArchive := final && s.User.Can(user.PermArchiveOrders)
	if it.BlockID != nil {
		// archiving a member archives the block, so every member must be final
		for _, m := range BlockMembers(s.Orders, *it.BlockID) {
			canArchive = canArchive && m.Status.Final()
		}
	}
	return OrderDetail{
		Item:       it,
		Statuses:   order.Statuses[1:],
		CanArchive: canArchive,
		CanStatus:  !final && s.User.Can(user.PermUpdateStatus),
		CanNotes:   s.User.Can(user.PermEditNotes),
	}, true
}

// BlockView is the content of the block modal.
type BlockView struct {
	order.BlockDetail
	CanUngroup bool
	CanArchive bool
}

// BlockFor builds the block modal from the members in the local list.
func BlockFor(s State, blockID int64) (BlockView, bool) {
	members := BlockMembers(s.Orders, blockID)
	if len(members) == 0 {
		return BlockView{}, false
	}
	canArchive := s.User.Can(user.PermArchiveOrders)
	for _, m := range members {
		canArchive = canArchive && m.Status.Final()
	}
	return BlockView{
		BlockDetail: order.SummarizeBlock(order.Block{ID: blockID}, Orders(members)),
		CanUngroup:  s.User.Can(user.PermGroupOrders),
		CanArchive:  canArchive,
	}, true
}
