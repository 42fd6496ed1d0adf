package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	alertStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	activeTab     = lipgloss.NewStyle().Bold(true).Underline(true)
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	priorityStyle = map[dashboard.Priority]lipgloss.Style{
		dashboard.PriorityExpired: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dashboard.PriorityUrgent:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dashboard.PriorityMedium:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		dashboard.PriorityNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		dashboard.PriorityLow:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

// column widths of the order table
var widths = []int{3, 14, 22, 17, 9, 12, 13, 6}

func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(dashboard.Snippet(s, width-1))
}

func tableLine(cols ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = cell(c, widths[i])
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

// Text writes the dashboard for a terminal.
func Text(w io.Writer, v dashboard.View) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("logitrack") + " " + faintStyle.Render(v.User.Email+" · "+channelLabel(v.Channel)) + "\n")
	if v.Query != "" || v.ClientFilter != "" {
		b.WriteString(faintStyle.Render(fmt.Sprintf("search %q client %q", v.Query, v.ClientFilter)) + "\n")
	}
	if v.Alert != "" {
		b.WriteString(alertStyle.Render("! "+v.Alert) + "\n")
	}
	if v.Notice != "" {
		b.WriteString(noticeStyle.Render(v.Notice) + "\n")
	}
	if v.Loading {
		b.WriteString(faintStyle.Render("loading...") + "\n")
	}

	k := v.KPIs
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render(fmt.Sprintf("Today\n%d orders · %s\n%d bottles · %d cases", k.TodayCount, Money(k.TodayValue), k.TodayBottles, k.TodayCases)),
		cardStyle.Render(fmt.Sprintf("Tomorrow\n%d orders · %s", k.TomorrowCount, Money(k.TomorrowValue))),
		cardStyle.Render(fmt.Sprintf("Active\n%d orders · %s", k.ActiveCount, Money(k.ActiveValue))),
	)
	b.WriteString(cards + "\n")

	b.WriteString(titleStyle.Render("Today") + "\n" + rowLines(v.Today))
	b.WriteString(titleStyle.Render("Tomorrow") + "\n" + rowLines(v.Tomorrow))

	if len(v.Notes) > 0 {
		b.WriteString(titleStyle.Render("Notes") + "\n")
		for _, n := range v.Notes {
			fmt.Fprintf(&b, "  %s %s: %s\n", n.Ref, n.Client, n.Snippet)
		}
	}

	tabs := make([]string, len(dashboard.Tabs))
	for i, t := range dashboard.Tabs {
		label := fmt.Sprintf("%s (%d)", TabLabel(t), len(v.Buckets.ForTab(t)))
		if t == v.Tab {
			label = activeTab.Render(label)
		}
		tabs[i] = label
	}
	b.WriteString("\n" + strings.Join(tabs, "   ") + "\n")

	b.WriteString(faintStyle.Render(tableLine("", "Order", "Client", "Delivery", "Priority", "Status", "Subtotal", "Tasks")) + "\n")
	items := v.ActiveTab()
	if len(items) == 0 {
		b.WriteString(faintStyle.Render("  no orders") + "\n")
	}
	for _, it := range items {
		mark := ""
		switch {
		case v.Selected(it.Ref):
			mark = "[x]"
		case v.CanSelect:
			mark = "[ ]"
		}
		ref := it.Ref
		if it.BlockID != nil {
			ref += fmt.Sprintf(" #%d", *it.BlockID)
		}
		line := tableLine(mark, ref, it.Client, When(it.DeliveryDate, it.DeliveryTime),
			it.Priority.Label(), it.Status.Label(), Money(it.Subtotal), TaskProgress(it.Tasks))
		b.WriteString(priorityStyle[it.Priority].Render(line) + "\n")
	}

	if len(v.Selection) > 0 {
		fmt.Fprintf(&b, "\nselected: %s", strings.Join(v.Selection, ", "))
		if v.CanGroup {
			b.WriteString(" (group with `group`)")
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func channelLabel(c string) string {
	if c == "" || c == order.AllChannels {
		return "all channels"
	}
	return c
}

func rowLines(rows []dashboard.Row) string {
	if len(rows) == 0 {
		return faintStyle.Render("  nothing scheduled") + "\n"
	}
	var b strings.Builder
	for _, r := range rows {
		it := r.Item
		if r.IsBlock() {
			fmt.Fprintf(&b, "  block #%d (%d orders) %s %s %s\n", r.BlockID, r.Count, it.Client, When(it.DeliveryDate, it.DeliveryTime), it.Status.Label())
			continue
		}
		fmt.Fprintf(&b, "  %s %s %s %s\n", it.Ref, it.Client, When(it.DeliveryDate, it.DeliveryTime), it.Status.Label())
	}
	return b.String()
}

// TextOrder writes the detail of one order.
func TextOrder(w io.Writer, d dashboard.OrderDetail) error {
	it := d.Item
	var b strings.Builder

	title := fmt.Sprintf("%s · %s", it.Ref, it.Client)
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(priorityStyle[it.Priority].Render(it.Priority.Label()) + " · " + it.Status.Label() + "\n")
	fmt.Fprintf(&b, "channel      %s\n", it.Channel)
	fmt.Fprintf(&b, "sales order  %s\n", it.SalesOrder)
	fmt.Fprintf(&b, "invoice      %s\n", it.Invoice)
	fmt.Fprintf(&b, "delivery     %s\n", When(it.DeliveryDate, it.DeliveryTime))
	fmt.Fprintf(&b, "destination  %s\n", it.Destination)
	fmt.Fprintf(&b, "bottles      %d\ncases        %d\nsubtotal     %s\n", it.Bottles, it.Cases, Money(it.Subtotal))
	if it.BlockID != nil {
		fmt.Fprintf(&b, "block        #%d\n", *it.BlockID)
	}

	fmt.Fprintf(&b, "\n%s %s\n", titleStyle.Render("Checklist"), TaskProgress(it.Tasks))
	for _, t := range it.Tasks {
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		fmt.Fprintf(&b, "  %s %d %s\n", box, t.ID, t.Description)
	}
	if it.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", titleStyle.Render("Notes"), it.Notes)
	}

	var actions []string
	if d.CanStatus {
		actions = append(actions, "status")
	}
	if d.CanNotes {
		actions = append(actions, "notes")
	}
	if d.CanArchive {
		actions = append(actions, "archive")
	}
	if len(actions) > 0 {
		b.WriteString("\n" + faintStyle.Render("actions: "+strings.Join(actions, ", ")) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// TextBlock writes a block with its members and totals.
func TextBlock(w io.Writer, bv dashboard.BlockView) error {
	var b strings.Builder
	title := fmt.Sprintf("Block #%d", bv.ID)
	if bv.Name != "" {
		title += " · " + bv.Name
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	fmt.Fprintf(&b, "%s · %d bottles · %d cases · %s\n", bv.Client, bv.Bottles, bv.Cases, Money(bv.Subtotal))
	for _, o := range bv.Orders {
		fmt.Fprintf(&b, "  %s %s %s %s %s\n", o.Ref, o.Client, When(o.DeliveryDate, o.DeliveryTime), o.Status.Label(), Money(o.Subtotal))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// TextHistory writes archived orders, one per line.
func TextHistory(w io.Writer, entries []order.HistoryEntry) error {
	var b strings.Builder
	if len(entries) == 0 {
		b.WriteString(faintStyle.Render("no archived orders") + "\n")
	}
	for _, h := range entries {
		fmt.Fprintf(&b, "%4d %s %s %s %s %s archived %s\n",
			h.ID, h.Ref, h.Client, h.Channel, h.FinalStatus.Label(), Money(h.Subtotal), h.ArchivedAt.Format("02/01/2006 15:04"))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
