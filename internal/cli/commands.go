package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ganot/logitrack/internal/dashboard"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/render"
	flag "github.com/spf13/pflag"
)

var commands = []*Command{
	dashboardCmd(),
	searchCmd(),
	showCmd(),
	blockCmd(),
	actionCmd("status <ref> <status>", "Change the status of an order and its block"),
	actionCmd("notes <ref> <text...>", "Replace the notes of an order"),
	actionCmd("clear-notes <ref>", "Remove the notes of an order"),
	actionCmd("task <id> <done|undone>", "Check or uncheck a checklist task"),
	actionCmd("archive <ref>", "Move a finished order to history"),
	actionCmd("archive-block <id>", "Move every order of a finished block to history"),
	groupCmd(),
	actionCmd("ungroup <block-id>", "Dissolve a block"),
	actionCmd("restore <history-id>", "Bring an archived order back to the dashboard"),
	historyCmd(),
	downloadCmd(),
	syncCmd(),
	shellCmd(),
}

func dashboardCmd() *Command {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	tab := fs.StringP("tab", "t", "", "priority tab: urgent, upcoming or normal")

	return &Command{
		Flags: fs,
		Usage: "dashboard",
		Short: "Show the dashboard for the selected channel",
		Exec: func(ctx context.Context, a *App, _ []string) error {
			v, err := a.open(ctx)
			if err != nil {
				return err
			}
			if *tab != "" {
				act, err := parseAction("tab", []string{*tab})
				if err != nil {
					return err
				}
				if v, err = a.dispatch(ctx, act); err != nil {
					return err
				}
			}
			return render.Text(a.out, v)
		},
	}
}

func searchCmd() *Command {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	client := fs.StringP("client", "c", "", "only orders of this client")

	return &Command{
		Flags: fs,
		Usage: "search [query...]",
		Short: "Filter the dashboard by ref, client, destination or document",
		Exec: func(ctx context.Context, a *App, args []string) error {
			if _, err := a.open(ctx); err != nil {
				return err
			}
			if _, err := a.dispatch(ctx, dashboard.FilterClientAction{Client: *client}); err != nil {
				return err
			}
			v, err := a.dispatch(ctx, dashboard.SearchAction{Query: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			return render.Text(a.out, v)
		},
	}
}

func showCmd() *Command {
	return &Command{
		Usage: "show <ref>",
		Short: "Show one order with its checklist and notes",
		Exec: func(ctx context.Context, a *App, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("show: %w", errUsage)
			}
			if _, err := a.open(ctx); err != nil {
				return err
			}
			return a.showOrder(args[0])
		},
	}
}

func blockCmd() *Command {
	return &Command{
		Usage: "block <id>",
		Short: "Show a block with its members and totals",
		Exec: func(ctx context.Context, a *App, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("block: %w", errUsage)
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.open(ctx); err != nil {
				return err
			}
			return a.showBlock(ctx, id)
		},
	}
}

// actionCmd builds a command that dispatches a single dashboard action and
// prints the resulting notice.
func actionCmd(usage, short string) *Command {
	c := &Command{Usage: usage, Short: short}
	c.Exec = func(ctx context.Context, a *App, args []string) error {
		act, err := parseAction(c.Name(), args)
		if err != nil {
			return err
		}
		if _, err := a.open(ctx); err != nil {
			return err
		}
		v, err := a.dispatch(ctx, act)
		if err != nil {
			return err
		}
		a.notice(v)
		return nil
	}
	return c
}

func groupCmd() *Command {
	return &Command{
		Usage: "group <ref> <ref...>",
		Short: "Group orders of one client into a block",
		Exec: func(ctx context.Context, a *App, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("group: %w", errUsage)
			}
			if _, err := a.open(ctx); err != nil {
				return err
			}
			for _, ref := range args {
				if _, err := a.dispatch(ctx, dashboard.ToggleSelectAction{Ref: ref}); err != nil {
					return err
				}
			}
			v, err := a.dispatch(ctx, dashboard.GroupAction{})
			if err != nil {
				return err
			}
			a.notice(v)
			return nil
		},
	}
}

func historyFlags(name string) (*flag.FlagSet, *order.HistoryFilter) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	f := &order.HistoryFilter{}
	fs.StringVar(&f.Client, "client", "", "client name contains")
	fs.StringVar(&f.Locality, "locality", "", "destination contains")
	fs.StringVar(&f.Channel, "channel", "", "channel, or ALL")
	fs.StringVar(&f.StartDate, "from", "", "archived on or after (YYYY-MM-DD)")
	fs.StringVar(&f.EndDate, "to", "", "archived on or before (YYYY-MM-DD)")
	return fs, f
}

func historyCmd() *Command {
	fs, filter := historyFlags("history")
	return &Command{
		Flags: fs,
		Usage: "history",
		Short: "List archived orders",
		Exec: func(ctx context.Context, a *App, _ []string) error {
			entries, err := a.client.History(ctx, *filter)
			if err != nil {
				return err
			}
			return render.TextHistory(a.out, entries)
		},
	}
}

func downloadCmd() *Command {
	fs, filter := historyFlags("download")
	dir := fs.StringP("out", "o", ".", "directory to write the spreadsheet to")

	return &Command{
		Flags: fs,
		Usage: "download",
		Short: "Download the filtered history as a spreadsheet",
		Exec: func(ctx context.Context, a *App, _ []string) error {
			tmp, err := os.CreateTemp(*dir, ".history-*.xlsx")
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			defer os.Remove(tmp.Name())

			name, err := a.client.DownloadHistory(ctx, *filter, tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			if name == "" {
				name = "history.xlsx"
			}
			dest := filepath.Join(*dir, filepath.Base(name))
			if err := os.Rename(tmp.Name(), dest); err != nil {
				return fmt.Errorf("failed to save %s: %w", dest, err)
			}
			fmt.Fprintln(a.out, dest)
			return nil
		},
	}
}

func syncCmd() *Command {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	file := fs.StringP("file", "f", "", "upload this workbook instead of the server's source")

	return &Command{
		Flags: fs,
		Usage: "sync",
		Short: "Import orders from the spreadsheet source",
		Exec: func(ctx context.Context, a *App, _ []string) error {
			if *file == "" {
				if _, err := a.open(ctx); err != nil {
					return err
				}
				v, err := a.dispatch(ctx, dashboard.SyncAction{})
				if err != nil {
					return err
				}
				a.notice(v)
				return nil
			}

			f, err := os.Open(*file)
			if err != nil {
				return fmt.Errorf("failed to open workbook: %w", err)
			}
			defer f.Close()

			res, err := a.client.SyncFile(ctx, filepath.Base(*file), f)
			if err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			fmt.Fprintln(a.out, res.Message)
			return nil
		},
	}
}

func shellCmd() *Command {
	return &Command{
		Usage: "shell",
		Short: "Open an interactive dashboard",
		Exec: func(ctx context.Context, a *App, _ []string) error {
			if _, err := a.open(ctx); err != nil {
				return err
			}
			p := newLinerPrompter()
			defer p.Close()
			return a.shell(ctx, p)
		},
	}
}

func (a *App) notice(v dashboard.View) {
	if v.Notice != "" {
		fmt.Fprintln(a.out, v.Notice)
	}
}

func (a *App) showOrder(ref string) error {
	d, ok := dashboard.DetailFor(a.session.State(), ref)
	if !ok {
		return fmt.Errorf("order %s is not on the dashboard", ref)
	}
	return render.TextOrder(a.out, d)
}

func (a *App) showBlock(ctx context.Context, id int64) error {
	bv, ok := dashboard.BlockFor(a.session.State(), id)
	if !ok {
		return fmt.Errorf("block #%d is not on the dashboard", id)
	}
	if detail, err := a.client.BlockDetail(ctx, id); err == nil {
		bv.Name = detail.Name
	}
	return render.TextBlock(a.out, bv)
}
