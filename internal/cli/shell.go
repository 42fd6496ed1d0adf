package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/render"
	"github.com/peterh/liner"
)

// prompter reads shell input one line at a time.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
}

var shellVerbs = []string{
	"view", "show", "block", "history",
	"load", "refresh", "search", "client", "tab", "select", "clear", "group", "ungroup",
	"status", "notes", "clear-notes", "task", "archive", "archive-block", "restore", "sync",
	"help", "quit", "exit",
}

const shellHelp = `Commands:
  view                         Redraw the dashboard
  show <ref>                   Order detail
  block <id>                   Block detail
  history [client]             Archived orders
  load [channel]               Switch channel (cached)
  refresh [channel]            Reload from the server
  search [query]               Filter by text; empty clears
  client [name]                Filter by client; empty clears
  tab <urgent|upcoming|normal> Select a priority tab
  select <ref>                 Toggle an order in the selection
  clear                        Clear the selection
  group                        Group the selection into a block
  ungroup <block-id>           Dissolve a block
  status <ref> <status>        Change status
  notes <ref> <text...>        Replace notes
  clear-notes <ref>            Remove notes
  task <id> <done|undone>      Check a task
  archive <ref>                Archive a finished order
  archive-block <id>           Archive a finished block
  restore <history-id>         Restore from history
  sync                         Import from the spreadsheet source
  quit                         Leave the shell`

type linerPrompter struct {
	*liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".trackctl_history")
}

func newLinerPrompter() *linerPrompter {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	l.SetCompleter(func(line string) []string {
		var out []string
		for _, v := range shellVerbs {
			if strings.HasPrefix(v, strings.ToLower(line)) {
				out = append(out, v)
			}
		}
		return out
	})
	if f, err := os.Open(historyFile()); err == nil {
		l.ReadHistory(f)
		f.Close()
	}
	return &linerPrompter{State: l}
}

// Close saves the history and restores the terminal.
func (p *linerPrompter) Close() error {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			p.WriteHistory(f)
			f.Close()
		}
	}
	return p.State.Close()
}

// shell runs the interactive loop until quit or end of input. Errors from a
// single line are printed and the loop continues; only a rejected token ends it.
func (a *App) shell(ctx context.Context, p prompter) error {
	if err := render.Text(a.out, a.session.View()); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Type 'help' for commands.")

	for {
		line, err := p.Prompt("trackctl> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p.AppendHistory(line)

		fields := strings.Fields(line)
		verb, args := strings.ToLower(fields[0]), fields[1:]
		if verb == "quit" || verb == "exit" {
			return nil
		}

		err = a.shellLine(ctx, verb, args)
		if errors.Is(err, api.ErrUnauthenticated) {
			return err
		}
		if err != nil {
			fmt.Fprintln(a.errOut, "error:", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (a *App) shellLine(ctx context.Context, verb string, args []string) error {
	switch verb {
	case "help", "?":
		fmt.Fprintln(a.out, shellHelp)
		return nil
	case "view":
		return render.Text(a.out, a.session.View())
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("show: %w", errUsage)
		}
		return a.showOrder(args[0])
	case "block":
		if len(args) != 1 {
			return fmt.Errorf("block: %w", errUsage)
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return a.showBlock(ctx, id)
	case "history":
		entries, err := a.client.History(ctx, order.HistoryFilter{Client: strings.Join(args, " ")})
		if err != nil {
			return err
		}
		return render.TextHistory(a.out, entries)
	}

	act, err := parseAction(verb, args)
	if err != nil {
		return err
	}
	v, err := a.dispatch(ctx, act)
	if err != nil {
		return err
	}
	return render.Text(a.out, v)
}
