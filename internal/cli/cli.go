// Package cli implements trackctl, the terminal front end of the order
// dashboard. Every command drives the same view-model as the web page through
// the JSON API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/ganot/logitrack/internal/api"
	"github.com/ganot/logitrack/internal/client"
	"github.com/ganot/logitrack/internal/dashboard"
	flag "github.com/spf13/pflag"
)

// App holds what every command needs: the API client and the output streams.
type App struct {
	out     io.Writer
	errOut  io.Writer
	client  *client.Client
	channel string
	logger  *slog.Logger
	now     func() time.Time

	session *dashboard.Session
}

// Run is the main entry point. Returns exit code.
func Run(ctx context.Context, out, errOut io.Writer, args []string, env map[string]string) int {
	global := flag.NewFlagSet("trackctl", flag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)

	baseURL := global.String("url", envOr(env, "LOGITRACK_URL", client.DefaultURL), "server URL (env LOGITRACK_URL)")
	token := global.String("token", env["LOGITRACK_TOKEN"], "API token (env LOGITRACK_TOKEN)")
	channel := global.String("channel", env["LOGITRACK_CHANNEL"], "channel to load; empty for your default")
	verbose := global.BoolP("verbose", "v", false, "log requests to stderr")

	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, global)
			return 0
		}
		fmt.Fprintln(errOut, "error:", err)
		printUsage(errOut, global)
		return 1
	}

	rest := global.Args()
	if len(rest) == 0 {
		printUsage(out, global)
		return 0
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	a := &App{
		out:     out,
		errOut:  errOut,
		client:  client.New(*baseURL, *token),
		channel: *channel,
		logger:  slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level})),
		now:     time.Now,
	}

	cmd := findCommand(rest[0])
	if cmd == nil {
		fmt.Fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, global)
		return 1
	}
	if err := cmd.run(ctx, a, rest[1:]); err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			fmt.Fprintln(errOut, "error: the server rejected the token; set --token or LOGITRACK_TOKEN")
			return 1
		}
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func envOr(env map[string]string, key, fallback string) string {
	if v := env[key]; v != "" {
		return v
	}
	return fallback
}

func findCommand(name string) *Command {
	i := slices.IndexFunc(commands, func(c *Command) bool { return c.Name() == name })
	if i < 0 {
		return nil
	}
	return commands[i]
}

func printUsage(w io.Writer, global *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: trackctl [global flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintln(w, c.HelpLine())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	global.SetOutput(w)
	global.PrintDefaults()
}

// open signs in and loads the configured channel into a fresh dashboard session.
func (a *App) open(ctx context.Context) (dashboard.View, error) {
	if a.session != nil {
		return a.session.View(), nil
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return dashboard.View{}, err
	}
	d := dashboard.NewDispatcher(a.client, nil, a.logger)
	d.SetClock(a.now)
	a.session = dashboard.NewSession(d, me.User)
	return a.dispatch(ctx, dashboard.LoadAction{Channel: a.channel})
}

// dispatch applies an action and turns a rejected session or alert into an error.
func (a *App) dispatch(ctx context.Context, act dashboard.Action) (dashboard.View, error) {
	v := a.session.Dispatch(ctx, act)
	if !v.Auth {
		return v, api.ErrUnauthenticated
	}
	if v.Alert != "" {
		return v, errors.New(v.Alert)
	}
	return v, nil
}
