package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is a trackctl subcommand.
type Command struct {
	// Flags defines command-specific flags. Nil means none.
	Flags *flag.FlagSet

	// Usage is shown after "trackctl" in help; its first word is the name.
	Usage string
	Short string

	Exec func(ctx context.Context, a *App, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

func (c *Command) printHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: trackctl", c.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, c.Short)
	if c.Flags != nil && c.Flags.HasFlags() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Flags:")
		c.Flags.SetOutput(w)
		c.Flags.PrintDefaults()
	}
}

// run parses flags and executes the command.
func (c *Command) run(ctx context.Context, a *App, args []string) error {
	fs := c.Flags
	if fs == nil {
		fs = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.printHelp(a.out)
			return nil
		}
		c.printHelp(a.errOut)
		return err
	}
	return c.Exec(ctx, a, fs.Args())
}
