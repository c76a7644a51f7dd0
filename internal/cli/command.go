package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

// Command is one REPL command. Flags are registered on a fresh FlagSet for
// every invocation so nothing leaks between runs.
type Command struct {
	// Usage starts with the command name, e.g. "range <templateId> [flags]".
	Usage string
	Short string
	// MinArgs is the number of positional arguments required after flags.
	MinArgs int
	Flags   func(fs *flag.FlagSet)
	Exec    func(ctx context.Context, fs *flag.FlagSet, args []string) error
}

func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-40s %s", c.Usage, c.Short)
}

func (c *Command) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if c.Flags != nil {
		c.Flags(fs)
	}
	return fs
}

// PrintHelp writes the usage line and flag defaults to w.
func (c *Command) PrintHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage:", c.Usage)
	fmt.Fprintln(w, c.Short)
	fs := c.flagSet()
	if fs.HasFlags() {
		fmt.Fprintln(w, "\nFlags:")
		fmt.Fprint(w, fs.FlagUsages())
	}
}

// Run parses args and executes the command. --help prints help instead.
func (c *Command) Run(ctx context.Context, w io.Writer, args []string) error {
	fs := c.flagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(w)
			return nil
		}
		return fmt.Errorf("%w: %s (%v)", errUsage, c.Usage, err)
	}
	if fs.NArg() < c.MinArgs {
		return fmt.Errorf("%w: %s", errUsage, c.Usage)
	}
	return c.Exec(ctx, fs, fs.Args())
}
