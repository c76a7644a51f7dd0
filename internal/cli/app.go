package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/app"
	"github.com/dmitrijs2005/formdoc/internal/filex"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type App struct {
	core   *app.App
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	commands map[string]*Command
	order    []*Command
}

// New builds the CLI over core. Output goes to out, errors to errOut.
func New(core *app.App, in io.Reader, out, errOut io.Writer) *App {
	a := &App{core: core, in: in, out: out, errOut: errOut, commands: map[string]*Command{}}
	a.register()
	return a
}

func (a *App) add(cmds ...*Command) {
	for _, c := range cmds {
		a.commands[c.Name()] = c
		a.order = append(a.order, c)
	}
}

func (a *App) register() {
	a.add(a.templateCommands()...)
	a.add(a.recordCommands()...)
	a.add(a.packCommands()...)
	a.add(a.remoteCommands()...)
	a.add(a.workspaceCommands()...)
	a.add(
		&Command{Usage: "help [command]", Short: "list commands or show help for one", Exec: a.help},
		&Command{Usage: "exit", Short: "leave formdoc", Exec: a.exit},
	)
	a.commands["quit"] = a.commands["exit"]
}

// Exec runs one parsed command line.
func (a *App) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	c, ok := a.commands[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown command %q (type 'help' for commands)", args[0])
	}
	return c.Run(ctx, a.out, args[1:])
}

// Run starts the interactive loop. On a terminal it uses line editing with
// history; otherwise it reads plain lines from the input.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "formdoc (type 'help' for commands)")

	f, ok := a.in.(*os.File)
	if !ok || !isTerminal(int(f.Fd())) {
		return runREPL(ctx, a, newScanReader(a.in, a.out))
	}

	l := liner.NewLiner()
	defer l.Close()
	l.SetCtrlCAborts(true)
	l.SetCompleter(a.complete)

	history := a.core.Config.HistoryFile
	if h, err := os.Open(history); err == nil {
		_, _ = l.ReadHistory(h)
		_ = h.Close()
	}
	defer a.saveHistory(l, history)

	return runREPL(ctx, a, l)
}

func (a *App) saveHistory(l *liner.State, path string) {
	if path == "" {
		return
	}
	if err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		a.core.Log.Warn(context.Background(), "history not saved", "error", err)
		return
	}
	h, err := os.Create(path)
	if err != nil {
		a.core.Log.Warn(context.Background(), "history not saved", "error", err)
		return
	}
	defer h.Close()
	_, _ = l.WriteHistory(h)
}

// complete offers command names for the first word.
func (a *App) complete(line string) []string {
	if strings.Contains(line, " ") {
		return nil
	}
	var out []string
	for name := range a.commands {
		if strings.HasPrefix(name, strings.ToLower(line)) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (a *App) prompt() string {
	return fmt.Sprintf("formdoc (%s)> ", a.core.Store.Kind())
}

func (a *App) help(_ context.Context, _ *flag.FlagSet, args []string) error {
	if len(args) > 0 {
		c, ok := a.commands[strings.ToLower(args[0])]
		if !ok {
			return fmt.Errorf("unknown command %q", args[0])
		}
		c.PrintHelp(a.out)
		return nil
	}
	fmt.Fprintln(a.out, "Commands:")
	for _, c := range a.order {
		fmt.Fprintln(a.out, c.HelpLine())
	}
	fmt.Fprintln(a.out, "\nUse 'help <command>' or '<command> --help' for flags.")
	return nil
}

func (a *App) exit(context.Context, *flag.FlagSet, []string) error {
	return errQuit
}
