package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
)

func (a *App) workspaceCommands() []*Command {
	return []*Command{
		{
			Usage: "workspace [path] [flags]", Short: "show, grant or forget the workspace folder",
			Flags: func(fs *flag.FlagSet) {
				fs.Bool("clear", false, "forget the granted folder from the next start on")
			},
			Exec: a.workspace,
		},
		{Usage: "status", Short: "show storage and archive settings", Exec: a.status},
	}
}

func (a *App) workspace(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if forget, _ := fs.GetBool("clear"); forget {
		if err := a.core.Workspace.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Workspace forgotten. This session keeps its current storage.")
		return nil
	}

	if len(args) > 0 {
		h, err := a.core.UseWorkspace(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Now storing in", h.Path)
		return nil
	}

	granted, err := a.core.Workspace.HasWorkspace(ctx)
	if err != nil {
		return err
	}
	if !granted {
		fmt.Fprintln(a.out, "No workspace granted.")
		return nil
	}
	h, err := a.core.Workspace.Load(ctx)
	if err != nil {
		return err
	}
	state := "ok"
	if err := h.Reacquire(); err != nil {
		state = err.Error()
	}
	fmt.Fprintf(a.out, "Workspace %s (granted %s): %s\n", h.Path, h.GrantedAt, state)
	return nil
}

func (a *App) status(ctx context.Context, _ *flag.FlagSet, _ []string) error {
	cfg := a.core.Config

	templates, err := a.core.Store.GetAllTemplates(ctx)
	if err != nil {
		return err
	}
	records, err := a.core.Store.GetAllRecords(ctx)
	if err != nil {
		return err
	}

	tw := newTable(a.out, "SETTING", "VALUE")
	fmt.Fprintf(tw, "backend\t%s\n", a.core.Store.Kind())
	fmt.Fprintf(tw, "mode\t%s\n", cfg.StorageMode)
	fmt.Fprintf(tw, "database\t%s\n", cfg.DatabasePath)
	ws := "-"
	if h, err := a.core.Workspace.Load(ctx); err == nil {
		ws = h.Path
	}
	fmt.Fprintf(tw, "workspace\t%s\n", ws)
	fmt.Fprintf(tw, "templates\t%d\n", len(templates))
	fmt.Fprintf(tw, "records\t%d\n", len(records))
	bucket := "disabled"
	if a.core.Archive.Enabled() {
		bucket = cfg.S3Bucket
	}
	fmt.Fprintf(tw, "archive\t%s\n", bucket)
	return tw.Flush()
}
