package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formdoc/internal/cryptox"
	"github.com/dmitrijs2005/formdoc/internal/netx"
	"github.com/dmitrijs2005/formdoc/internal/packs"
	flag "github.com/spf13/pflag"
)

func (a *App) remoteCommands() []*Command {
	return []*Command{
		{
			Usage: "push [flags]", Short: "upload a full backup to the configured bucket",
			Flags: func(fs *flag.FlagSet) {
				fs.String("name", "", "object name (default: formdoc-<timestamp>.backup)")
				fs.Duration("share", 0, "also print a download link valid this long, e.g. 1h")
			},
			Exec: a.push,
		},
		{
			Usage: "pull [key] [flags]", Short: "restore the latest (or given) remote backup",
			Flags: func(fs *flag.FlagSet) {
				fs.BoolP("list", "l", false, "list remote backups instead")
				fs.StringP("output", "o", "", "save the backup to this file instead of restoring it")
				fs.String("url", "", "fetch from a shared download link instead of the bucket")
			},
			Exec: a.pull,
		},
	}
}

func (a *App) push(ctx context.Context, fs *flag.FlagSet, _ []string) error {
	name, _ := fs.GetString("name")
	if name == "" {
		name = packs.FileName(backupName(), packs.TypeBackup)
	}
	data, err := a.core.Packs.ExportBackup(ctx)
	if err != nil {
		return err
	}
	if pass := a.core.Config.BackupPassphrase; pass != "" {
		if data, err = cryptox.Seal(pass, data); err != nil {
			return err
		}
	}
	key, err := a.core.Archive.Push(ctx, name, data)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Uploaded", key)

	if ttl, _ := fs.GetDuration("share"); ttl > 0 {
		u, err := a.core.Archive.ShareURL(ctx, key, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Link:", u)
	}
	return nil
}

func (a *App) pull(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if list, _ := fs.GetBool("list"); list {
		objs, err := a.core.Archive.List(ctx)
		if err != nil {
			return err
		}
		if len(objs) == 0 {
			fmt.Fprintln(a.out, "No remote backups.")
			return nil
		}
		tw := newTable(a.out, "KEY", "SIZE", "MODIFIED")
		for _, o := range objs {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Key, o.Size, o.LastModified.UTC().Format(time.RFC3339))
		}
		return tw.Flush()
	}

	var (
		source string
		data   []byte
		err    error
	)
	if link, _ := fs.GetString("url"); link != "" {
		source = "shared link"
		data, err = netx.DownloadFromPresignedURL(ctx, link, packs.MaxFileSize)
	} else {
		source, data, err = a.pullObject(ctx, args)
	}
	if err != nil {
		return err
	}

	if out, _ := fs.GetString("output"); out != "" {
		if err := packs.WriteFile(out, data); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Wrote", out)
		return nil
	}
	fmt.Fprintln(a.out, "Pulled", source)
	return a.doRestore(ctx, data)
}

// pullObject downloads args[0], or the newest backup when no key is given.
func (a *App) pullObject(ctx context.Context, args []string) (string, []byte, error) {
	key := ""
	if len(args) > 0 {
		key = args[0]
	} else {
		latest, err := a.core.Archive.Latest(ctx)
		if err != nil {
			return "", nil, err
		}
		key = latest
	}
	data, err := a.core.Archive.Pull(ctx, key)
	if err != nil {
		return "", nil, err
	}
	return key, data, nil
}
