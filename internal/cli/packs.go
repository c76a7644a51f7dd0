package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formdoc/internal/cryptox"
	"github.com/dmitrijs2005/formdoc/internal/packs"
	flag "github.com/spf13/pflag"
)

// now is a test seam for default file names.
var now = time.Now

func outputFlag(fs *flag.FlagSet) {
	fs.StringP("output", "o", "", "file to write (default: derived from the name)")
}

func (a *App) packCommands() []*Command {
	return []*Command{
		{Usage: "export-template <templateId> [flags]", Short: "write a template pack", MinArgs: 1, Flags: outputFlag, Exec: a.exportTemplate},
		{
			Usage: "import-template <file> [flags]", Short: "import a template pack", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				fs.StringP("strategy", "s", "", "when the template exists: overwrite, rename or skip")
			},
			Exec: a.importTemplate,
		},
		{
			Usage: "export-records <templateId> [flags]", Short: "write a records pack", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				outputFlag(fs)
				fs.StringSlice("ids", nil, "only these record ids (comma separated)")
			},
			Exec: a.exportRecords,
		},
		{Usage: "import-records <file>", Short: "import a records pack", MinArgs: 1, Exec: a.importRecords},
		{Usage: "backup [flags]", Short: "write a full backup of templates and records", Flags: outputFlag, Exec: a.backup},
		{Usage: "restore <file>", Short: "add everything from a backup that is not here yet", MinArgs: 1, Exec: a.restore},
		{
			Usage: "import <file> [flags]", Short: "import any pack or backup, detecting its type", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				fs.StringP("strategy", "s", "", "conflict strategy for template packs")
			},
			Exec: a.importAny,
		},
	}
}

func (a *App) writePack(fs *flag.FlagSet, base string, t packs.Type, data []byte) error {
	path, _ := fs.GetString("output")
	if path == "" {
		path = packs.FileName(packs.SafeBaseName(base), t)
	}
	if err := packs.WriteFile(path, data); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Wrote", path)
	return nil
}

func (a *App) exportTemplate(ctx context.Context, fs *flag.FlagSet, args []string) error {
	t, err := a.core.Templates.Get(ctx, args[0])
	if err != nil {
		return err
	}
	data, err := a.core.Packs.ExportTemplate(ctx, t.ID)
	if err != nil {
		return err
	}
	return a.writePack(fs, t.Name, packs.TypeTemplate, data)
}

func (a *App) strategy(fs *flag.FlagSet) (packs.Strategy, error) {
	s, _ := fs.GetString("strategy")
	if s == "" {
		s = a.core.Config.ConflictStrategy
	}
	return packs.ParseStrategy(s)
}

func (a *App) importTemplate(ctx context.Context, fs *flag.FlagSet, args []string) error {
	st, err := a.strategy(fs)
	if err != nil {
		return err
	}
	data, err := packs.ReadFile(args[0])
	if err != nil {
		return err
	}
	return a.doImportTemplate(ctx, data, st)
}

func (a *App) doImportTemplate(ctx context.Context, data []byte, st packs.Strategy) error {
	res, err := a.core.Packs.ImportTemplate(ctx, data, st)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Template %s: %s (%s).\n", res.Outcome, res.Template.Name, res.Template.ID)
	return nil
}

func (a *App) exportRecords(ctx context.Context, fs *flag.FlagSet, args []string) error {
	t, err := a.core.Templates.Get(ctx, args[0])
	if err != nil {
		return err
	}
	ids, _ := fs.GetStringSlice("ids")
	data, err := a.core.Packs.ExportRecords(ctx, t.ID, ids...)
	if err != nil {
		return err
	}
	return a.writePack(fs, t.Name+"-records", packs.TypeRecords, data)
}

func (a *App) importRecords(ctx context.Context, _ *flag.FlagSet, args []string) error {
	data, err := packs.ReadFile(args[0])
	if err != nil {
		return err
	}
	return a.doImportRecords(ctx, data)
}

func (a *App) doImportRecords(ctx context.Context, data []byte) error {
	res, err := a.core.Packs.ImportRecords(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d of %d records into %s (%d already present).\n",
		res.Imported, res.Total, res.Template.Name, res.Skipped)
	return nil
}

func (a *App) backup(ctx context.Context, fs *flag.FlagSet, _ []string) error {
	data, err := a.core.Packs.ExportBackup(ctx)
	if err != nil {
		return err
	}
	return a.writePack(fs, backupName(), packs.TypeBackup, data)
}

func backupName() string {
	return "formdoc-" + now().UTC().Format("20060102-150405")
}

func (a *App) restore(ctx context.Context, _ *flag.FlagSet, args []string) error {
	data, err := packs.ReadFile(args[0])
	if err != nil {
		return err
	}
	return a.doRestore(ctx, data)
}

// unseal decrypts data when it is a sealed backup and returns it unchanged
// otherwise.
func (a *App) unseal(data []byte) ([]byte, error) {
	if !cryptox.IsSealed(data) {
		return data, nil
	}
	plain, err := cryptox.Open(a.core.Config.BackupPassphrase, data)
	if err != nil {
		return nil, fmt.Errorf("encrypted backup: %w", err)
	}
	return plain, nil
}

func (a *App) doRestore(ctx context.Context, data []byte) error {
	data, err := a.unseal(data)
	if err != nil {
		return err
	}
	res, err := a.core.Packs.ImportBackup(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Restored %d of %d templates and %d of %d records.\n",
		res.Templates, res.TemplatesTotal, res.Records, res.RecordsTotal)
	if res.Orphaned > 0 {
		fmt.Fprintf(a.out, "Left out %d records whose template is missing.\n", res.Orphaned)
	}
	return nil
}

func (a *App) importAny(ctx context.Context, fs *flag.FlagSet, args []string) error {
	data, err := packs.ReadFile(args[0])
	if err != nil {
		return err
	}
	if data, err = a.unseal(data); err != nil {
		return err
	}
	kind, err := packs.Detect(data)
	if err != nil {
		return err
	}
	switch kind {
	case packs.TypeTemplate:
		st, err := a.strategy(fs)
		if err != nil {
			return err
		}
		return a.doImportTemplate(ctx, data, st)
	case packs.TypeRecords:
		return a.doImportRecords(ctx, data)
	default:
		return a.doRestore(ctx, data)
	}
}
