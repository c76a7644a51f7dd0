package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/filex"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/schema"
	flag "github.com/spf13/pflag"
)

func (a *App) recordCommands() []*Command {
	return []*Command{
		{Usage: "records <templateId>", Short: "list a template's records, newest first", MinArgs: 1, Exec: a.listRecords},
		{
			Usage: "range [templateId] [flags]", Short: "list records created within a date range, across all templates unless one is given",
			Flags: func(fs *flag.FlagSet) {
				fs.String("from", "", "first day, YYYY-MM-DD (UTC)")
				fs.String("to", "", "last day, YYYY-MM-DD (UTC)")
			},
			Exec: a.rangeRecords,
		},
		{
			Usage: "fill <templateId> [key=value ...] [flags]", Short: "create a record for a template", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				fs.StringArray("row", nil, "table row as table:key=value,key=value (repeatable)")
			},
			Exec: a.fillRecord,
		},
		{
			Usage: "prepare <recordId> [flags]", Short: "print the data a document generator receives for a record", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				fs.StringP("output", "o", "", "write the JSON to this file")
			},
			Exec: a.prepareRecord,
		},
	}
}

func (a *App) listRecords(ctx context.Context, _ *flag.FlagSet, args []string) error {
	t, err := a.core.Templates.Get(ctx, args[0])
	if err != nil {
		return err
	}
	recs, err := a.core.Records.ListByTemplate(ctx, t.ID)
	if err != nil {
		return err
	}
	return printRecords(a.out, map[string]*models.Template{t.ID: t}, recs)
}

func (a *App) rangeRecords(ctx context.Context, fs *flag.FlagSet, args []string) error {
	from, _ := fs.GetString("from")
	to, _ := fs.GetString("to")

	templates := map[string]*models.Template{}
	templateID := ""
	if len(args) > 0 {
		t, err := a.core.Templates.Get(ctx, args[0])
		if err != nil {
			return err
		}
		templateID = t.ID
		templates[t.ID] = t
	} else {
		all, err := a.core.Templates.List(ctx)
		if err != nil {
			return err
		}
		for i := range all {
			templates[all[i].ID] = &all[i]
		}
	}

	recs, err := a.core.Records.ListByDateRange(ctx, templateID, from, to)
	if err != nil {
		return err
	}
	return printRecords(a.out, templates, recs)
}

func (a *App) fillRecord(ctx context.Context, fs *flag.FlagSet, args []string) error {
	t, err := a.core.Templates.Get(ctx, args[0])
	if err != nil {
		return err
	}
	r := &models.Record{
		TemplateID: t.ID,
		Data:       map[string]any{},
		Tables:     map[string][]models.Row{},
	}
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("%w: expected key=value, got %q", errUsage, kv)
		}
		if _, ok := t.FindField(k); !ok {
			return fmt.Errorf("%w: %s has no field %q", errUsage, t.Name, k)
		}
		r.Data[k] = v
	}

	rows, _ := fs.GetStringArray("row")
	for _, def := range rows {
		table, row, err := parseRow(def)
		if err != nil {
			return err
		}
		if err := checkRow(t, table, row); err != nil {
			return err
		}
		r.Tables[table] = append(r.Tables[table], row)
	}

	saved, err := a.core.Records.Save(ctx, r)
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			for _, m := range ve.Errors {
				fmt.Fprintln(a.errOut, "  -", m)
			}
		}
		return err
	}
	fmt.Fprintln(a.out, "New record:", saved.ID)
	if !t.CanGenerate() {
		fmt.Fprintln(a.errOut, "Note: the template has no document yet, so the record cannot be prepared until one is attached.")
	}
	return nil
}

// parseRow reads "table:key=value,key=value".
func parseRow(def string) (string, models.Row, error) {
	table, cells, ok := strings.Cut(def, ":")
	if !ok || table == "" {
		return "", nil, fmt.Errorf("%w: row must look like table:key=value,... got %q", errUsage, def)
	}
	row := models.Row{}
	for _, cell := range strings.Split(cells, ",") {
		if cell == "" {
			continue
		}
		k, v, ok := strings.Cut(cell, "=")
		if !ok || k == "" {
			return "", nil, fmt.Errorf("%w: bad cell %q in row %q", errUsage, cell, def)
		}
		row[k] = v
	}
	return table, row, nil
}

// checkRow rejects rows for tables or columns the template does not define.
func checkRow(t *models.Template, table string, row models.Row) error {
	tbl, ok := t.FindTable(table)
	if !ok {
		return fmt.Errorf("%w: %s has no table %q", errUsage, t.Name, table)
	}
	for k := range row {
		if !slices.ContainsFunc(tbl.Columns, func(c models.Column) bool { return c.Key == k }) {
			return fmt.Errorf("%w: table %q has no column %q", errUsage, table, k)
		}
	}
	return nil
}

func (a *App) prepareRecord(ctx context.Context, fs *flag.FlagSet, args []string) error {
	data, err := a.core.Records.Prepare(ctx, args[0])
	if err != nil {
		return err
	}
	out, _ := fs.GetString("output")
	if out == "" {
		return printJSON(a.out, data)
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := filex.EnsureDir(filepath.Dir(out)); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(out, b); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Wrote", out)
	return nil
}
