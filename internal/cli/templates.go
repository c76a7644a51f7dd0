package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/docdata"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/schema"
	flag "github.com/spf13/pflag"
)

func (a *App) templateCommands() []*Command {
	return []*Command{
		{Usage: "templates", Short: "list templates, most recently updated first", Exec: a.listTemplates},
		{
			Usage: "show <templateId> [flags]", Short: "show a template's fields and tables", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				fs.Bool("data", false, "print the empty data object a document generator receives")
			},
			Exec: a.showTemplate,
		},
		{Usage: "search <query>", Short: "fuzzy search templates by name and description", Exec: a.searchTemplates},
		{Usage: "check <templateId>", Short: "compare template keys with the document's placeholders", MinArgs: 1, Exec: a.checkTemplate},
		{Usage: "attach <templateId> <file.docx>", Short: "attach a Word document to a template", MinArgs: 2, Exec: a.attachDocument},
		{
			Usage: "save-template <definition.json|yaml> [flags]", Short: "create or update a template from a definition file", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				fs.String("docx", "", "Word document to attach after saving")
			},
			Exec: a.saveTemplate,
		},
		{
			Usage: "delete <id> [flags]", Short: "delete a template with all its records, or one record", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				fs.BoolP("record", "r", false, "the id is a record id")
			},
			Exec: a.delete,
		},
		{
			Usage: "duplicate <id> [flags]", Short: "copy a template or a record", MinArgs: 1,
			Flags: func(fs *flag.FlagSet) {
				fs.BoolP("record", "r", false, "the id is a record id")
			},
			Exec: a.duplicate,
		},
	}
}

func (a *App) listTemplates(ctx context.Context, _ *flag.FlagSet, _ []string) error {
	all, err := a.core.Templates.List(ctx)
	if err != nil {
		return err
	}
	return printTemplates(a.out, all)
}

func (a *App) searchTemplates(ctx context.Context, _ *flag.FlagSet, args []string) error {
	found, err := a.core.Templates.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return printTemplates(a.out, found)
}

func (a *App) showTemplate(ctx context.Context, fs *flag.FlagSet, args []string) error {
	t, err := a.core.Templates.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if data, _ := fs.GetBool("data"); data {
		return printJSON(a.out, docdata.Describe(t))
	}

	fmt.Fprintf(a.out, "%s (%s)\n", t.Name, t.ID)
	if t.Description != "" {
		fmt.Fprintln(a.out, t.Description)
	}
	if t.WordFile != nil {
		fmt.Fprintln(a.out, "Document:", t.WordFile.Name)
	} else {
		fmt.Fprintln(a.out, "Document: none")
	}
	fmt.Fprintf(a.out, "Created %s, updated %s\n\n", t.CreatedAt, t.UpdatedAt)

	if len(t.Fields) > 0 {
		tw := newTable(a.out, "KEY", "LABEL", "TYPE", "REQUIRED", "TITLE")
		for _, f := range t.Fields {
			title := ""
			if f.Key == t.TitleFieldKey {
				title = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", f.Key, f.Label, fieldType(f.Type), f.Required, title)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	for _, tbl := range t.DetailTables {
		fmt.Fprintf(a.out, "\nTable %s\n", tbl.Name)
		tw := newTable(a.out, "  KEY", "LABEL", "TYPE")
		for _, c := range tbl.Columns {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", c.Key, c.Label, fieldType(c.Type))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func fieldType(ft models.FieldType) models.FieldType {
	if ft == "" {
		return models.FieldTypeText
	}
	return ft
}

func (a *App) checkTemplate(ctx context.Context, _ *flag.FlagSet, args []string) error {
	res, err := a.core.Templates.Check(ctx, args[0])
	var de *schema.DocumentError
	if errors.As(err, &de) {
		fmt.Fprintln(a.out, "The document has malformed tags:")
		for _, m := range de.Messages() {
			fmt.Fprintln(a.out, "  -", m)
		}
		return errors.New("template document needs fixing")
	}
	if err != nil {
		return err
	}

	printKeys(a.out, "Matched", res.Matched)
	printKeys(a.out, "Configured but not in document", res.MissingInWord)
	printKeys(a.out, "In document but not configured", res.MissingInConfig)
	if len(res.MissingLoops) > 0 {
		printKeys(a.out, "Tables without a {#loop}", res.MissingLoops)
	}
	if res.Valid {
		fmt.Fprintln(a.out, "Template and document are consistent.")
	} else {
		fmt.Fprintln(a.out, "Template and document are out of sync.")
	}
	return nil
}

func (a *App) attachDocument(ctx context.Context, _ *flag.FlagSet, args []string) error {
	t, err := a.core.Templates.AttachDocument(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Attached %s to %s.\n", t.WordFile.Name, t.Name)
	return nil
}

func (a *App) saveTemplate(ctx context.Context, fs *flag.FlagSet, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	t, err := decodeDefinition(args[0], data)
	if err != nil {
		return err
	}
	if t.ID != "" && t.WordFile == nil {
		// keep the document of the template being updated
		if existing, err := a.core.Templates.Get(ctx, t.ID); err == nil {
			t.WordFile = existing.WordFile
			t.CreatedAt = existing.CreatedAt
		}
	}

	if docx, _ := fs.GetString("docx"); docx != "" {
		doc, err := os.ReadFile(docx)
		if err != nil {
			return err
		}
		if _, err := schema.DocumentText(doc); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(docx), err)
		}
		t.WordFile = schema.EncodePayload(filepath.Base(docx), doc)
	}

	saved, err := a.core.Templates.Save(ctx, t)
	if err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			for _, m := range ve.Errors {
				fmt.Fprintln(a.errOut, "  -", m)
			}
		}
		return err
	}
	fmt.Fprintf(a.out, "Saved template %s (%s).\n", saved.Name, saved.ID)
	return nil
}

func (a *App) delete(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if rec, _ := fs.GetBool("record"); rec {
		if err := a.core.Records.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Record deleted.")
		return nil
	}
	if err := a.core.Templates.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Template and its records deleted.")
	return nil
}

func (a *App) duplicate(ctx context.Context, fs *flag.FlagSet, args []string) error {
	if rec, _ := fs.GetBool("record"); rec {
		r, err := a.core.Records.Duplicate(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "New record:", r.ID)
		return nil
	}
	t, err := a.core.Templates.Duplicate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "New template %s (%s).\n", t.Name, t.ID)
	return nil
}
