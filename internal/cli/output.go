package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/formdoc/internal/models"
)

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printKeys(w io.Writer, title string, keys []string) {
	if len(keys) == 0 {
		fmt.Fprintf(w, "%s: none\n", title)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", title, strings.Join(keys, ", "))
}

func printTemplates(w io.Writer, ts []models.Template) error {
	if len(ts) == 0 {
		fmt.Fprintln(w, "No templates.")
		return nil
	}
	tw := newTable(w, "ID", "NAME", "FIELDS", "TABLES", "DOCUMENT", "UPDATED")
	for _, t := range ts {
		doc := "-"
		if t.WordFile != nil {
			doc = t.WordFile.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", t.ID, t.Name, len(t.Fields), len(t.DetailTables), doc, t.UpdatedAt)
	}
	return tw.Flush()
}

// recordTitle is the value of the template's title field, or the record id.
func recordTitle(t *models.Template, r models.Record) string {
	if t != nil && t.TitleFieldKey != "" {
		if s := models.ScalarString(r.Data[t.TitleFieldKey]); s != "" {
			return s
		}
	}
	return r.ID
}

// printRecords lists rs; templates maps template ids to their templates for
// titles and names.
func printRecords(w io.Writer, templates map[string]*models.Template, rs []models.Record) error {
	if len(rs) == 0 {
		fmt.Fprintln(w, "No records.")
		return nil
	}
	tw := newTable(w, "ID", "TITLE", "TEMPLATE", "ROWS", "CREATED")
	for _, r := range rs {
		rows := 0
		for _, tbl := range r.Tables {
			rows += len(tbl)
		}
		t := templates[r.TemplateID]
		name := r.TemplateID
		if t != nil {
			name = t.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, recordTitle(t, r), name, rows, r.CreatedAt)
	}
	return tw.Flush()
}
