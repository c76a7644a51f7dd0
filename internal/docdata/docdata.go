// Package docdata shapes record values into the flat object consumed by the
// document generator: one entry per field key and one array of rows per
// detail table.
package docdata

import (
	"github.com/dmitrijs2005/formdoc/internal/models"
)

// Prepare builds the generator input for t. Every field key is present, with
// "" standing in for missing or nil values. Every detail table name maps to a
// slice with one row per input row, and every row carries every column key.
// Data keys that the template does not declare are dropped.
func Prepare(t *models.Template, data map[string]any, tables map[string][]models.Row) map[string]any {
	out := make(map[string]any)
	if t == nil {
		return out
	}

	for _, f := range t.Fields {
		if f.Key == "" {
			continue
		}
		out[f.Key] = valueOrEmpty(data[f.Key])
	}

	for _, tbl := range t.DetailTables {
		if tbl.Name == "" {
			continue
		}
		in := tables[tbl.Name]
		rows := make([]map[string]any, 0, len(in))
		for _, src := range in {
			row := make(map[string]any, len(tbl.Columns))
			for _, c := range tbl.Columns {
				if c.Key == "" {
					continue
				}
				row[c.Key] = valueOrEmpty(src[c.Key])
			}
			rows = append(rows, row)
		}
		out[tbl.Name] = rows
	}
	return out
}

// PrepareRecord is Prepare applied to a stored record.
func PrepareRecord(t *models.Template, r *models.Record) map[string]any {
	if r == nil {
		return Prepare(t, nil, nil)
	}
	return Prepare(t, r.Data, r.Tables)
}

// Describe returns the generator input shape for t with empty values and a
// single empty row per table.
func Describe(t *models.Template) map[string]any {
	if t == nil {
		return map[string]any{}
	}
	tables := make(map[string][]models.Row, len(t.DetailTables))
	for _, tbl := range t.DetailTables {
		tables[tbl.Name] = []models.Row{{}}
	}
	return Prepare(t, nil, tables)
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
