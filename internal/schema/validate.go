// Package schema validates templates and records and reconciles a template's
// configured keys with the placeholders found in its Word document.
package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/models"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s may be used as a placeholder key or loop name.
func IsIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// ValidationResult is the outcome of a validation pass. Errors holds every
// violation found, in a stable order.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}

type collector struct {
	errs []string
}

func (c *collector) addf(format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, args...))
}

func (c *collector) result() ValidationResult {
	if len(c.errs) == 0 {
		return ValidationResult{Valid: true, Errors: []string{}}
	}
	return ValidationResult{Valid: false, Errors: c.errs}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateTemplate checks t against the schema rules and collects every
// violation. It never panics; a nil template is reported as invalid.
func ValidateTemplate(t *models.Template) ValidationResult {
	c := &collector{}
	if t == nil {
		c.addf("template is required")
		return c.result()
	}

	if blank(t.Name) {
		c.addf("template name is required")
	}
	if !t.HasDocument() {
		c.addf("word document is required")
	}

	seen := make(map[string]bool)
	for i, f := range t.Fields {
		n := i + 1
		switch {
		case blank(f.Key):
			c.addf("field %d: key is required", n)
		case !IsIdentifier(f.Key):
			c.addf("field %d: key %q must start with a letter or underscore and contain only letters, digits and underscores", n, f.Key)
		}
		if !blank(f.Key) {
			if seen[f.Key] {
				c.addf("field %d: duplicate key %q", n, f.Key)
			}
			seen[f.Key] = true
		}
		if blank(f.Label) {
			c.addf("field %d: label is required", n)
		}
	}

	if len(t.DetailTables) > models.MaxDetailTables {
		c.addf("at most %d detail tables are allowed, got %d", models.MaxDetailTables, len(t.DetailTables))
	}
	tableNames := make(map[string]bool)
	for i, tbl := range t.DetailTables {
		n := i + 1
		switch {
		case blank(tbl.Name):
			c.addf("table %d: name is required", n)
		case !IsIdentifier(tbl.Name):
			c.addf("table %d: name %q must start with a letter or underscore and contain only letters, digits and underscores", n, tbl.Name)
		}
		if !blank(tbl.Name) {
			if tableNames[tbl.Name] {
				c.addf("table %d: duplicate name %q", n, tbl.Name)
			}
			tableNames[tbl.Name] = true
		}
		if len(tbl.Columns) == 0 {
			c.addf("table %d: at least one column is required", n)
		}
		colKeys := make(map[string]bool)
		for j, col := range tbl.Columns {
			m := j + 1
			if blank(col.Key) {
				c.addf("table %d column %d: key is required", n, m)
			} else {
				if colKeys[col.Key] {
					c.addf("table %d column %d: duplicate key %q", n, m, col.Key)
				}
				colKeys[col.Key] = true
			}
			if blank(col.Label) {
				c.addf("table %d column %d: label is required", n, m)
			}
		}
	}

	if len(t.Fields) == 0 && len(t.DetailTables) == 0 {
		c.addf("template must have at least one field or table")
	}
	return c.result()
}

// ValidateRecord checks the data entered for t: required fields must be
// filled and number fields and columns must hold numeric values.
func ValidateRecord(t *models.Template, r *models.Record) ValidationResult {
	c := &collector{}
	if t == nil || r == nil {
		c.addf("template and record are required")
		return c.result()
	}

	for _, f := range t.Fields {
		v := r.Data[f.Key]
		s := strings.TrimSpace(models.ScalarString(v))
		if s == "" {
			if f.Required {
				c.addf("%s is required", fieldName(f.Label, f.Key))
			}
			continue
		}
		if f.Type == models.FieldTypeNumber && !isNumeric(v) {
			c.addf("%s must be a number", fieldName(f.Label, f.Key))
		}
	}

	for _, tbl := range t.DetailTables {
		for i, row := range r.Tables[tbl.Name] {
			for _, col := range tbl.Columns {
				if col.Type != models.FieldTypeNumber {
					continue
				}
				v := row[col.Key]
				if strings.TrimSpace(models.ScalarString(v)) == "" {
					continue
				}
				if !isNumeric(v) {
					c.addf("%s row %d: %s must be a number", tbl.Name, i+1, fieldName(col.Label, col.Key))
				}
			}
		}
	}
	return c.result()
}

func fieldName(label, key string) string {
	if blank(label) {
		return key
	}
	return label
}

func isNumeric(v any) bool {
	switch x := v.(type) {
	case float64, float32, int, int64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return err == nil
	default:
		_, err := strconv.ParseFloat(models.ScalarString(x), 64)
		return err == nil
	}
}
