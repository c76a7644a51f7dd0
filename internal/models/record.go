package models

import (
	"encoding/json"
	"strconv"
)

// Row is one line of a detail table, keyed by column key.
type Row = map[string]any

// Record is a filled-out instance of a Template.
//
// Data maps field keys to scalar values (string or number). Tables maps detail
// table names to ordered rows.
type Record struct {
	ID         string           `json:"id"`
	TemplateID string           `json:"templateId"`
	FileName   string           `json:"fileName,omitempty"`
	Data       map[string]any   `json:"data"`
	Tables     map[string][]Row `json:"tables"`
	CreatedAt  string           `json:"createdAt,omitempty"`
	UpdatedAt  string           `json:"updatedAt,omitempty"`
}

// Copy returns a deep copy with identity and timestamps cleared.
func (r *Record) Copy() *Record {
	c := *r
	c.ID = ""
	c.CreatedAt = ""
	c.UpdatedAt = ""
	c.Data = make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		c.Data[k] = v
	}
	c.Tables = make(map[string][]Row, len(r.Tables))
	for name, rows := range r.Tables {
		cp := make([]Row, len(rows))
		for i, row := range rows {
			nr := make(Row, len(row))
			for k, v := range row {
				nr[k] = v
			}
			cp[i] = nr
		}
		c.Tables[name] = cp
	}
	return &c
}

// ScalarString renders a scalar value as text. nil becomes "".
func ScalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
