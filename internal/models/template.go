package models

// FieldType classifies the value a field or column accepts.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
)

// MaxDetailTables is the number of repeating tables a template may carry.
const MaxDetailTables = 3

// WordFile is the binary document behind a template. Data is base64, optionally
// prefixed with a data-URL header such as "data:application/...;base64,".
type WordFile struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// Field is a single scalar placeholder.
type Field struct {
	ID       string    `json:"id"`
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
	Order    int       `json:"order"`
}

// Column is one cell of a detail table row.
type Column struct {
	ID    string    `json:"id"`
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
}

// DetailTable is bound to a {#Name}...{/Name} loop in the document.
type DetailTable struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Template is a reusable document schema.
//
// ID is empty until the template is saved for the first time. CreatedAt and
// UpdatedAt are ISO-8601 UTC strings, empty when absent.
type Template struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	TitleFieldKey string        `json:"titleFieldKey,omitempty"`
	WordFile      *WordFile     `json:"wordFile,omitempty"`
	Fields        []Field       `json:"fields"`
	DetailTables  []DetailTable `json:"detailTables"`
	CreatedAt     string        `json:"createdAt,omitempty"`
	UpdatedAt     string        `json:"updatedAt,omitempty"`
}

// HasDocument reports whether a document payload is attached.
func (t *Template) HasDocument() bool {
	return t.WordFile != nil && t.WordFile.Data != ""
}

// CanGenerate reports whether the template can be used to produce documents:
// it needs a document and at least one field or detail table.
func (t *Template) CanGenerate() bool {
	return t.HasDocument() && (len(t.Fields) > 0 || len(t.DetailTables) > 0)
}

// ConfiguredKeys returns every field key followed by every column key of every
// detail table, de-duplicated, in declaration order. Blank keys are skipped.
func (t *Template) ConfiguredKeys() []string {
	seen := make(map[string]struct{})
	var keys []string
	add := func(k string) {
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for _, f := range t.Fields {
		add(f.Key)
	}
	for _, tbl := range t.DetailTables {
		for _, c := range tbl.Columns {
			add(c.Key)
		}
	}
	return keys
}

// FindField returns the field with the given key.
func (t *Template) FindField(key string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// FindTable returns the detail table with the given name.
func (t *Template) FindTable(name string) (DetailTable, bool) {
	for _, tbl := range t.DetailTables {
		if tbl.Name == name {
			return tbl, true
		}
	}
	return DetailTable{}, false
}

// Title returns the display title of a record filled from this template: the
// value of TitleFieldKey when set, else the record file name, else its id.
func (t *Template) Title(r *Record) string {
	if t.TitleFieldKey != "" {
		if v := ScalarString(r.Data[t.TitleFieldKey]); v != "" {
			return v
		}
	}
	if r.FileName != "" {
		return r.FileName
	}
	return r.ID
}

// Copy returns a deep copy with identity and timestamps cleared, so saving it
// creates a new template.
func (t *Template) Copy() *Template {
	c := *t
	c.ID = ""
	c.CreatedAt = ""
	c.UpdatedAt = ""
	if t.WordFile != nil {
		wf := *t.WordFile
		c.WordFile = &wf
	}
	c.Fields = append([]Field(nil), t.Fields...)
	c.DetailTables = make([]DetailTable, len(t.DetailTables))
	for i, tbl := range t.DetailTables {
		tbl.Columns = append([]Column(nil), tbl.Columns...)
		c.DetailTables[i] = tbl
	}
	return &c
}
