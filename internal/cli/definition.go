package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/models"
	"gopkg.in/yaml.v3"
)

// decodeDefinition reads a template definition written by hand. YAML files
// use the same keys as the JSON form ("titleFieldKey", "detailTables", ...).
func decodeDefinition(path string, data []byte) (*models.Template, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		data = b
	}

	var t models.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &t, nil
}
