package schema

import (
	"github.com/dmitrijs2005/formdoc/internal/models"
)

// ConsistencyResult compares a template's configured keys with the
// placeholders of its document. A mismatch is a normal outcome, not an error.
type ConsistencyResult struct {
	Matched         []string `json:"matched"`
	MissingInWord   []string `json:"missingInWord"`
	MissingInConfig []string `json:"missingInConfig"`
	Valid           bool     `json:"valid"`

	Placeholders []string `json:"placeholders"`
	// MissingLoops lists detail tables whose name has no {#name} loop in the
	// document. It does not affect Valid.
	MissingLoops []string `json:"missingLoops"`
}

// CheckTemplateConsistency reads t's document and reconciles it with the
// template's field and column keys. Keys are compared with exact,
// case-sensitive equality. Unreadable documents are returned as errors.
func CheckTemplateConsistency(t *models.Template) (*ConsistencyResult, error) {
	doc, err := TemplateDocument(t)
	if err != nil {
		return nil, err
	}
	scan, err := ScanDocument(doc)
	if err != nil {
		return nil, err
	}

	res := CompareKeys(t.ConfiguredKeys(), scan.Placeholders)
	res.Placeholders = scan.Placeholders

	loops := make(map[string]bool, len(scan.Loops))
	for _, l := range scan.Loops {
		loops[l] = true
	}
	for _, tbl := range t.DetailTables {
		if !loops[tbl.Name] {
			res.MissingLoops = append(res.MissingLoops, tbl.Name)
		}
	}
	return res, nil
}

// CompareKeys is the set reconciliation behind CheckTemplateConsistency.
// Matched and MissingInWord follow the order of configured; MissingInConfig
// follows the order of placeholders.
func CompareKeys(configured, placeholders []string) *ConsistencyResult {
	inDoc := make(map[string]bool, len(placeholders))
	for _, p := range placeholders {
		inDoc[p] = true
	}
	inCfg := make(map[string]bool, len(configured))

	res := &ConsistencyResult{
		Matched:         []string{},
		MissingInWord:   []string{},
		MissingInConfig: []string{},
		Placeholders:    placeholders,
		MissingLoops:    []string{},
	}
	for _, k := range configured {
		if inCfg[k] {
			continue
		}
		inCfg[k] = true
		if inDoc[k] {
			res.Matched = append(res.Matched, k)
		} else {
			res.MissingInWord = append(res.MissingInWord, k)
		}
	}
	for _, p := range placeholders {
		if !inCfg[p] {
			res.MissingInConfig = append(res.MissingInConfig, p)
		}
	}
	res.Valid = len(res.MissingInWord) == 0 && len(res.MissingInConfig) == 0
	return res
}
