package testutil

import (
	"testing"

	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/schema"
)

// InvoiceDocx is a document matching InvoiceTemplate: scalar tags customer,
// total and an items loop over desc and qty.
func InvoiceDocx(tb testing.TB) []byte {
	tb.Helper()
	return Docx(tb,
		P("Invoice for ", "{cust", "omer}"),
		P("{#items}", "{desc} x {qty}", "{/items}"),
		P("Total: { total }"),
	)
}

// InvoiceTemplate returns an unsaved, valid template named name whose document
// is InvoiceDocx.
func InvoiceTemplate(tb testing.TB, name string) *models.Template {
	tb.Helper()
	return &models.Template{
		Name:          name,
		Description:   "Monthly invoice",
		TitleFieldKey: "customer",
		WordFile:      schema.EncodePayload("invoice.docx", InvoiceDocx(tb)),
		Fields: []models.Field{
			{ID: "f1", Key: "customer", Label: "Customer", Type: models.FieldTypeText, Required: true, Order: 1},
			{ID: "f2", Key: "total", Label: "Total", Type: models.FieldTypeNumber, Order: 2},
		},
		DetailTables: []models.DetailTable{
			{ID: "d1", Name: "items", Columns: []models.Column{
				{ID: "c1", Key: "desc", Label: "Description", Type: models.FieldTypeText},
				{ID: "c2", Key: "qty", Label: "Qty", Type: models.FieldTypeNumber},
			}},
		},
	}
}
