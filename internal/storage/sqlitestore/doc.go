// Package sqlitestore is the transactional storage backend: templates and
// records live in two SQLite tables keyed by id, with secondary indexes on
// name, template_id, created_at and updated_at. Each entity is stored whole as
// a JSON body next to the indexed columns.
//
// Typical usage:
//
//	db, _ := sqlitestore.Open(ctx, "formdoc.db")
//	store := sqlitestore.New(db)
//	_ = store.SaveTemplate(ctx, tpl)
//	all, _ := store.GetAllTemplates(ctx)
//
// Every write is a single statement or a single transaction, so a failed
// write leaves no partial state and surfaces as common.ErrorSaveFailed.
package sqlitestore
