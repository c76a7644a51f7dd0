// Package models defines the template and record types persisted by formdoc.
//
// A Template maps named fields and up to MaxDetailTables repeating detail
// tables onto {placeholder} tags inside a Word document. A Record is one
// filled-out instance of a Template.
//
// All JSON tags are camelCase; the same encoding is used for workspace files,
// packs and backups.
package models
