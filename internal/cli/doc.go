// Package cli is the interactive formdoc shell.
//
// App reads one command per line, with editing and history when stdin is a
// terminal, and dispatches it to a Command. Each command parses its own
// flags, so "range <id> --from 2024-05-01" and "help range" work the same
// way inside the loop as they would on a normal command line.
//
// Commands cover templates (list, search, show, check, attach, save,
// delete, duplicate), records (list, date range, fill, prepare), packs and
// backups (export, import, restore), the remote archive (push, pull) and the
// workspace folder.
package cli
