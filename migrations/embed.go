// Package migrations embeds the SQL migrations of the audit trail schema.
package migrations

import "embed"

// FS holds the migration files at its root.
//
//go:embed *.sql
var FS embed.FS
