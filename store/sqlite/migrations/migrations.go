// Package migrations embeds the run-history schema.
package migrations

import "embed"

// FS holds the SQL migration files, applied in name order.
//
//go:embed *.sql
var FS embed.FS
