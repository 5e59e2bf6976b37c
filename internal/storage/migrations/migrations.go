// Package migrations embeds the goose migrations shared by the SQL engines.
// The statements are portable between SQLite and PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
