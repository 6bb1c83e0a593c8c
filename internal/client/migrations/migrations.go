// Package migrations embeds the schema of the console's local SQLite store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
