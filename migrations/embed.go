// Package migrations embeds the goose SQL migrations so they can be run
// from the server binary at startup.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS
