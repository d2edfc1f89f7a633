// Package migrations embeds the goose SQL migrations so a fresh binary
// can bring its own schema up to date.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
