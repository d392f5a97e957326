// Package migrations embeds the schema migrations applied by
// "hospify-server migrate up".
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
