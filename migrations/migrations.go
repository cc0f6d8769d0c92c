// Package migrations embeds the ledger schema migrations so tools can
// apply them without shipping loose SQL files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
