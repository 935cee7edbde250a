package migrations

import "embed"

// FS contains the history schema.
//
//go:embed *.sql
var FS embed.FS
