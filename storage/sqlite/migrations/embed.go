package migrations

import "embed"

// FS contains embedded SQLite migrations for user and account storage.
//
//go:embed *.sql
var FS embed.FS
